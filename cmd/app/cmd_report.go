package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"IndexImpact/internal/di"
	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/impact"

	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportTop    int
)

// reportCmd computes a single report and prints it
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute one report and print it",
	Long: `Compute the impact report for every configured index once and print it.

Examples:
  indeximpact report
  indeximpact report --format table --top 10
  indeximpact report --config config/config.yaml --format json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFormat, "format", "json", "Output format (json|table)")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "Rows per index, 0 for all")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportFormat != "json" && reportFormat != "table" {
		return fmt.Errorf("unknown format '%s'", reportFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	uc, cleanup, err := di.InitializeReporter(cfg)
	if err != nil {
		return fmt.Errorf("reporter initialization failed: %w", err)
	}
	defer cleanup()

	r := uc.Refresh(cmd.Context())
	for i := range r.Indices {
		r.Indices[i].Rows = impact.Top(r.Indices[i].Rows, reportTop)
	}

	if reportFormat == "table" {
		return writeTable(os.Stdout, r)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeTable(out io.Writer, r *models.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, ir := range r.Indices {
		fmt.Fprintf(w, "%s (%s)\tresolved %d/%d\tcontribution %+.4f%%\t\t\t\n",
			ir.Name, ir.Regime, ir.Coverage.Resolved, ir.Coverage.Expected, ir.Contribution)
		fmt.Fprintln(w, "SYMBOL\tPRICE\tRETURN%\tWEIGHT%\tIMPACT%\t")
		for _, row := range ir.Rows {
			flag := ""
			if row.Fallback {
				flag = "*"
			}
			fmt.Fprintf(w, "%s%s\t%.2f\t%+.3f\t%.3f\t%+.4f\t\n",
				row.Identifier, flag, row.Price, row.ReturnPct, row.WeightPct, row.ImpactPct)
		}
		if ir.Diagnostics.Message != "" {
			fmt.Fprintf(w, "note: %s\t\t\t\t\t\n", ir.Diagnostics.Message)
		}
		fmt.Fprintln(w, "\t\t\t\t\t")
	}
	return w.Flush()
}
