// Package tickersource reads raw constituent lists. The strings it returns are
// unnormalized; callers run them through the ticker normalizer.
package tickersource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Source yields raw ticker strings.
type Source interface {
	Raw(ctx context.Context) ([]string, error)
}

// XLSX reads column A of a workbook sheet. An empty Sheet means the first one.
type XLSX struct {
	Path  string
	Sheet string
}

func (x XLSX) Raw(_ context.Context) ([]string, error) {
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", x.Path, err)
	}
	defer f.Close()

	sheet := x.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", x.Path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	out := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" || (i == 0 && isHeader(cell)) {
			continue
		}
		out = append(out, cell)
	}
	return out, nil
}

// Text reads one ticker per line. Commas also separate tickers and anything
// after '#' is a comment.
type Text struct {
	Path string
}

func (t Text) Raw(_ context.Context) ([]string, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		return nil, fmt.Errorf("open ticker list %s: %w", t.Path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.Split(line, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if first && isHeader(tok) {
				first = false
				continue
			}
			first = false
			out = append(out, tok)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ticker list %s: %w", t.Path, err)
	}
	return out, nil
}

// Static is a list given inline in configuration.
type Static struct {
	Tickers []string
}

func (s Static) Raw(_ context.Context) ([]string, error) {
	out := make([]string, len(s.Tickers))
	copy(out, s.Tickers)
	return out, nil
}

// Multi concatenates several sources in order. A failing source does not
// hide the others: their symbols are returned along with the joined errors.
type Multi []Source

func (m Multi) Raw(ctx context.Context) ([]string, error) {
	var (
		out  []string
		errs []error
	)
	for _, s := range m {
		raw, err := s.Raw(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, raw...)
	}
	return out, errors.Join(errs...)
}

// New picks a source by kind; an empty kind is inferred from the extension.
func New(path, kind, sheet string) (Source, error) {
	if kind == "" {
		if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			kind = "xlsx"
		} else {
			kind = "text"
		}
	}
	switch kind {
	case "xlsx":
		return XLSX{Path: path, Sheet: sheet}, nil
	case "text":
		return Text{Path: path}, nil
	default:
		return nil, fmt.Errorf("unknown ticker source kind %q", kind)
	}
}

func isHeader(cell string) bool {
	switch strings.ToLower(cell) {
	case "symbol", "ticker", "tickers", "symbols":
		return true
	}
	return false
}
