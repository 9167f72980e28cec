package usecase

import (
	"context"
	"fmt"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/ticker"
	"IndexImpact/internal/tickersource"
	"IndexImpact/pkg/config"
	"IndexImpact/pkg/logger"
)

// LoadIndices builds immutable index definitions from configuration, reading
// and normalizing each index's ticker list. A list that cannot be read is
// logged and the index keeps only its inline tickers, so it still shows up in
// reports with zero coverage instead of stopping the others. Invalid regimes
// cap fractions and source kinds are configuration errors and abort the load.
func LoadIndices(ctx context.Context, cfgs []config.Index, log *logger.Logger) ([]models.IndexDefinition, error) {
	if log == nil {
		log = logger.Nop()
	}

	defs := make([]models.IndexDefinition, 0, len(cfgs))
	for _, c := range cfgs {
		regime, err := models.ParseRegime(c.Regime)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", c.Name, err)
		}

		src := tickersource.Multi{tickersource.Static{Tickers: c.Tickers}}
		if c.Source.Path != "" {
			file, err := tickersource.New(c.Source.Path, c.Source.Kind, c.Source.Sheet)
			if err != nil {
				return nil, fmt.Errorf("index %s: %w", c.Name, err)
			}
			src = append(src, file)
		}

		raw, err := src.Raw(ctx)
		if err != nil {
			log.Warn("ticker list unavailable",
				logger.String("index", c.Name),
				logger.String("path", c.Source.Path),
				logger.Error(err),
			)
		}

		def, err := models.NewIndexDefinition(c.Name, ticker.NormalizeAll(raw), regime, c.CapFraction)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
