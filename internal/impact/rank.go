// Package impact turns weights and returns into ranked per-constituent
// contributions to an index's return.
package impact

import (
	"sort"

	"IndexImpact/internal/domain/models"
)

// Row is a constituent with its weight already resolved.
type Row struct {
	Identifier models.Identifier
	Price      float64
	ReturnPct  float64
	WeightPct  float64
	Fallback   bool
}

// Rank computes impact_pct = weight_pct * return_pct / 100 for every row and
// orders the result by impact descending, identifier ascending on ties. It is
// total: an empty input yields an empty, non-nil slice.
func Rank(rows []Row) []models.WeightedRow {
	out := make([]models.WeightedRow, 0, len(rows))
	for _, r := range rows {
		imp := r.WeightPct * r.ReturnPct / 100
		out = append(out, models.WeightedRow{
			Identifier: r.Identifier,
			Price:      r.Price,
			ReturnPct:  r.ReturnPct,
			WeightPct:  r.WeightPct,
			ImpactPct:  imp,
			Direction:  models.DirectionOf(imp),
			Fallback:   r.Fallback,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ImpactPct != out[j].ImpactPct {
			return out[i].ImpactPct > out[j].ImpactPct
		}
		return out[i].Identifier < out[j].Identifier
	})
	return out
}

// Contribution sums the impacts of ranked rows: the index return implied by
// the included constituents.
func Contribution(rows []models.WeightedRow) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.ImpactPct
	}
	return total
}

// Top returns at most n leading rows; n <= 0 returns all of them.
func Top(rows []models.WeightedRow, n int) []models.WeightedRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// Leaders returns up to n rows with positive impact, strongest first.
func Leaders(rows []models.WeightedRow, n int) []models.WeightedRow {
	var out []models.WeightedRow
	for _, r := range rows {
		if r.Direction == models.DirectionPositive {
			out = append(out, r)
		}
	}
	return Top(out, n)
}

// Laggards returns up to n rows with negative impact, weakest first.
func Laggards(rows []models.WeightedRow, n int) []models.WeightedRow {
	var out []models.WeightedRow
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Direction == models.DirectionNegative {
			out = append(out, rows[i])
		}
	}
	return Top(out, n)
}
