// Package weighting derives per-constituent index weights under the supported
// regimes. Weights are returned in percent and sum to 100 over the included rows.
package weighting

import (
	"fmt"
	"math"

	"IndexImpact/internal/domain/models"
)

// MaxIterations bounds the capped redistribution loop. A well-formed input
// settles in at most len(rows) passes; the bound only matters for pathological
// floating-point input.
const MaxIterations = 1000

// capTolerance absorbs floating-point drift when comparing a weight to the cap.
const capTolerance = 1e-12

// Input is one constituent to be weighted. A zero MarketCap means none was
// available for the identifier.
type Input struct {
	Identifier models.Identifier
	Price      float64
	MarketCap  float64
}

// Result carries the weights and what happened while computing them.
type Result struct {
	Weights    map[models.Identifier]float64
	Excluded   []models.Identifier
	Iterations int
	Converged  bool
}

// Compute weights rows under regime. The returned error is diagnostic only:
// ErrDegenerateWeighting comes with an empty weight map, ErrNonConvergentCap
// comes with a complete, renormalized allocation.
func Compute(rows []Input, regime models.Regime, capFraction float64) (Result, error) {
	res := Result{Weights: make(map[models.Identifier]float64, len(rows)), Converged: true}

	ids := make([]models.Identifier, 0, len(rows))
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		v := r.Price
		if regime.NeedsMarketCaps() {
			v = r.MarketCap
		}
		if !(v > 0) || math.IsInf(v, 0) {
			res.Excluded = append(res.Excluded, r.Identifier)
			continue
		}
		ids = append(ids, r.Identifier)
		vals = append(vals, v)
	}
	if len(ids) == 0 {
		return res, models.ErrDegenerateWeighting
	}

	weights := proportional(vals)

	var err error
	switch regime {
	case models.RegimePrice, models.RegimeCap:
	case models.RegimeCappedCap:
		if capFraction <= 0 || capFraction >= 1 {
			return res, fmt.Errorf("cap fraction %v outside (0,1)", capFraction)
		}
		weights, res.Iterations, res.Converged = Redistribute(weights, capFraction)
		if !res.Converged {
			err = fmt.Errorf("cap %.4f over %d constituents: %w", capFraction, len(ids), models.ErrNonConvergentCap)
		}
	default:
		return res, fmt.Errorf("unknown regime %q", regime)
	}

	for i, id := range ids {
		res.Weights[id] = weights[i] * 100
	}
	return res, err
}

// Redistribute applies the cap-and-redistribute algorithm to fractional
// weights summing to one. Every weight above capFraction is clamped to it and
// the excess is spread over the weights strictly below the cap in proportion
// to their share, until nothing exceeds the cap. When no weight is left below
// the cap the allocation is renormalized and reported as not converged. The
// result always sums to one.
func Redistribute(weights []float64, capFraction float64) (out []float64, iterations int, converged bool) {
	out = make([]float64, len(weights))
	copy(out, weights)
	if len(out) == 0 {
		return out, 0, true
	}

	converged = true
	for iterations < MaxIterations {
		excess := 0.0
		for i, w := range out {
			if w > capFraction+capTolerance {
				excess += w - capFraction
				out[i] = capFraction
			}
		}
		if excess == 0 {
			break
		}
		iterations++

		belowSum := 0.0
		for _, w := range out {
			if w < capFraction-capTolerance {
				belowSum += w
			}
		}
		if belowSum <= 0 {
			converged = false
			break
		}
		for i, w := range out {
			if w < capFraction-capTolerance {
				out[i] = w + w/belowSum*excess
			}
		}
	}
	if iterations >= MaxIterations {
		converged = false
	}
	return normalize(out), iterations, converged
}

func proportional(vals []float64) []float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v / total
	}
	return out
}

func normalize(ws []float64) []float64 {
	total := 0.0
	for _, w := range ws {
		total += w
	}
	if total <= 0 {
		return ws
	}
	for i := range ws {
		ws[i] /= total
	}
	return ws
}
