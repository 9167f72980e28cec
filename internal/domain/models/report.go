package models

import "time"

// Direction is the sign of a constituent's impact.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionFlat     Direction = "flat"
)

// DirectionOf maps an impact value to its direction.
func DirectionOf(impact float64) Direction {
	switch {
	case impact > 0:
		return DirectionPositive
	case impact < 0:
		return DirectionNegative
	default:
		return DirectionFlat
	}
}

// WeightedRow is one ranked constituent of an index for a single cycle.
type WeightedRow struct {
	Identifier Identifier `json:"identifier"`
	Price      float64    `json:"price"`
	ReturnPct  float64    `json:"return_pct"`
	WeightPct  float64    `json:"weight_pct"`
	ImpactPct  float64    `json:"impact_pct"`
	Direction  Direction  `json:"direction"`
	Fallback   bool       `json:"fallback,omitempty"`
}

// Coverage counts how many configured constituents made it into the result.
type Coverage struct {
	Expected   int          `json:"expected"`
	Resolved   int          `json:"resolved"`
	Weighted   int          `json:"weighted"`
	Unresolved []Identifier `json:"unresolved,omitempty"`
	// MissingCaps lists resolved identifiers dropped for lack of a market cap.
	MissingCaps []Identifier `json:"missing_caps,omitempty"`
}

// Ratio is resolved over expected, zero for an empty index.
func (c Coverage) Ratio() float64 {
	if c.Expected == 0 {
		return 0
	}
	return float64(c.Resolved) / float64(c.Expected)
}

// Diagnostics surfaces non-fatal conditions met while computing an index.
type Diagnostics struct {
	Degenerate       bool   `json:"degenerate,omitempty"`
	NonConvergentCap bool   `json:"non_convergent_cap,omitempty"`
	CapIterations    int    `json:"cap_iterations,omitempty"`
	Message          string `json:"message,omitempty"`
}

// IndexReport is the output contract for one index.
type IndexReport struct {
	Name         string        `json:"name"`
	Regime       Regime        `json:"regime"`
	CapFraction  float64       `json:"cap_fraction,omitempty"`
	Rows         []WeightedRow `json:"rows"`
	Contribution float64       `json:"contribution_pct"`
	Coverage     Coverage      `json:"coverage"`
	Diagnostics  Diagnostics   `json:"diagnostics"`
}

// Report bundles every index computed in one cycle.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Indices     []IndexReport `json:"indices"`
	Unresolved  []Identifier  `json:"unresolved,omitempty"`
}

// Index returns the report for the named index.
func (r *Report) Index(name string) (IndexReport, bool) {
	if r == nil {
		return IndexReport{}, false
	}
	for _, ir := range r.Indices {
		if ir.Name == name {
			return ir, true
		}
	}
	return IndexReport{}, false
}
