package models

import (
	"fmt"
	"strings"
)

// Regime selects how an index weights its constituents.
type Regime string

const (
	RegimePrice     Regime = "price"
	RegimeCap       Regime = "cap"
	RegimeCappedCap Regime = "capped-cap"
)

// ParseRegime accepts the configuration spelling of a regime.
func ParseRegime(s string) (Regime, error) {
	switch r := Regime(strings.ToLower(strings.TrimSpace(s))); r {
	case RegimePrice, RegimeCap, RegimeCappedCap:
		return r, nil
	default:
		return "", fmt.Errorf("unknown weighting regime %q", s)
	}
}

// NeedsMarketCaps reports whether the regime weights by capitalization.
func (r Regime) NeedsMarketCaps() bool {
	return r == RegimeCap || r == RegimeCappedCap
}

// IndexDefinition is an immutable description of one configured index.
type IndexDefinition struct {
	name         string
	constituents []Identifier
	regime       Regime
	capFraction  float64
}

// NewIndexDefinition validates the regime/cap combination and copies the
// constituent list so later mutation by the caller has no effect.
func NewIndexDefinition(name string, constituents []Identifier, regime Regime, capFraction float64) (IndexDefinition, error) {
	if strings.TrimSpace(name) == "" {
		return IndexDefinition{}, fmt.Errorf("index name is required")
	}
	switch regime {
	case RegimePrice, RegimeCap:
		capFraction = 0
	case RegimeCappedCap:
		if capFraction <= 0 || capFraction >= 1 {
			return IndexDefinition{}, fmt.Errorf("index %s: cap fraction must be in (0,1), got %v", name, capFraction)
		}
	default:
		return IndexDefinition{}, fmt.Errorf("index %s: unknown regime %q", name, regime)
	}
	cs := make([]Identifier, len(constituents))
	copy(cs, constituents)
	return IndexDefinition{name: name, constituents: cs, regime: regime, capFraction: capFraction}, nil
}

func (d IndexDefinition) Name() string         { return d.name }
func (d IndexDefinition) Regime() Regime       { return d.regime }
func (d IndexDefinition) CapFraction() float64 { return d.capFraction }

// Constituents returns a copy of the constituent set.
func (d IndexDefinition) Constituents() []Identifier {
	out := make([]Identifier, len(d.constituents))
	copy(out, d.constituents)
	return out
}
