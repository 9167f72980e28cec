package models

import (
	"fmt"
	"math"
	"time"
)

// Quote holds the latest and reference price of one identifier.
type Quote struct {
	Identifier     Identifier `json:"identifier"`
	LastPrice      float64    `json:"last_price"`
	ReferencePrice float64    `json:"reference_price"`
	// Fallback is set when the provider had no usable last price and the
	// reference price was substituted, which yields a zero return.
	Fallback  bool      `json:"fallback,omitempty"`
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewQuote validates both prices. A quote is never built from a zero, negative
// or non-finite price.
func NewQuote(id Identifier, last, reference float64) (Quote, error) {
	if id.IsEmpty() {
		return Quote{}, fmt.Errorf("empty identifier: %w", ErrNotFound)
	}
	if !UsablePrice(last) || !UsablePrice(reference) {
		return Quote{}, fmt.Errorf("%s: last=%v reference=%v: %w", id, last, reference, ErrMalformedPayload)
	}
	return Quote{Identifier: id, LastPrice: last, ReferencePrice: reference}, nil
}

// ReturnPct is the percentage change from the reference price to the last price.
func (q Quote) ReturnPct() float64 {
	return (q.LastPrice - q.ReferencePrice) / q.ReferencePrice * 100
}

// MarketCap is the capitalization of one identifier. A zero Capitalization
// means the provider reported none.
type MarketCap struct {
	Identifier     Identifier `json:"identifier"`
	Capitalization float64    `json:"capitalization"`
}

// Usable reports whether the capitalization can take part in cap weighting.
func (m MarketCap) Usable() bool { return UsablePrice(m.Capitalization) }

// UsablePrice reports whether v is a finite, strictly positive amount.
func UsablePrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
