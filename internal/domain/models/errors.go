package models

import "errors"

var (
	// ErrNotFound marks an identifier with no usable quote or market cap.
	ErrNotFound = errors.New("identifier not found")
	// ErrProviderUnavailable marks a provider call that failed entirely.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedPayload marks a response that could not be interpreted.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrNonConvergentCap is reported when capped redistribution cannot place
	// the excess weight below the cap.
	ErrNonConvergentCap = errors.New("capped weighting did not converge")
	// ErrDegenerateWeighting is reported when every constituent was excluded.
	ErrDegenerateWeighting = errors.New("no constituents left to weight")
)
