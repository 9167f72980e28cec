// Package upstream translates transport failures from market data providers
// into the domain failure kinds.
package upstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"IndexImpact/internal/domain/models"
	pkghttp "IndexImpact/pkg/http"
)

// Classify maps a request error onto the domain failure kinds so callers can
// tell a missing symbol from a broken provider. The original error stays
// wrapped, so pkghttp.IsTransient still sees it.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var se *pkghttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %w", models.ErrMalformedPayload, err)
	}

	return fmt.Errorf("%w: %w", models.ErrProviderUnavailable, err)
}
