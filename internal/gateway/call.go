package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"IndexImpact/internal/domain/models"
	"IndexImpact/internal/domain/repository"
	"IndexImpact/internal/service/breaker"
	pkghttp "IndexImpact/pkg/http"
)

// call runs one provider request through pacing, the provider's breaker and a
// per-call timeout, retrying transient failures with linear backoff.
func call[T any](ctx context.Context, g *Gateway, provider, op string, fn func(context.Context) repository.Result[T]) repository.Result[T] {
	var res repository.Result[T]

	for attempt := 0; attempt <= g.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * g.cfg.RetryBackoff):
			case <-ctx.Done():
				res = repository.Fail[T](fmt.Errorf("%s %s: %w: %w", provider, op, models.ErrProviderUnavailable, ctx.Err()))
				g.metrics.RecordProviderCall(provider, op, false)
				return res
			}
		}

		if err := g.limiter.Wait(ctx, provider); err != nil {
			res = repository.Fail[T](fmt.Errorf("%s %s: %w: %w", provider, op, models.ErrProviderUnavailable, err))
			break
		}

		err := g.breakers.Execute(provider, func() error {
			cctx := ctx
			if g.cfg.FetchTimeout > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, g.cfg.FetchTimeout)
				defer cancel()
			}
			res = fn(cctx)
			return res.Err
		})
		if errors.Is(err, breaker.ErrOpen) {
			res = repository.Fail[T](fmt.Errorf("%s %s: %w: %w", provider, op, models.ErrProviderUnavailable, err))
			break
		}

		if res.OK() || !retryable(res.Err) || ctx.Err() != nil {
			break
		}
	}

	g.metrics.RecordProviderCall(provider, op, res.OK())
	return res
}

func retryable(err error) bool {
	return errors.Is(err, models.ErrProviderUnavailable) && pkghttp.IsTransient(err)
}
