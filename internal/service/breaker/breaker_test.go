package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	s := NewSet(Settings{ConsecutiveFailures: 2, MinRequests: 100, Interval: time.Minute, Timeout: time.Minute})
	boom := errors.New("boom")

	assert.ErrorIs(t, s.Execute("finnhub", func() error { return boom }), boom)
	assert.ErrorIs(t, s.Execute("finnhub", func() error { return boom }), boom)
	assert.Equal(t, "open", s.State("finnhub"))

	called := false
	err := s.Execute("finnhub", func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	// other providers are unaffected
	assert.NoError(t, s.Execute("yahoo", func() error { return nil }))
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	notFound := errors.New("not found")
	st := DefaultSettings()
	st.ConsecutiveFailures = 1
	st.IsFailure = func(err error) bool { return !errors.Is(err, notFound) }
	s := NewSet(st)

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, s.Execute("p", func() error { return notFound }), notFound)
	}
	assert.Equal(t, "closed", s.State("p"))
}
