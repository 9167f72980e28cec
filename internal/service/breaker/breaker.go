package breaker

import (
	"errors"
	"sync"
	"time"

	cb "github.com/sony/gobreaker"
)

// ErrOpen is returned while a provider's breaker refuses calls.
var ErrOpen = errors.New("circuit open")

// Settings tune when a provider breaker trips and recovers.
type Settings struct {
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	// IsFailure decides which errors count against the provider. Nil counts all.
	IsFailure func(err error) bool
}

func DefaultSettings() Settings {
	return Settings{
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         20,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
	}
}

// Set keeps one breaker per provider name.
type Set struct {
	mu       sync.Mutex
	settings Settings
	m        map[string]*cb.CircuitBreaker
}

func NewSet(s Settings) *Set {
	return &Set{settings: s, m: make(map[string]*cb.CircuitBreaker)}
}

func (s *Set) get(name string) *cb.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.m[name]; ok {
		return b
	}
	conf := s.settings
	st := cb.Settings{Name: name, Interval: conf.Interval, Timeout: conf.Timeout}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= conf.ConsecutiveFailures {
			return true
		}
		if counts.Requests < conf.MinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > conf.FailureRatio
	}
	if conf.IsFailure != nil {
		st.IsSuccessful = func(err error) bool { return err == nil || !conf.IsFailure(err) }
	}
	b := cb.NewCircuitBreaker(st)
	s.m[name] = b
	return b
}

// Execute runs fn under the named breaker. Open or half-open rejections
// come back as ErrOpen.
func (s *Set) Execute(name string, fn func() error) error {
	_, err := s.get(name).Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State reports the breaker state for a provider, e.g. "closed" or "open".
func (s *Set) State(name string) string {
	return s.get(name).State().String()
}
