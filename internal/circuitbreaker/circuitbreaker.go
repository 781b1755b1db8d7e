// Package circuitbreaker wraps sony/gobreaker with typed results and
// project-wide defaults.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config holds circuit breaker settings.
type Config struct {
	Name          string
	MaxRequests   uint32        // allowed through while half-open
	Interval      time.Duration // counters reset interval while closed
	Timeout       time.Duration // open -> half-open delay
	FailureRatio  float64       // trip when failure ratio reaches this
	MinRequests   uint32        // minimum samples before tripping
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns the defaults used for upstream service boundaries:
// trip after 60% failures over at least 5 requests, retry after 30s.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

// CircuitBreaker is a typed circuit breaker for calls returning T.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: cfg.OnStateChange,
	}

	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs req through the breaker.
func (c *CircuitBreaker[T]) Execute(req func() (T, error)) (T, error) {
	return c.cb.Execute(req)
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

// IsOpen reports whether the breaker is currently rejecting calls.
func (c *CircuitBreaker[T]) IsOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}
