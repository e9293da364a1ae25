// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resilience guards outbound transport calls.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/blip-sdk-go/internal/metrics"
)

// State represents the circuit breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Clock abstracts time operations for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CircuitBreaker implements a state machine to prevent hammering an unavailable
// BLiP endpoint.
type CircuitBreaker struct {
	mu           sync.Mutex
	labels       metrics.BreakerLabels
	state        State
	failures     int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	clock        Clock

	// counts reports whether an error returned by the guarded call should count
	// as a failure. Caller errors (bad request, unauthorized) should not trip.
	counts func(error) bool
}

// Option configuration pattern
type Option func(*CircuitBreaker)

func WithClock(c Clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// WithEndpoint labels the breaker's metrics with the host of baseURL.
func WithEndpoint(baseURL string) Option {
	return func(cb *CircuitBreaker) { cb.labels.Endpoint = metrics.EndpointLabel(baseURL) }
}

// WithFailureFilter restricts which errors count towards the threshold.
func WithFailureFilter(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) { cb.counts = fn }
}

// NewCircuitBreaker creates a breaker for the named transport.
func NewCircuitBreaker(transport string, threshold int, resetTimeout time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	cb := &CircuitBreaker{
		labels:       metrics.BreakerLabels{Transport: transport},
		state:        StateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        realClock{},
		counts:       func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(cb)
	}

	metrics.SetBreakerState(cb.labels, string(cb.state))
	metrics.SetBreakerFailures(cb.labels, 0, cb.threshold)
	return cb
}

// Execute runs the given function respecting the breaker state.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && cb.counts(err) {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.openedAt) > cb.resetTimeout {
			cb.transitionTo(StateHalfOpen)
			return true
		}
		metrics.RecordBreakerRejection(cb.labels, string(cb.state))
		return false
	}
	// Half-open lets probes through until one of them settles the state.
	return true
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	metrics.SetBreakerFailures(cb.labels, cb.failures, cb.threshold)

	if cb.state == StateHalfOpen {
		metrics.RecordBreakerTrip(cb.labels, "half_open_failure")
		cb.transitionTo(StateOpen)
		return
	}

	if cb.state == StateClosed && cb.failures >= cb.threshold {
		metrics.RecordBreakerTrip(cb.labels, "threshold_exceeded")
		cb.transitionTo(StateOpen)
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.failures > 0 {
		cb.failures = 0
		metrics.SetBreakerFailures(cb.labels, 0, cb.threshold)
	}
	if cb.state != StateClosed {
		cb.transitionTo(StateClosed)
	}
}

// transitionTo handles state transitions and updates metrics.
// Caller must hold lock.
func (cb *CircuitBreaker) transitionTo(newState State) {
	if cb.state == newState {
		return
	}
	cb.state = newState
	if newState == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	metrics.SetBreakerState(cb.labels, string(newState))
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
