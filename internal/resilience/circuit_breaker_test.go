// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 10*time.Second, WithClock(clock))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(func() error { return errBoom })
	clock.now = clock.now.Add(11 * time.Second)

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_FailureFilter(t *testing.T) {
	errCaller := errors.New("caller error")
	cb := NewCircuitBreaker("test", 1, time.Minute,
		WithFailureFilter(func(err error) bool { return !errors.Is(err, errCaller) }))

	assert.ErrorIs(t, cb.Execute(func() error { return errCaller }), errCaller)
	assert.Equal(t, StateClosed, cb.State(), "filtered errors must not trip the breaker")

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_EndpointLabels(t *testing.T) {
	cb := NewCircuitBreaker("http", 1, time.Minute, WithEndpoint("https://acme.http.msging.net/commands"))
	assert.Equal(t, "http", cb.labels.Transport)
	assert.Equal(t, "acme.http.msging.net", cb.labels.Endpoint)

	_ = cb.Execute(func() error { return errBoom })
	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}
