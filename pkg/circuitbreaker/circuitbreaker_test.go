package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errBackend = errors.New("backend down")

func TestOpensAfterMaxFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(2, 10*time.Second, withClock(clock.now))

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errBackend })
		assert.ErrorIs(t, err, errBackend)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestHalfOpenProbeCloses(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := NewCircuitBreaker(0, 5*time.Second, withClock(clock.now), WithStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	_ = cb.Execute(func() error { return errBackend })
	assert.Equal(t, StateOpen, cb.GetState())

	clock.advance(6 * time.Second)
	err := cb.Execute(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(0, 5*time.Second, withClock(clock.now))

	_ = cb.Execute(func() error { return errBackend })
	clock.advance(6 * time.Second)
	_ = cb.Execute(func() error { return errBackend })

	assert.Equal(t, StateOpen, cb.GetState())
}

func TestFailurePredicateIgnoresClientErrors(t *testing.T) {
	errClient := errors.New("bad input")
	cb := NewCircuitBreaker(0, time.Minute, WithFailurePredicate(func(err error) bool {
		return !errors.Is(err, errClient)
	}))

	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return errClient })
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestOldFailuresLeaveWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := NewCircuitBreaker(1, time.Minute, withClock(clock.now), WithWindow(10*time.Second))

	_ = cb.Execute(func() error { return errBackend })
	clock.advance(11 * time.Second)
	_ = cb.Execute(func() error { return errBackend })

	assert.Equal(t, StateClosed, cb.GetState())
}
