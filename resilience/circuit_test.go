package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBreaker(maxFailures int, reset time.Duration) (*CircuitBreaker, *manualClock) {
	clock := &manualClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  maxFailures,
		ResetTimeout: reset,
		Clock:        clock.Now,
	})
	return cb, clock
}

func fail(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
	if cb.config.MaxFailures != 5 {
		t.Errorf("MaxFailures = %d, want 5", cb.config.MaxFailures)
	}
	if cb.config.ResetTimeout != 30*time.Second {
		t.Errorf("ResetTimeout = %v, want 30s", cb.config.ResetTimeout)
	}
	if cb.config.HalfOpenMaxRequests != 1 {
		t.Errorf("HalfOpenMaxRequests = %d, want 1", cb.config.HalfOpenMaxRequests)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, time.Second)
	ctx := context.Background()
	errDown := errors.New("down")

	for i := range 3 {
		if err := cb.Execute(ctx, fail(errDown)); !errors.Is(err, errDown) {
			t.Fatalf("Execute() #%d error = %v, want %v", i+1, err, errDown)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	err := cb.Execute(ctx, func(context.Context) error {
		t.Error("op called while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() while open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Second)
	ctx := context.Background()
	errDown := errors.New("down")

	_ = cb.Execute(ctx, fail(errDown))
	_ = cb.Execute(ctx, fail(nil))
	_ = cb.Execute(ctx, fail(errDown))

	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	errDown := errors.New("down")
	ctx := context.Background()

	t.Run("trial success closes", func(t *testing.T) {
		cb, clock := newTestBreaker(1, time.Second)
		_ = cb.Execute(ctx, fail(errDown))

		clock.Advance(time.Second)
		if cb.State() != StateHalfOpen {
			t.Fatalf("State() = %v, want half-open", cb.State())
		}
		if err := cb.Execute(ctx, fail(nil)); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if cb.State() != StateClosed {
			t.Errorf("State() = %v, want closed", cb.State())
		}
	})

	t.Run("trial failure reopens", func(t *testing.T) {
		cb, clock := newTestBreaker(1, time.Second)
		_ = cb.Execute(ctx, fail(errDown))

		clock.Advance(time.Second)
		_ = cb.Execute(ctx, fail(errDown))
		if cb.State() != StateOpen {
			t.Fatalf("State() = %v, want open", cb.State())
		}
		clock.Advance(500 * time.Millisecond)
		if cb.State() != StateOpen {
			t.Errorf("State() = %v, want open until a full reset timeout passes", cb.State())
		}
	})

	t.Run("trial slots are limited", func(t *testing.T) {
		cb, clock := newTestBreaker(1, time.Second)
		_ = cb.Execute(ctx, fail(errDown))
		clock.Advance(time.Second)

		release := make(chan struct{})
		started := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			done <- cb.Execute(ctx, func(context.Context) error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started

		if err := cb.Execute(ctx, fail(nil)); !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("second trial error = %v, want ErrCircuitOpen", err)
		}
		close(release)
		if err := <-done; err != nil {
			t.Errorf("first trial error = %v", err)
		}
	})
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	errIgnored := errors.New("not found")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, errIgnored) },
	})

	for range 3 {
		_ = cb.Execute(context.Background(), fail(errIgnored))
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OnStateChangeAndReset(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Clock:        clock.Now,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), fail(errors.New("down")))
	clock.Advance(time.Second)
	_ = cb.State()
	cb.Reset()

	want := []string{"closed>open", "open>half-open", "half-open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
