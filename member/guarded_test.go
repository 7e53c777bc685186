package member

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/bearerauth/resilience"
)

var errDBDown = errors.New("db down")

type flakyStore struct {
	*MemoryStore
	down  atomic.Bool
	calls atomic.Int32
}

func (s *flakyStore) FindByUsername(ctx context.Context, username string) (*Member, error) {
	s.calls.Add(1)
	if s.down.Load() {
		return nil, errDBDown
	}
	return s.MemoryStore.FindByUsername(ctx, username)
}

type slowStore struct{ *MemoryStore }

func (slowStore) FindByUsername(ctx context.Context, _ string) (*Member, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGuardedStore_BreakerFailsLoginFast(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore()}
	guarded := NewGuardedStore(flaky, GuardConfig{
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: time.Hour,
			IsFailure:    IsStoreFailure,
		}),
	})
	svc, err := NewService(ServiceConfig{Store: guarded, HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := svc.Register(ctx, "alice", "wonderland", "Alice", "ROLE_USER"); err != nil {
		t.Fatal(err)
	}

	flaky.down.Store(true)
	for i := range 3 {
		if _, err := svc.Login(ctx, "alice", "wonderland"); !errors.Is(err, errDBDown) {
			t.Fatalf("Login() #%d error = %v, want %v", i+1, err, errDBDown)
		}
	}
	if guarded.State() != resilience.StateOpen {
		t.Fatalf("State() = %v, want open", guarded.State())
	}

	before := flaky.calls.Load()
	_, err = svc.Login(ctx, "alice", "wonderland")
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("Login() error = %v, want ErrCircuitOpen", err)
	}
	if got := flaky.calls.Load(); got != before {
		t.Errorf("store called %d times while open", got-before)
	}
}

func TestGuardedStore_MissesDoNotOpen(t *testing.T) {
	guarded := NewGuardedStore(NewMemoryStore(), GuardConfig{
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, IsFailure: IsStoreFailure}),
	})
	ctx := context.Background()

	for range 3 {
		if _, err := guarded.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("FindByUsername() error = %v, want ErrNotFound", err)
		}
	}
	m := &Member{Username: "alice"}
	if err := guarded.Create(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := guarded.Create(ctx, &Member{Username: "alice"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}
	if guarded.State() != resilience.StateClosed {
		t.Errorf("State() = %v, want closed", guarded.State())
	}
	if err := guarded.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestGuardedStore_Timeout(t *testing.T) {
	guarded := NewGuardedStore(slowStore{NewMemoryStore()}, GuardConfig{Timeout: 10 * time.Millisecond})

	start := time.Now()
	_, err := guarded.FindByUsername(context.Background(), "alice")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("FindByUsername() error = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("FindByUsername() took %v", elapsed)
	}
}

func TestIsStoreFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotFound, false},
		{ErrDuplicate, false},
		{errDBDown, true},
		{context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		if got := IsStoreFailure(tt.err); got != tt.want {
			t.Errorf("IsStoreFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
