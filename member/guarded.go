package member

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/bearerauth/resilience"
)

// GuardConfig configures a GuardedStore.
type GuardConfig struct {
	// Timeout bounds each store call.
	// Default: 3 seconds
	Timeout time.Duration

	// Breaker rejects calls after repeated store failures.
	// Default: a breaker counting only IsStoreFailure errors.
	Breaker *resilience.CircuitBreaker
}

// GuardedStore bounds every call to an underlying Store with a timeout and a
// circuit breaker, so an unavailable database fails logins fast.
type GuardedStore struct {
	store   Store
	timeout time.Duration
	breaker *resilience.CircuitBreaker
}

// NewGuardedStore wraps store.
func NewGuardedStore(store Store, cfg GuardConfig) *GuardedStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Breaker == nil {
		cfg.Breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{IsFailure: IsStoreFailure})
	}
	return &GuardedStore{store: store, timeout: cfg.Timeout, breaker: cfg.Breaker}
}

// IsStoreFailure reports whether err indicates an unhealthy store. Lookups
// that miss and duplicate usernames are answers, not failures.
func IsStoreFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate)
}

// FindByUsername implements Store.
func (g *GuardedStore) FindByUsername(ctx context.Context, username string) (*Member, error) {
	var m *Member
	err := g.do(ctx, func(ctx context.Context) error {
		var err error
		m, err = g.store.FindByUsername(ctx, username)
		return err
	})
	return m, err
}

// Create implements Store.
func (g *GuardedStore) Create(ctx context.Context, m *Member) error {
	return g.do(ctx, func(ctx context.Context) error {
		return g.store.Create(ctx, m)
	})
}

// Ping implements Store.
func (g *GuardedStore) Ping(ctx context.Context) error {
	return g.do(ctx, g.store.Ping)
}

// State returns the breaker state.
func (g *GuardedStore) State() resilience.State {
	return g.breaker.State()
}

func (g *GuardedStore) do(ctx context.Context, op func(context.Context) error) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return op(ctx)
	})
}

var _ Store = (*GuardedStore)(nil)
