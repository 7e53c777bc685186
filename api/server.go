package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/health"
	"github.com/jonwraymond/bearerauth/observe"
	"github.com/jonwraymond/bearerauth/resilience"
)

// TokenIssuer signs identities into bearer tokens.
type TokenIssuer interface {
	Issue(id auth.Identity, ttl time.Duration) (string, error)
}

// LoginService checks a username and password.
type LoginService interface {
	Login(ctx context.Context, username, password string) (auth.Identity, error)
}

// Config wires the handler's collaborators.
type Config struct {
	// Issuer signs tokens for successful logins. Required.
	Issuer TokenIssuer

	// Members checks credentials. Required.
	Members LoginService

	// TokenTTL is the lifetime of issued tokens. Required.
	TokenTTL time.Duration

	// Interceptor attaches identities to requests. Required.
	Interceptor *auth.Interceptor

	// Gate enforces the route policy. Required.
	Gate *auth.Gate

	// LoginLimiter throttles login attempts per client.
	// Default: no limit
	LoginLimiter *resilience.RateLimiter

	// Health serves the probe endpoints.
	// Default: an empty aggregator
	Health *health.Aggregator

	// Observe instruments every request.
	// Default: no instrumentation
	Observe *observe.Middleware

	// Logger records login outcomes.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// NewHandler builds the service handler:
//
//	observe -> interceptor -> gate -> mux
func NewHandler(cfg Config) (http.Handler, error) {
	switch {
	case cfg.Issuer == nil:
		return nil, errors.New("api: issuer is required")
	case cfg.Members == nil:
		return nil, errors.New("api: login service is required")
	case cfg.TokenTTL <= 0:
		return nil, errors.New("api: token ttl must be positive")
	case cfg.Interceptor == nil || cfg.Gate == nil:
		return nil, errors.New("api: interceptor and gate are required")
	}
	if cfg.Health == nil {
		cfg.Health = health.NewAggregator()
	}
	if cfg.Observe == nil {
		cfg.Observe = observe.NewMiddleware(nil, nil, nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	login := &loginHandler{
		issuer:  cfg.Issuer,
		members: cfg.Members,
		ttl:     cfg.TokenTTL,
		logger:  cfg.Logger.With(observe.F("component", "api.login")),
	}
	var loginRoute http.Handler = login
	if cfg.LoginLimiter != nil {
		loginRoute = cfg.LoginLimiter.Middleware(resilience.ClientIP, login)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/hello", hello)
	mux.HandleFunc("GET /api/v1", hello)
	mux.HandleFunc("GET /api/v1/me", me)
	mux.HandleFunc("GET /api/v1/admin", admin)
	mux.Handle("POST /api/authenticate", loginRoute)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	health.RegisterHandlers(mux, cfg.Health)

	chain := auth.Chain(mux, cfg.Interceptor.Wrap, cfg.Gate.Wrap)
	return cfg.Observe.WrapRouted(routeOf(mux), chain), nil
}

// routeOf names requests by their mux pattern so metrics stay bounded.
func routeOf(mux *http.ServeMux) func(*http.Request) string {
	return func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return "unmatched"
	}
}
