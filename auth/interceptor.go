package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/bearerauth/observe"
)

// Authentication outcomes recorded by the Interceptor.
const (
	OutcomeNone         = "none"
	OutcomeSuccess      = "success"
	OutcomeMalformed    = "malformed"
	OutcomeBadSignature = "bad_signature"
	OutcomeExpired      = "expired"
	OutcomeError        = "error"
)

// InterceptorConfig configures the request interceptor.
type InterceptorConfig struct {
	// Authenticator resolves the request credential. Required.
	Authenticator Authenticator

	// Logger receives debug diagnostics about rejected tokens.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Metrics records authentication outcomes.
	// Default: observe.NopMetrics()
	Metrics observe.Metrics
}

// Interceptor runs once per request before routing. It is the only writer
// of the request's identity and never rejects a request itself: a missing or
// invalid token leaves the request unauthenticated for the Gate to judge.
type Interceptor struct {
	authenticator Authenticator
	logger        observe.Logger
	metrics       observe.Metrics
}

// NewInterceptor creates an interceptor.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	return &Interceptor{
		authenticator: cfg.Authenticator,
		logger:        cfg.Logger.With(observe.F("component", "auth.interceptor")),
		metrics:       cfg.Metrics,
	}
}

// Wrap returns middleware that attaches the verified identity to the request
// context and always calls next exactly once.
func (i *Interceptor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := &AuthRequest{Headers: r.Header, Resource: r.URL.Path}

		if !i.authenticator.Supports(ctx, req) {
			i.metrics.RecordAuthentication(ctx, OutcomeNone)
			i.logger.Debug(ctx, "no bearer token", observe.F("uri", r.URL.Path))
			next.ServeHTTP(w, r)
			return
		}

		result, err := i.authenticator.Authenticate(ctx, req)
		switch {
		case err != nil:
			i.metrics.RecordAuthentication(ctx, OutcomeError)
			i.logger.Error(ctx, "authenticator failed",
				observe.F("authenticator", i.authenticator.Name()),
				observe.F("error", err))
		case !result.Authenticated:
			outcome := outcomeOf(result.Error)
			i.metrics.RecordAuthentication(ctx, outcome)
			i.logger.Debug(ctx, "bearer token rejected",
				observe.F("uri", r.URL.Path),
				observe.F("reason", outcome))
		default:
			i.metrics.RecordAuthentication(ctx, OutcomeSuccess)
			i.logger.Debug(ctx, "identity stored in request context",
				observe.F("principal", result.Identity.Principal),
				observe.F("uri", r.URL.Path))
			r = r.WithContext(WithIdentity(ctx, result.Identity))
		}

		next.ServeHTTP(w, r)
	})
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrMalformedToken):
		return OutcomeMalformed
	case errors.Is(err, ErrBadSignature):
		return OutcomeBadSignature
	case errors.Is(err, ErrExpired):
		return OutcomeExpired
	case errors.Is(err, ErrMissingCredentials):
		return OutcomeNone
	default:
		return OutcomeError
	}
}
