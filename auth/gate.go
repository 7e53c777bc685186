package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/bearerauth/observe"
)

// Gate decisions recorded in metrics.
const (
	DecisionAllow        = "allow"
	DecisionUnauthorized = "unauthorized"
	DecisionForbidden    = "forbidden"
)

// GateConfig configures the authorization gate.
type GateConfig struct {
	// Authorizer decides each request. Required.
	Authorizer Authorizer

	// Unauthorized handles requests lacking an identity.
	// Default: UnauthorizedHandler()
	Unauthorized http.Handler

	// Forbidden handles identities lacking an authority.
	// Default: ForbiddenHandler()
	Forbidden http.Handler

	// Logger records denials.
	// Default: observe.NopLogger()
	Logger observe.Logger

	// Metrics records decisions.
	// Default: observe.NopMetrics()
	Metrics observe.Metrics
}

// Gate enforces the route policy after the Interceptor has run.
type Gate struct {
	authorizer   Authorizer
	unauthorized http.Handler
	forbidden    http.Handler
	logger       observe.Logger
	metrics      observe.Metrics
}

// NewGate creates an authorization gate.
func NewGate(cfg GateConfig) *Gate {
	if cfg.Unauthorized == nil {
		cfg.Unauthorized = UnauthorizedHandler()
	}
	if cfg.Forbidden == nil {
		cfg.Forbidden = ForbiddenHandler()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	return &Gate{
		authorizer:   cfg.Authorizer,
		unauthorized: cfg.Unauthorized,
		forbidden:    cfg.Forbidden,
		logger:       cfg.Logger.With(observe.F("component", "auth.gate")),
		metrics:      cfg.Metrics,
	}
}

// Wrap returns middleware that hands denied requests to the matching
// failure handler and stops the chain there.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		err := g.authorizer.Authorize(ctx, &AuthzRequest{
			Subject:  IdentityFromContext(ctx),
			Resource: r.URL.Path,
			Action:   r.Method,
		})

		switch {
		case err == nil:
			g.metrics.RecordDecision(ctx, DecisionAllow)
			next.ServeHTTP(w, r)
		case errors.Is(err, ErrForbidden):
			g.metrics.RecordDecision(ctx, DecisionForbidden)
			g.logger.Info(ctx, "access denied",
				observe.F("principal", PrincipalFromContext(ctx)),
				observe.F("method", r.Method),
				observe.F("uri", r.URL.Path))
			g.forbidden.ServeHTTP(w, r)
		default:
			g.metrics.RecordDecision(ctx, DecisionUnauthorized)
			g.logger.Debug(ctx, "authentication required",
				observe.F("method", r.Method),
				observe.F("uri", r.URL.Path))
			g.unauthorized.ServeHTTP(w, r)
		}
	})
}
