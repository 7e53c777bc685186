// Command bearerauthd serves password login and bearer-token protected
// resources.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jonwraymond/bearerauth/api"
	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/config"
	"github.com/jonwraymond/bearerauth/health"
	"github.com/jonwraymond/bearerauth/member"
	"github.com/jonwraymond/bearerauth/observe"
	"github.com/jonwraymond/bearerauth/resilience"
	"github.com/jonwraymond/bearerauth/secret"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bearerauthd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logOut := logWriter(cfg.Log)
	defer logOut.Close()

	obs, err := observe.NewObserver(ctx, cfg.Observe(version, logOut))
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()
	logger := obs.Logger()

	key, err := cfg.ResolveSigningKey(ctx, secret.NewDefaultResolver())
	if err != nil {
		return err
	}
	codec, err := auth.NewTokenCodec(auth.CodecConfig{Key: key, Algorithm: cfg.SigningAlgorithm})
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	members, err := member.NewService(member.ServiceConfig{Store: store, Logger: logger})
	if err != nil {
		return err
	}
	if err := seedAdmin(ctx, cfg, members); err != nil {
		return err
	}

	policy := api.DefaultPolicy()
	if cfg.PolicyFile != "" {
		if policy, err = config.LoadPolicyFile(cfg.PolicyFile); err != nil {
			return err
		}
	}
	authz, err := auth.NewPolicyAuthorizer(policy)
	if err != nil {
		return err
	}

	mw, metrics, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	agg := health.NewAggregator()
	agg.Register(health.NewPingChecker("token_codec", func(context.Context) error {
		return codec.SelfTest()
	}))
	agg.Register(health.NewPingChecker("member_store", members.Ping))

	handler, err := api.NewHandler(api.Config{
		Issuer:   codec,
		Members:  members,
		TokenTTL: cfg.TokenTTL,
		Interceptor: auth.NewInterceptor(auth.InterceptorConfig{
			Authenticator: auth.NewBearerAuthenticator(codec),
			Logger:        logger,
			Metrics:       metrics,
		}),
		Gate: auth.NewGate(auth.GateConfig{
			Authorizer: authz,
			Logger:     logger,
			Metrics:    metrics,
		}),
		LoginLimiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  cfg.Login.Rate,
			Burst: cfg.Login.Burst,
		}),
		Health:  agg,
		Observe: mw,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	servers := []*http.Server{newServer(cfg.Addr, handler)}
	if cfg.Telemetry.MetricsExporter == "prometheus" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", promhttp.Handler())
		servers = append(servers, newServer(cfg.Telemetry.MetricsAddr, metricsMux))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info(gctx, "listening", observe.F("addr", srv.Addr), observe.F("version", version))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// logWriter returns a rotating file when a log file is configured, else stderr.
func logWriter(cfg config.LogConfig) io.WriteCloser {
	if cfg.File == "" {
		return nopCloser{os.Stderr}
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openStore(ctx context.Context, cfg *config.Config, logger observe.Logger) (member.Store, func(), error) {
	if cfg.DatabaseDSN == "" {
		return member.NewMemoryStore(), func() {}, nil
	}
	db, err := member.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	store := member.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("member: migrate: %w", err)
	}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.Database.BreakerFailures,
		ResetTimeout: cfg.Database.BreakerReset,
		IsFailure:    member.IsStoreFailure,
		OnStateChange: func(from, to resilience.State) {
			logger.Warn(context.Background(), "member store circuit changed",
				observe.F("from", from.String()), observe.F("to", to.String()))
		},
	})
	guarded := member.NewGuardedStore(store, member.GuardConfig{
		Timeout: cfg.Database.Timeout,
		Breaker: breaker,
	})
	return guarded, func() { _ = store.Close() }, nil
}

func seedAdmin(ctx context.Context, cfg *config.Config, members *member.Service) error {
	if cfg.AdminPassword == "" {
		return nil
	}
	_, err := members.Register(ctx, cfg.AdminUsername, cfg.AdminPassword, "administrator", "ROLE_USER", api.RoleAdmin)
	if err != nil && !errors.Is(err, member.ErrDuplicate) {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
