package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/lpdash/internal/api"
	"github.com/patrickwarner/lpdash/internal/config"
	"github.com/patrickwarner/lpdash/internal/db"
	"github.com/patrickwarner/lpdash/internal/ga4"
	"github.com/patrickwarner/lpdash/internal/middleware"
	"github.com/patrickwarner/lpdash/internal/observability"
	"github.com/patrickwarner/lpdash/internal/ratelimit"
	"github.com/patrickwarner/lpdash/internal/reporting"
	"github.com/patrickwarner/lpdash/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, observability.TracingOptions{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.TempoEndpoint,
			SampleRate:  cfg.TracingSampleRate,
			Environment: cfg.Environment,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	if cfg.StateSecret == "" {
		return errors.New("STATE_SECRET must be set")
	}

	store, err := db.InitRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	client := ga4.NewClient(ga4.Options{
		PropertyID: cfg.GA4PropertyID,
		BaseURL:    cfg.GA4APIBaseURL,
		Timeout:    cfg.GA4RequestTimeout,
		Logger:     logger,
		Metrics:    metricsRegistry,
	})
	aggregator := reporting.NewAggregator(client, logger, metricsRegistry, reporting.Options{
		Conversion: conversionFor(cfg.SourceConversionMode),
	})
	sessions := session.NewManager(session.NewRedisStore(store), session.Options{
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		RedirectURL:   cfg.OAuthRedirectURL,
		StateSecret:   []byte(cfg.StateSecret),
		StateTTL:      cfg.StateTTL,
		SessionTTL:    cfg.SessionTTL,
		RefreshWindow: cfg.TokenRefreshWindow,
		Logger:        logger,
		Metrics:       metricsRegistry,
	})

	srvDeps := api.NewServer(logger, aggregator, sessions, metricsRegistry, cfg)
	srvDeps.Ready = store.Ping
	if cfg.RateLimitEnabled {
		limiter := ratelimit.NewSessionLimiter(ratelimit.Config{
			Capacity:  cfg.RateLimitCapacity,
			PerMinute: cfg.RateLimitPerMinute,
			Enabled:   true,
		}, "dashboard", metricsRegistry)
		limiter.StartCleanup(ctx, 10*time.Minute, 30*time.Minute)
		srvDeps.Limiter = limiter
	}

	r := srvDeps.Routes()
	r.Use(middleware.WithTraceLogger(logger), middleware.AccessLog(logger))
	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.ServiceName),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Dashboard server running",
		zap.String("addr", addr),
		zap.String("property_id", client.PropertyID()),
		zap.String("source_conversion", cfg.SourceConversionMode))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// conversionFor maps SOURCE_CONVERSION_MODE onto a conversion strategy.
func conversionFor(mode string) reporting.ConversionFunc {
	if mode == config.SourceConversionPlaceholder {
		return reporting.PlaceholderConversion(nil)
	}
	return reporting.ComputedConversion
}
