package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/config"
	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/handler"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/backend"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/cache"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/resilience"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
	"github.com/boddenberg/realty-portal-bfa/internal/tenant"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.SessionSecret == config.DevSessionSecret {
		logger.Warn("using the development session secret, set SESSION_SECRET in production")
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.String("base_domain", cfg.BaseDomain),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Duration("branding_cache_ttl", cfg.BrandingCacheTTL),
		zap.Duration("snapshot_ttl", cfg.SnapshotTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "realty-portal-bfa")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("backend-api", backend.IsUpstreamFailure, func(name string, to gobreaker.State) {
		metrics.SetBreakerState(name, resilience.State(to))
		logger.Warn("circuit breaker state changed", zap.String("breaker", name), zap.String("state", to.String()))
	})

	// --- Backend ---
	backendClient := backend.NewClient(cfg.BackendAPIURL, cfg.HTTPTimeout, cb, resilienceCfg, metrics, logger)

	// --- Sessions ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable yet, sessions will fail until it is", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancelPing()

	sessions := session.NewManager(rdb,
		session.NewSigner(cfg.SessionSecret, cfg.SessionTTL),
		session.NewSealer(cfg.SessionSecret),
		logger,
		func(error) { metrics.IncrHydrationFailure() },
	)

	// --- Tenancy ---
	brandingCache := cache.New[domain.Branding](cfg.BrandingCacheTTL)
	defer brandingCache.Close()
	resolver := tenant.NewResolver(backendClient, brandingCache, cfg.BrandingTimeout, metrics, logger)

	// --- Snapshots ---
	views := service.Views{
		Users:   dataview.NewRegistry[domain.User]("users", cfg.SnapshotTTL),
		Clients: dataview.NewRegistry[domain.ClientForm]("clients", cfg.SnapshotTTL),
		Agents:  dataview.NewRegistry[domain.AgentPerformance]("agents", cfg.SnapshotTTL),
	}
	defer views.Users.Close()
	defer views.Clients.Close()
	defer views.Agents.Close()

	// --- Services ---
	fetcher := service.NewFetcher(backendClient, backendClient, backendClient, views, metrics, logger)
	authSvc := service.NewAuthService(backendClient, backendClient, backendClient, sessions, fetcher, cfg.DefaultPlan, logger)
	defer authSvc.Close()

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Sessions:    sessions,
		Auth:        authSvc,
		Fetcher:     fetcher,
		Dashboard:   service.NewDashboardService(fetcher, resolver, logger),
		Clients:     service.NewClientService(backendClient, logger),
		Companies:   service.NewCompanyService(backendClient, resolver, logger),
		Users:       service.NewUserAdmin(backendClient, logger),
		Invitations: service.NewInvitationService(backendClient, logger),
		Exporter:    service.NewExporter(fetcher),
		Backend:     backendClient,
		Metrics:     metrics,
		Cookie:      handler.CookieConfig{Name: cfg.SessionCookie, Secure: cfg.CookieSecure},
		BaseDomain:  cfg.BaseDomain,
		Logger:      logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
