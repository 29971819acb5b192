package main

import (
	"context"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/config"
	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/backend"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/resilience"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.uber.org/zap"
)

// app is everything a command needs, built from the profile.
type app struct {
	profile *config.Profile
	logger  *zap.Logger
	client  *backend.Client
	store   *session.Store
	fetcher *service.Fetcher
	auth    *service.AuthService
	views   service.Views
}

func newApp(ctx context.Context) (*app, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultProfilePath()
	}
	profile, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	if companyArg != "" {
		profile.Company = companyArg
	}

	logger := observability.NewLogger(profile.LogLevel)
	metrics := observability.NewMetrics()

	cb := resilience.NewCircuitBreaker("backend-api", backend.IsUpstreamFailure, nil)
	client := backend.NewClient(profile.BackendURL, profile.Timeout, cb, resilience.Config{
		MaxRetries:     profile.MaxRetries,
		InitialBackoff: 200 * time.Millisecond,
		MaxConcurrency: 4,
	}, metrics, logger)

	opts := []session.Option{session.WithID("cli"), session.WithTTL(7 * 24 * time.Hour)}
	if profile.SessionSecret != "" {
		opts = append(opts, session.WithSealer(session.NewSealer(profile.SessionSecret)))
	}
	store := session.NewStore(session.NewFilePersister(profile.SessionFile), logger, opts...)
	store.Rehydrate(ctx)

	views := service.Views{
		Users:   dataview.NewRegistry[domain.User]("users", time.Minute),
		Clients: dataview.NewRegistry[domain.ClientForm]("clients", time.Minute),
		Agents:  dataview.NewRegistry[domain.AgentPerformance]("agents", time.Minute),
	}
	fetcher := service.NewFetcher(client, client, client, views, metrics, logger)

	return &app{
		profile: profile,
		logger:  logger,
		client:  client,
		store:   store,
		fetcher: fetcher,
		auth:    service.NewAuthService(client, client, client, fileSessions{store: store}, fetcher, "", logger),
		views:   views,
	}, nil
}

func (a *app) Close() {
	a.auth.Close()
	a.views.Users.Close()
	a.views.Clients.Close()
	a.views.Agents.Close()
	_ = a.logger.Sync()
}

// fileSessions starts sessions in the single on-disk store.
type fileSessions struct {
	store *session.Store
}

func (f fileSessions) Start(ctx context.Context, user domain.User, upstreamToken string) (*session.Store, string, time.Time, error) {
	if err := f.store.Login(ctx, user, upstreamToken); err != nil {
		return nil, "", time.Time{}, err
	}
	return f.store, f.store.ID(), time.Now().Add(7 * 24 * time.Hour), nil
}
