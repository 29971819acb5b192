package service

import (
	"context"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BrandingResolver resolves a company slug to its branding. It never fails.
type BrandingResolver interface {
	Resolve(ctx context.Context, slug string) domain.Branding
}

// DashboardService composes the role-scoped dashboard.
type DashboardService struct {
	fetcher  *Fetcher
	branding BrandingResolver
	logger   *zap.Logger
}

// NewDashboardService creates the dashboard composer.
func NewDashboardService(fetcher *Fetcher, branding BrandingResolver, logger *zap.Logger) *DashboardService {
	return &DashboardService{fetcher: fetcher, branding: branding, logger: logger}
}

// Get fetches branding and every panel concurrently. Branding depends only
// on the slug and can never fail the data panels; the panels depend only on
// the session.
func (d *DashboardService) Get(ctx context.Context, st *session.Store, slug string, sel scope.Selection) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Get")
	defer span.End()

	var dash domain.Dashboard

	// Outside the errgroup: a data failure must not cancel branding. The
	// resolver bounds its own wait.
	brandingDone := make(chan struct{})
	go func() {
		defer close(brandingDone)
		dash.Branding = d.branding.Resolve(ctx, slug)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := d.fetcher.Users(gctx, st, sel)
		dash.Users = s
		return err
	})
	g.Go(func() error {
		s, err := d.fetcher.Clients(gctx, st, ClientQuery{Selection: sel, Sort: "-createdAt"})
		dash.Clients = s
		return err
	})
	g.Go(func() error {
		s, err := d.fetcher.AgentPerformance(gctx, st, sel)
		dash.Performance = s
		return err
	})

	err := g.Wait()
	<-brandingDone
	if err != nil {
		return nil, err
	}

	dash.Stats = stats(&dash)
	return &dash, nil
}

func stats(d *domain.Dashboard) domain.DashboardStats {
	s := domain.DashboardStats{
		TotalUsers:   len(d.Users.Items),
		TotalClients: len(d.Clients.Items),
	}
	for _, u := range d.Users.Items {
		if u.IsActive {
			s.ActiveUsers++
		}
	}
	for _, a := range d.Performance.Items {
		s.ContractsPeriod += a.CurrentPeriod
		s.ContractsDelta += a.Change()
	}
	return s
}
