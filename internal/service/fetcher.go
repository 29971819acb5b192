package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/dataview"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// ClientQuery narrows a client list. Sort uses UI field names; a leading
// "-" sorts descending.
type ClientQuery struct {
	scope.Selection
	Sort   string
	Search string
}

// Fetcher issues scoped list requests and serves them through last-good
// snapshots. Scope always comes from the session, never from the route.
type Fetcher struct {
	users     port.UserDirectory
	clients   port.ClientStore
	analytics port.AnalyticsSource

	userViews   *dataview.Registry[domain.User]
	clientViews *dataview.Registry[domain.ClientForm]
	agentViews  *dataview.Registry[domain.AgentPerformance]

	metrics *observability.Metrics
	logger  *zap.Logger
}

// Views bundles the snapshot registries used by the Fetcher.
type Views struct {
	Users   *dataview.Registry[domain.User]
	Clients *dataview.Registry[domain.ClientForm]
	Agents  *dataview.Registry[domain.AgentPerformance]
}

// NewFetcher creates the scoped fetcher.
func NewFetcher(users port.UserDirectory, clients port.ClientStore, analytics port.AnalyticsSource, views Views, metrics *observability.Metrics, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		users:       users,
		clients:     clients,
		analytics:   analytics,
		userViews:   views.Users,
		clientViews: views.Clients,
		agentViews:  views.Agents,
		metrics:     metrics,
		logger:      logger,
	}
}

// Forget drops every snapshot of a session.
func (f *Fetcher) Forget(sessionID string) {
	f.userViews.Forget(sessionID)
	f.clientViews.Forget(sessionID)
	f.agentViews.Forget(sessionID)
}

// Users lists the users visible to the session.
func (f *Fetcher) Users(ctx context.Context, st *session.Store, sel scope.Selection) (domain.Snapshot[domain.User], error) {
	ctx, span := tracer.Start(ctx, "Fetcher.Users")
	defer span.End()

	q, err := f.params(st, sel)
	if err != nil {
		return domain.Snapshot[domain.User]{}, err
	}
	span.SetAttributes(attribute.String("scope", scope.Key(q)))

	list := f.userViews.For(st.ID(), scope.Key(q))
	err = list.Refresh(ctx, func(ctx context.Context) ([]domain.User, error) {
		return f.users.ListUsers(ctx, st.Token(), q)
	})
	return finish(f, list.Snapshot(), "users", err)
}

// Clients lists the clients visible to the session, in UI form.
func (f *Fetcher) Clients(ctx context.Context, st *session.Store, cq ClientQuery) (domain.Snapshot[domain.ClientForm], error) {
	ctx, span := tracer.Start(ctx, "Fetcher.Clients")
	defer span.End()

	q, err := f.params(st, cq.Selection)
	if err != nil {
		return domain.Snapshot[domain.ClientForm]{}, err
	}
	if err := applyClientQuery(q, cq); err != nil {
		return domain.Snapshot[domain.ClientForm]{}, err
	}
	span.SetAttributes(attribute.String("scope", scope.Key(q)))

	list := f.clientViews.For(st.ID(), scope.Key(q))
	err = list.Refresh(ctx, func(ctx context.Context) ([]domain.ClientForm, error) {
		recs, err := f.clients.ListClients(ctx, st.Token(), q)
		if err != nil {
			return nil, err
		}
		return domain.ClientForms(recs), nil
	})
	return finish(f, list.Snapshot(), "clients", err)
}

// AgentPerformance lists per-agent contract counts visible to the session.
func (f *Fetcher) AgentPerformance(ctx context.Context, st *session.Store, sel scope.Selection) (domain.Snapshot[domain.AgentPerformance], error) {
	ctx, span := tracer.Start(ctx, "Fetcher.AgentPerformance")
	defer span.End()

	q, err := f.params(st, sel)
	if err != nil {
		return domain.Snapshot[domain.AgentPerformance]{}, err
	}

	list := f.agentViews.For(st.ID(), scope.Key(q))
	err = list.Refresh(ctx, func(ctx context.Context) ([]domain.AgentPerformance, error) {
		return f.analytics.AgentPerformance(ctx, st.Token(), q)
	})
	return finish(f, list.Snapshot(), "agents", err)
}

func (f *Fetcher) params(st *session.Store, sel scope.Selection) (url.Values, error) {
	if !st.IsAuthenticated() {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	return scope.Params(st.User(), sel)
}

// finish turns a refresh outcome into the response: unauthorized ends the
// request, anything else is served from the snapshot with its error.
func finish[T any](f *Fetcher, snap domain.Snapshot[T], resource string, err error) (domain.Snapshot[T], error) {
	if err == nil {
		return snap, nil
	}
	var unauth *domain.ErrUnauthorized
	if errors.As(err, &unauth) {
		return snap, err
	}
	f.logger.Warn("fetch failed, serving last good data",
		zap.String("resource", resource),
		zap.Int("items", len(snap.Items)),
		zap.Bool("stale", snap.Stale),
		zap.Error(err),
	)
	if snap.Stale {
		f.metrics.IncrStaleServed(resource)
	}
	return snap, nil
}

func applyClientQuery(q url.Values, cq ClientQuery) error {
	if s := strings.TrimSpace(cq.Search); s != "" {
		q.Set("search", s)
	}
	if cq.Sort == "" {
		return nil
	}
	desc := strings.HasPrefix(cq.Sort, "-")
	api, ok := domain.ClientAPIField(strings.TrimPrefix(cq.Sort, "-"))
	if !ok {
		return &domain.ErrValidation{Field: "sort", Message: fmt.Sprintf("cannot sort by %q", cq.Sort)}
	}
	if desc {
		api = "-" + api
	}
	q.Set("sort", api)
	return nil
}
