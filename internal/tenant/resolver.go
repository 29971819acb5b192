package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("tenant")

const cacheName = "branding"

// Resolver resolves slugs to branding with caching and request coalescing.
type Resolver struct {
	lookup  port.CompanyLookup
	cache   port.Cache[domain.Branding]
	group   singleflight.Group
	timeout time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewResolver creates a resolver. Each lookup is bounded by timeout.
func NewResolver(lookup port.CompanyLookup, cache port.Cache[domain.Branding], timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		lookup:  lookup,
		cache:   cache,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve returns the branding for slug, or DefaultBranding when the slug
// is empty, unknown or the lookup fails. Failures are not cached, so the
// next navigation tries again.
func (r *Resolver) Resolve(ctx context.Context, slug string) domain.Branding {
	if slug == "" || !ValidSlug(slug) {
		return domain.DefaultBranding()
	}
	if b, ok := r.cache.Get(slug); ok {
		r.metrics.IncrCacheHit(cacheName)
		return b
	}
	r.metrics.IncrCacheMiss(cacheName)

	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("company.slug", slug))

	ch := r.group.DoChan(slug, func() (any, error) {
		// Detached from the first caller so one cancelled request does not
		// fail everyone sharing this lookup.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		company, err := r.lookup.CompanyBySubdomain(lctx, slug)
		if err != nil {
			return nil, err
		}
		if company == nil || !company.IsActive {
			return nil, &domain.ErrNotFound{Resource: "company", ID: slug}
		}
		b := company.Branding()
		r.cache.Set(slug, b)
		return b, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logFailure(slug, res.Err)
			return domain.DefaultBranding()
		}
		return res.Val.(domain.Branding)
	case <-ctx.Done():
		r.logFailure(slug, ctx.Err())
		return domain.DefaultBranding()
	}
}

// Invalidate drops a cached slug, e.g. after a logo upload.
func (r *Resolver) Invalidate(slug string) {
	r.cache.Delete(slug)
}

func (r *Resolver) logFailure(slug string, err error) {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		r.logger.Debug("tenant: unknown company slug", zap.String("slug", slug))
		return
	}
	r.logger.Warn("tenant: branding lookup failed, using default",
		zap.String("slug", slug),
		zap.Error(err),
	)
}
