package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/access"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
	"github.com/boddenberg/realty-portal-bfa/internal/tenant"

	"go.uber.org/zap"
)

type contextKey string

const requestSessionKey contextKey = "requestSession"

// SlugHeader carries the company slug of the page the client is on.
const SlugHeader = "X-Company-Slug"

// SessionOpener resolves a session token to a hydrated store.
type SessionOpener interface {
	Open(ctx context.Context, token string) *session.Store
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// requestSession is what the session middleware attaches to a request.
type requestSession struct {
	store  *session.Store
	slug   string
	cookie CookieConfig
	ender  func(ctx context.Context, st *session.Store)
}

func requestSessionFrom(ctx context.Context) *requestSession {
	if rs, ok := ctx.Value(requestSessionKey).(*requestSession); ok {
		return rs
	}
	return &requestSession{store: session.NewStore(nil, zap.NewNop())}
}

// StoreFromContext returns the session store of the request. Requests that
// did not pass the session middleware get an empty store.
func StoreFromContext(ctx context.Context) *session.Store {
	return requestSessionFrom(ctx).store
}

// SlugFromContext returns the company slug of the request, or "".
func SlugFromContext(ctx context.Context) string {
	return requestSessionFrom(ctx).slug
}

func (rs *requestSession) loginRoute() string {
	return access.LoginRoute(rs.slug)
}

// end clears the session and its cookie.
func (rs *requestSession) end(w http.ResponseWriter, r *http.Request) {
	if rs.ender != nil {
		rs.ender(r.Context(), rs.store)
	} else {
		rs.store.Logout(r.Context())
	}
	if rs.cookie.Name != "" {
		clearSessionCookie(w, rs.cookie)
	}
}

// SessionMiddleware hydrates the session named by the cookie or bearer
// token and works out the company slug. Hydration happens before any
// handler runs, so gates never see a pending session.
func SessionMiddleware(sessions SessionOpener, cookie CookieConfig, baseDomain string, ender func(context.Context, *session.Store)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rs := &requestSession{
				store:  sessions.Open(r.Context(), sessionToken(r, cookie.Name)),
				slug:   requestSlug(r, baseDomain),
				cookie: cookie,
				ender:  ender,
			}
			ctx := context.WithValue(r.Context(), requestSessionKey, rs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles gates a route. With no roles any signed-in user passes.
func RequireRoles(metrics *observability.Metrics, logger *zap.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rs := requestSessionFrom(r.Context())
			d := access.Evaluate(rs.store.State(), roles, rs.slug)
			metrics.IncrGateDecision(d.Outcome.String())

			switch d.Outcome {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.Pending:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "session is still loading", domain.ActionRetry)
			case access.RedirectLogin:
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error:    "sign in to continue",
					Action:   domain.ActionLogin,
					Redirect: d.Redirect,
				})
			case access.Denied:
				logger.Debug("gate denied",
					zap.String("path", r.URL.Path),
					zap.String("role", rs.store.User().Role.String()),
				)
				writeJSON(w, http.StatusForbidden, errorResponse{
					Error:    d.Notice,
					Action:   domain.ActionContactAdmin,
					Redirect: d.Redirect,
				})
			}
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// requestSlug prefers the page's route slug, then the subdomain, then the
// leading segment of the referring page.
func requestSlug(r *http.Request, baseDomain string) string {
	referer := ""
	if u, err := url.Parse(r.Referer()); err == nil {
		referer = tenant.SlugFromPath(u.Path)
	}
	for _, candidate := range []string{
		strings.ToLower(strings.TrimSpace(r.Header.Get(SlugHeader))),
		tenant.SlugFromHost(r.Host, baseDomain),
		referer,
	} {
		if tenant.ValidSlug(candidate) {
			return candidate
		}
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string, expires time.Time) {
	if cfg.Name == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
