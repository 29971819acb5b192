package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/infra/observability"
	"github.com/boddenberg/realty-portal-bfa/internal/service"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthChecker checks an upstream dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router serves.
type Deps struct {
	Sessions    SessionOpener
	Auth        *service.AuthService
	Fetcher     *service.Fetcher
	Dashboard   *service.DashboardService
	Clients     *service.ClientService
	Companies   *service.CompanyService
	Users       *service.UserAdmin
	Invitations *service.InvitationService
	Exporter    *service.Exporter
	Backend     HealthChecker
	Metrics     *observability.Metrics
	Cookie      CookieConfig
	BaseDomain  string
	Logger      *zap.Logger
}

var (
	staff       = []domain.Role{domain.RoleGlobalAdmin, domain.RoleCompanyAdmin, domain.RoleManager}
	admins      = []domain.Role{domain.RoleGlobalAdmin, domain.RoleCompanyAdmin}
	globalAdmin = []domain.Role{domain.RoleGlobalAdmin}
)

// NewRouter creates the HTTP router with all routes and middleware.
// Routes mirror the backend REST API under /api; every data route is
// gated by role and scoped by the session.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logger := d.Logger

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Backend))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	if d.Sessions == nil {
		return r
	}

	var ender func(context.Context, *session.Store)
	if d.Auth != nil {
		ender = d.Auth.EndSession
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware(d.Sessions, d.Cookie, d.BaseDomain, ender))
		r.Use(timed(d.Metrics))

		gate := func(roles ...domain.Role) func(http.Handler) http.Handler {
			return RequireRoles(d.Metrics, logger, roles...)
		}

		// Public
		r.Get("/companies/{slug}/branding", brandingHandler(d.Companies))
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(d.Auth, d.Cookie, logger))
			r.Post("/logout", authLogoutHandler(d.Auth, d.Cookie))
			r.Post("/register", authRegisterHandler(d.Auth, logger))
			r.Post("/register/{registrationId}/checkout", authRetryCheckoutHandler(d.Auth, logger))
			r.Post("/forgot-password", authForgotPasswordHandler(d.Auth, logger))
			r.Post("/reset-password", authResetPasswordHandler(d.Auth, logger))
		})
		r.Post("/invitations/accept", acceptInvitationHandler(d.Auth, logger))

		// Any signed-in user
		r.Group(func(r chi.Router) {
			r.Use(gate())
			r.Get("/dashboard", dashboardHandler(d.Dashboard, logger))

			r.Get("/users/me", meHandler(d.Auth, logger))
			r.Put("/users/me", updateMeHandler(d.Auth, logger))
			r.Post("/users/me/profile-picture", profilePictureHandler(d.Auth, logger))

			r.Get("/clients", listClientsHandler(d.Fetcher, logger))
			r.Post("/clients", createClientHandler(d.Clients, logger))
			r.Get("/clients/{id}", getClientHandler(d.Clients, logger))
			r.Put("/clients/{id}", updateClientHandler(d.Clients, logger))
			r.Delete("/clients/{id}", deleteClientHandler(d.Clients, logger))
			r.Get("/clients/{id}/pdf", clientPDFHandler(d.Clients, logger))

			r.Get("/analytics/agents", agentPerformanceHandler(d.Fetcher, logger))
			r.Get("/analytics/agents/export", exportAgentsHandler(d.Exporter, logger))
		})

		// Staff
		r.Group(func(r chi.Router) {
			r.Use(gate(staff...))
			r.Get("/users", listUsersHandler(d.Fetcher, logger))
			r.Get("/users/{id}", getUserHandler(d.Users, logger))
			r.Patch("/users/{id}/status", userStatusHandler(d.Users, logger))
			r.Delete("/users/{id}", deleteUserHandler(d.Users, logger))

			r.Get("/invitations", listInvitationsHandler(d.Invitations, logger))
			r.Post("/invitations", createInvitationHandler(d.Invitations, logger))
			r.Post("/invitations/{id}/resend", resendInvitationHandler(d.Invitations, logger))
		})

		// Company administration
		r.With(gate(admins...)).Post("/portal/companies/{id}/upload-logo", uploadLogoHandler(d.Companies, logger))
		r.Group(func(r chi.Router) {
			r.Use(gate(globalAdmin...))
			r.Get("/portal/companies", listCompaniesHandler(d.Companies, logger))
			r.Post("/portal/companies", createCompanyHandler(d.Companies, logger))
			r.Get("/admin/metrics", portalMetricsHandler(d.Metrics))
		})
	})

	return r
}

// timed records request duration by route pattern.
func timed(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			op := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()
			metrics.RecordRequestDuration(op, time.Since(start))
		})
	}
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(backend HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}

		if backend != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			start := time.Now()
			err := backend.Ping(ctx)
			h := domain.ServiceHealth{
				Name:        "backend",
				Status:      "healthy",
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				h.Status = "degraded"
				h.Error = err.Error()
			}
			services = append(services, h)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func portalMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Summary())
	}
}
