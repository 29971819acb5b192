package handler

import (
	"net/http"

	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard & analytics
// ============================================================

func dashboardHandler(dash *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		d, err := dash.Get(ctx, StoreFromContext(ctx), SlugFromContext(ctx), selectionFrom(r))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func agentPerformanceHandler(fetcher *service.Fetcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/agents")
		defer span.End()

		snap, err := fetcher.AgentPerformance(ctx, StoreFromContext(ctx), selectionFrom(r))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func exportAgentsHandler(exporter *service.Exporter, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/analytics/agents/export")
		defer span.End()

		file, err := exporter.AgentPerformance(ctx, StoreFromContext(ctx), selectionFrom(r), r.URL.Query().Get("format"))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeFile(w, file.ContentType, file.Filename, file.Data)
	}
}
