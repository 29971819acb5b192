package handler

import (
	"net/http"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Companies & branding
// ============================================================

// brandingHandler always answers 200: unknown companies get the default
// branding.
func brandingHandler(companies *service.CompanyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/companies/{slug}/branding")
		defer span.End()

		w.Header().Set("Cache-Control", "public, max-age=60")
		writeJSON(w, http.StatusOK, companies.Branding(ctx, chi.URLParam(r, "slug")))
	}
}

func listCompaniesHandler(companies *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/portal/companies")
		defer span.End()

		list, err := companies.List(ctx, StoreFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createCompanyHandler(companies *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/portal/companies")
		defer span.End()

		var req domain.CreateCompanyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := companies.Create(ctx, StoreFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func uploadLogoHandler(companies *service.CompanyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/portal/companies/{id}/upload-logo")
		defer span.End()

		u, ok := readSingleUpload(w, r, "logo", form.MaxImageSize, logger)
		if !ok {
			return
		}
		c, err := companies.UploadLogo(ctx, StoreFromContext(ctx), chi.URLParam(r, "id"), *u)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
