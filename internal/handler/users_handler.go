package handler

import (
	"net/http"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Users
// ============================================================

func meHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/users/me")
		defer span.End()

		u, err := authSvc.Me(ctx, StoreFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func updateMeHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/users/me")
		defer span.End()

		var req domain.UpdateProfileRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := authSvc.UpdateProfile(ctx, StoreFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func profilePictureHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/users/me/profile-picture")
		defer span.End()

		u, ok := readSingleUpload(w, r, "profile_picture", form.MaxImageSize, logger)
		if !ok {
			return
		}
		user, err := authSvc.UploadProfilePicture(ctx, StoreFromContext(ctx), *u)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func listUsersHandler(fetcher *service.Fetcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/users")
		defer span.End()

		snap, err := fetcher.Users(ctx, StoreFromContext(ctx), selectionFrom(r))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func getUserHandler(users *service.UserAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/users/{id}")
		defer span.End()

		u, err := users.Get(ctx, StoreFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func userStatusHandler(users *service.UserAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /api/users/{id}/status")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("user.id", id))

		var req domain.UserStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := users.SetActive(ctx, StoreFromContext(ctx), id, req.IsActive)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(users *service.UserAdmin, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/users/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := users.Delete(ctx, StoreFromContext(ctx), id); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "user deleted", ID: id})
	}
}

// readSingleUpload reads one file field from a multipart request.
func readSingleUpload(w http.ResponseWriter, r *http.Request, field string, limit int64, logger *zap.Logger) (*form.Upload, bool) {
	if !parseMultipart(w, r, limit+formFieldsAllowance) {
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	fhs := r.MultipartForm.File[field]
	if len(fhs) == 0 {
		handleServiceError(w, r, &domain.ErrFileConstraint{Field: field, Reason: "no file selected"}, logger)
		return nil, false
	}
	u, err := form.ReadUpload(field, fhs[0], limit)
	if err != nil {
		handleServiceError(w, r, err, logger)
		return nil, false
	}
	return u, true
}
