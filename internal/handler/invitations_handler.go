package handler

import (
	"net/http"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Invitations
// ============================================================

func listInvitationsHandler(invitations *service.InvitationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/invitations")
		defer span.End()

		list, err := invitations.List(ctx, StoreFromContext(ctx), selectionFrom(r))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createInvitationHandler(invitations *service.InvitationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/invitations")
		defer span.End()

		var req domain.CreateInvitationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		inv, err := invitations.Invite(ctx, StoreFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, inv)
	}
}

func resendInvitationHandler(invitations *service.InvitationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/invitations/{id}/resend")
		defer span.End()

		inv, err := invitations.Resend(ctx, StoreFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}
