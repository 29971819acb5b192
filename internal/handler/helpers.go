package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/registration"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// errorResponse always tells the client what it can do next.
type errorResponse struct {
	Error          string `json:"error"`
	Action         string `json:"action"`
	Field          string `json:"field,omitempty"`
	Redirect       string `json:"redirect,omitempty"`
	Step           string `json:"step,omitempty"`
	RegistrationID string `json:"registration_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, action string) {
	writeJSON(w, status, errorResponse{Error: msg, Action: action})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", domain.ActionFixInput)
		return false
	}
	return true
}

func selectionFrom(r *http.Request) scope.Selection {
	q := r.URL.Query()
	return scope.Selection{
		CompanyID: strings.TrimSpace(q.Get("company_id")),
		AgentID:   strings.TrimSpace(q.Get("agent_id")),
	}
}

// handleServiceError maps domain errors to HTTP responses. An unauthorized
// answer from anywhere ends the session and points at the login route.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var fileConstraint *domain.ErrFileConstraint
	var expired *domain.ErrExpired
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	status := http.StatusInternalServerError
	body := errorResponse{Error: err.Error(), Action: domain.ActionRetry}

	switch {
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		rs := requestSessionFrom(r.Context())
		rs.end(w, r)
		status = http.StatusUnauthorized
		body.Action = domain.ActionLogin
		body.Redirect = rs.loginRoute()
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		status = http.StatusBadRequest
		body = errorResponse{Error: validation.Message, Action: domain.ActionFixInput, Field: validation.Field}
	case errors.As(err, &fileConstraint):
		logger.Debug("file rejected", zap.String("error", err.Error()))
		status = http.StatusBadRequest
		body = errorResponse{Error: fileConstraint.Reason, Action: domain.ActionFixInput, Field: fileConstraint.Field}
	case errors.As(err, &expired):
		logger.Debug("expired link", zap.String("error", err.Error()))
		status = http.StatusGone
		body.Error = expired.Error()
		body.Action = domain.ActionRequestNewLink
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		status = http.StatusNotFound
		body.Action = domain.ActionContactAdmin
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		status = http.StatusConflict
		body.Error = conflict.Message
		body.Action = domain.ActionFixInput
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		status = http.StatusForbidden
		body.Action = domain.ActionContactAdmin
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		status = http.StatusServiceUnavailable
		body.Error = "the service is temporarily unavailable, try again shortly"
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		status = http.StatusGatewayTimeout
		body.Error = "the request took too long, try again"
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.Error(err))
		status = http.StatusBadGateway
		body.Error = "the backend could not complete the request"
	default:
		logger.Error("unhandled error", zap.Error(err))
		body.Error = "internal server error"
	}

	var signup *service.SignupFailure
	var failed *domain.ErrStepFailed
	if errors.As(err, &signup) {
		reason := body.Error
		if external != nil {
			reason = external.Err.Error()
		} else if status == http.StatusInternalServerError && errors.As(err, &failed) && failed.Err != nil {
			reason = failed.Err.Error()
		}
		body.Error = stepFailureMessage(signup.Step, reason)
		body.Step = signup.Step
		body.RegistrationID = signup.PendingID
	}

	writeJSON(w, status, body)
}

// stepFailureMessage names the signup step that failed and the reason
// reported for it.
func stepFailureMessage(step, reason string) string {
	switch step {
	case registration.StepCheckout:
		return "payment checkout could not be started: " + reason
	case registration.StepRegistration:
		return "registration failed: " + reason
	default:
		return step + " failed: " + reason
	}
}
