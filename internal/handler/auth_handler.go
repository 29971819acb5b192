package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/registration"
	"github.com/boddenberg/realty-portal-bfa/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxMultipartMemory bounds what a multipart form keeps in memory; the
// rest spills to temporary files.
const maxMultipartMemory = 32 << 20

// formFieldsAllowance is the body budget for the text fields of a
// multipart form, on top of its files.
const formFieldsAllowance = 1 << 20

// parseMultipart caps the request body at limit and parses it. On failure
// the error response is already written.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "the upload is too large", domain.ActionFixInput)
			return false
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form", domain.ActionFixInput)
		return false
	}
	return true
}

// ============================================================
// Authentication
// ============================================================

func authLoginHandler(authSvc *service.AuthService, cookie CookieConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, _, err := authSvc.Login(ctx, req, SlugFromContext(ctx))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}

		setSessionCookie(w, cookie, resp.SessionToken, time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second))
		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(authSvc *service.AuthService, cookie CookieConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/logout")
		defer span.End()

		resp := authSvc.Logout(ctx, StoreFromContext(ctx), SlugFromContext(ctx))
		if cookie.Name != "" {
			clearSessionCookie(w, cookie)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authForgotPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/forgot-password")
		defer span.End()

		var req domain.ForgotPasswordRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := authSvc.ForgotPassword(ctx, req); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{
			Message: "If an account exists for that email, a reset link is on its way.",
		})
	}
}

type resetPasswordBody struct {
	domain.ResetPasswordRequest
	ConfirmPassword string `json:"confirmPassword"`
}

func authResetPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/reset-password")
		defer span.End()

		var body resetPasswordBody
		if !decodeJSON(w, r, &body) {
			return
		}
		if err := authSvc.ResetPassword(ctx, body.ResetPasswordRequest, body.ConfirmPassword); err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Password updated. You can sign in now."})
	}
}

// authRegisterHandler takes the whole signup as one multipart form: the
// basic info fields, both agreement PDFs, signature and initials (PNG data
// URLs or stroke JSON) and terms_accepted.
func authRegisterHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/register")
		defer span.End()

		limit := int64(len(registration.RequiredDocuments))*form.MaxDocumentSize + formFieldsAllowance
		if !parseMultipart(w, r, limit) {
			return
		}
		defer r.MultipartForm.RemoveAll()

		req := service.SignupRequest{
			Info: registration.Info{
				Name:            r.FormValue("name"),
				Email:           r.FormValue("email"),
				Phone:           r.FormValue("phone"),
				Password:        r.FormValue("password"),
				ConfirmPassword: r.FormValue("confirm_password"),
				CompanyName:     r.FormValue("company_name"),
				LicenseNumber:   r.FormValue("license_number"),
				Plan:            r.FormValue("plan"),
			},
			Signature:        r.FormValue("signature"),
			Initials:         r.FormValue("initials"),
			SignatureStrokes: r.FormValue("signature_strokes"),
			InitialsStrokes:  r.FormValue("initials_strokes"),
		}
		req.TermsAccepted, _ = strconv.ParseBool(r.FormValue("terms_accepted"))

		for _, field := range registration.RequiredDocuments {
			fhs := r.MultipartForm.File[field]
			if len(fhs) == 0 {
				continue
			}
			u, err := form.ReadUpload(field, fhs[0], form.MaxDocumentSize)
			if err != nil {
				handleServiceError(w, r, err, logger)
				return
			}
			req.Documents = append(req.Documents, *u)
		}

		res, err := authSvc.Register(ctx, req)
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func authRetryCheckoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/register/{registrationId}/checkout")
		defer span.End()

		res, err := authSvc.RetryCheckout(ctx, chi.URLParam(r, "registrationId"))
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type acceptInvitationBody struct {
	Token           string `json:"token"`
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	TermsAccepted   bool   `json:"terms_accepted"`
}

func acceptInvitationHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/invitations/accept")
		defer span.End()

		var body acceptInvitationBody
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := authSvc.AcceptInvitation(ctx, service.InviteAcceptRequest{
			Token: body.Token,
			Info: registration.Info{
				Name:            body.Name,
				Phone:           body.Phone,
				Password:        body.Password,
				ConfirmPassword: body.ConfirmPassword,
			},
			TermsAccepted: body.TermsAccepted,
		})
		if err != nil {
			handleServiceError(w, r, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}
