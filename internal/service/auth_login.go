package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/access"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Login (POST /api/auth/login)
//
// Exchanges credentials upstream and starts a BFA session. companySlug only
// picks the dashboard to land on.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest, companySlug string) (*domain.SessionResponse, *session.Store, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := form.First(
		form.ValidateEmail("email", req.Email),
		form.Required("password", req.Password),
	); err != nil {
		return nil, nil, err
	}

	resp, err := s.gw.Login(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	span.SetAttributes(
		attribute.String("user.id", resp.User.ID),
		attribute.String("user.role", resp.User.Role.String()),
	)

	if !resp.User.IsActive {
		s.logger.Warn("login: account deactivated", zap.String("user_id", resp.User.ID))
		return nil, nil, &domain.ErrForbidden{Action: "sign in with a deactivated account"}
	}
	if !resp.User.Role.Valid() {
		s.logger.Error("login: backend returned unknown role",
			zap.String("user_id", resp.User.ID),
			zap.String("role", string(resp.User.Role)),
		)
		return nil, nil, &domain.ErrForbidden{Action: "sign in without a portal role"}
	}

	st, token, exp, err := s.sessions.Start(ctx, resp.User, resp.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}

	s.logger.Info("login: session started",
		zap.String("user_id", resp.User.ID),
		zap.String("role", resp.User.Role.String()),
		zap.String("company_id", resp.User.CompanyID),
	)

	return &domain.SessionResponse{
		SessionToken: token,
		ExpiresIn:    int(time.Until(exp).Seconds()),
		User:         resp.User,
		Redirect:     access.DefaultDashboard(resp.User.Role, companySlug),
	}, st, nil
}

// Logout (POST /api/auth/logout)
//
// Always clears the session and always answers with a login route, even
// when the upstream logout fails.
func (s *AuthService) Logout(ctx context.Context, st *session.Store, companySlug string) domain.LogoutResponse {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if token := st.Token(); token != "" {
		if err := s.gw.Logout(ctx, token); err != nil {
			s.logger.Warn("logout: upstream logout failed, clearing session anyway", zap.Error(err))
		}
	}
	if sid := st.ID(); sid != "" {
		s.snapshots.Forget(sid)
	}
	st.Logout(ctx)

	return domain.LogoutResponse{Redirect: access.LoginRoute(companySlug)}
}

// EndSession clears a session whose upstream token was rejected. The
// upstream call is skipped: the token is already dead.
func (s *AuthService) EndSession(ctx context.Context, st *session.Store) {
	if sid := st.ID(); sid != "" {
		s.snapshots.Forget(sid)
	}
	st.Logout(ctx)
}
