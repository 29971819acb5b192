package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"

	"go.uber.org/zap"
)

// ForgotPassword (POST /api/auth/forgot-password)
//
// Unknown addresses answer like known ones so the endpoint cannot be used
// to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := form.ValidateEmail("email", req.Email); err != nil {
		return err
	}

	err := s.gw.ForgotPassword(ctx, req)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		s.logger.Debug("forgot password: unknown email", zap.String("email", maskEmail(req.Email)))
		return nil
	}
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword (POST /api/auth/reset-password)
//
// A rejected or unknown token is reported as expired so the caller can
// offer to send a new link.
func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest, confirmation string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if strings.TrimSpace(req.Token) == "" {
		return &domain.ErrExpired{Resource: "reset link"}
	}
	if err := form.ValidatePasswordPair(req.NewPassword, confirmation); err != nil {
		return err
	}

	err := s.gw.ResetPassword(ctx, req)
	var (
		nf      *domain.ErrNotFound
		expired *domain.ErrExpired
		unauth  *domain.ErrUnauthorized
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &nf), errors.As(err, &expired), errors.As(err, &unauth):
		return &domain.ErrExpired{Resource: "reset link"}
	}
	return fmt.Errorf("reset password: %w", err)
}

func maskEmail(email string) string {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || len(local) == 0 {
		return "***"
	}
	return local[:1] + "***@" + domainPart
}
