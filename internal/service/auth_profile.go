package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

// Me (GET /api/users/me)
//
// Refreshes the session user from the backend, so role or company changes
// made since login take effect on the next gate.
func (s *AuthService) Me(ctx context.Context, st *session.Store) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	user, err := s.gw.Me(ctx, st.Token())
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if err := st.ReplaceUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return user, nil
}

// UpdateProfile (PUT /api/users/me)
func (s *AuthService) UpdateProfile(ctx context.Context, st *session.Store, req domain.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.UpdateProfile")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Title = strings.TrimSpace(req.Title)
	if req.Name == "" && req.Email == "" && req.Title == "" {
		return nil, &domain.ErrValidation{Field: "body", Message: "nothing to update"}
	}
	if req.Email != "" {
		if err := form.ValidateEmail("email", req.Email); err != nil {
			return nil, err
		}
	}

	user, err := s.gw.UpdateMe(ctx, st.Token(), req)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := st.ReplaceUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return user, nil
}

// UploadProfilePicture (POST /api/users/me/profile-picture)
func (s *AuthService) UploadProfilePicture(ctx context.Context, st *session.Store, file form.Upload) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.UploadProfilePicture")
	defer span.End()

	if err := form.CheckImage(&file); err != nil {
		return nil, err
	}
	user, err := s.gw.UploadProfilePicture(ctx, st.Token(), file)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}
	if err := st.ReplaceUser(ctx, *user); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return user, nil
}
