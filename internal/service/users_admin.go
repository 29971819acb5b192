package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/realty-portal-bfa/internal/access"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// UserAdmin activates, deactivates and deletes users. Every action loads
// the target first and is confined by access.CanManage.
type UserAdmin struct {
	users  port.UserDirectory
	logger *zap.Logger
}

// NewUserAdmin creates a new user admin service.
func NewUserAdmin(users port.UserDirectory, logger *zap.Logger) *UserAdmin {
	return &UserAdmin{users: users, logger: logger}
}

// Get (GET /api/users/{id}). Anyone outside the actor's company looks
// missing, as the backend would answer.
func (s *UserAdmin) Get(ctx context.Context, st *session.Store, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "UserAdmin.Get")
	defer span.End()

	actor := st.User()
	if actor == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	target, err := s.users.GetUser(ctx, st.Token(), id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !actor.Role.IsGlobal() && target.CompanyID != actor.CompanyID {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return target, nil
}

// SetActive (PATCH /api/users/{id}/status)
func (s *UserAdmin) SetActive(ctx context.Context, st *session.Store, id string, active bool) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "UserAdmin.SetActive")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id), attribute.Bool("active", active))

	actor, err := s.authorize(ctx, st, id, "change this user's status")
	if err != nil {
		return nil, err
	}
	u, err := s.users.SetUserStatus(ctx, st.Token(), id, active)
	if err != nil {
		return nil, fmt.Errorf("set user status: %w", err)
	}
	s.logger.Info("user status changed",
		zap.String("actor_id", actor.ID),
		zap.String("user_id", id),
		zap.Bool("active", active),
	)
	return u, nil
}

// Delete (DELETE /api/users/{id})
func (s *UserAdmin) Delete(ctx context.Context, st *session.Store, id string) error {
	ctx, span := tracer.Start(ctx, "UserAdmin.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	actor, err := s.authorize(ctx, st, id, "delete this user")
	if err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, st.Token(), id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("actor_id", actor.ID), zap.String("user_id", id))
	return nil
}

func (s *UserAdmin) authorize(ctx context.Context, st *session.Store, id, action string) (*domain.User, error) {
	actor := st.User()
	if actor == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	target, err := s.users.GetUser(ctx, st.Token(), id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !access.CanManage(*actor, *target) {
		return nil, &domain.ErrForbidden{Action: action}
	}
	return actor, nil
}
