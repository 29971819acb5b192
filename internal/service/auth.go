// Package service holds the use cases of the BFA: scoped fetching, the
// dashboard, authentication, client records, company and user
// administration, invitations and exports. Services take the caller's
// session explicitly and never read identity from anywhere else.
package service

import (
	"context"
	"time"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// SessionStarter opens a new server-side session after login.
type SessionStarter interface {
	Start(ctx context.Context, user domain.User, upstreamToken string) (*session.Store, string, time.Time, error)
}

// SnapshotForgetter drops cached list snapshots of a session.
type SnapshotForgetter interface {
	Forget(sessionID string)
}

// AuthService orchestrates login, logout, password recovery, profile
// maintenance and registration.
type AuthService struct {
	gw          port.AuthGateway
	registrar   port.Registrar
	invitations port.InvitationStore
	sessions    SessionStarter
	snapshots   SnapshotForgetter
	defaultPlan string
	pending     *pendingSignups
	logger      *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	gw port.AuthGateway,
	registrar port.Registrar,
	invitations port.InvitationStore,
	sessions SessionStarter,
	snapshots SnapshotForgetter,
	defaultPlan string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		gw:          gw,
		registrar:   registrar,
		invitations: invitations,
		sessions:    sessions,
		snapshots:   snapshots,
		defaultPlan: defaultPlan,
		pending:     newPendingSignups(),
		logger:      logger,
	}
}

// Close stops background cleanup of parked registrations.
func (s *AuthService) Close() {
	s.pending.flows.Close()
}
