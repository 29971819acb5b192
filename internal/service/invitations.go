package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/access"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
	"github.com/boddenberg/realty-portal-bfa/internal/session"

	"go.uber.org/zap"
)

// InvitationService sends and lists invitations. Acceptance runs through
// AuthService.AcceptInvitation since it is a signup.
type InvitationService struct {
	invitations port.InvitationStore
	logger      *zap.Logger
}

// NewInvitationService creates a new invitation service.
func NewInvitationService(invitations port.InvitationStore, logger *zap.Logger) *InvitationService {
	return &InvitationService{invitations: invitations, logger: logger}
}

// List (GET /api/invitations), scoped like every other list.
func (s *InvitationService) List(ctx context.Context, st *session.Store, sel scope.Selection) ([]domain.Invitation, error) {
	ctx, span := tracer.Start(ctx, "InvitationService.List")
	defer span.End()

	user := st.User()
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	if user.Role == domain.RoleAgent {
		return nil, &domain.ErrForbidden{Action: "view invitations"}
	}
	q, err := scope.Params(user, scope.Selection{CompanyID: sel.CompanyID})
	if err != nil {
		return nil, err
	}
	out, err := s.invitations.ListInvitations(ctx, st.Token(), q)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	if out == nil {
		out = []domain.Invitation{}
	}
	return out, nil
}

// Invite (POST /api/invitations). Invitations only go down the hierarchy
// and, below global admin, only into the inviter's own company.
func (s *InvitationService) Invite(ctx context.Context, st *session.Store, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Invite")
	defer span.End()

	user := st.User()
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := form.ValidateEmail("email", req.Email); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		return nil, &domain.ErrValidation{Field: "role", Message: "unknown role"}
	}
	req.Role = role
	if !access.CanInvite(user.Role, role) {
		return nil, &domain.ErrForbidden{Action: "invite a " + role.String()}
	}

	if user.Role.IsGlobal() {
		req.CompanyID = strings.TrimSpace(req.CompanyID)
		if req.CompanyID == "" {
			return nil, &domain.ErrValidation{Field: "company_id", Message: "choose the company to invite into"}
		}
	} else {
		if user.CompanyID == "" {
			return nil, &domain.ErrForbidden{Action: "invite without a company"}
		}
		req.CompanyID = user.CompanyID
	}

	inv, err := s.invitations.CreateInvitation(ctx, st.Token(), req)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	s.logger.Info("invitation sent",
		zap.String("invitation_id", inv.ID),
		zap.String("role", role.String()),
		zap.String("company_id", req.CompanyID),
		zap.String("inviter_id", user.ID),
	)
	return inv, nil
}

// Resend (POST /api/invitations/{id}/resend). The backend bumps send_count.
// Below global admin only invitations into the actor's own company can be
// resent; any other id reads as not found.
func (s *InvitationService) Resend(ctx context.Context, st *session.Store, id string) (*domain.Invitation, error) {
	ctx, span := tracer.Start(ctx, "InvitationService.Resend")
	defer span.End()

	user := st.User()
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	if user.Role == domain.RoleAgent {
		return nil, &domain.ErrForbidden{Action: "resend invitations"}
	}
	if !user.Role.IsGlobal() {
		if err := s.ownInvitation(ctx, st, user, id); err != nil {
			return nil, err
		}
	}
	inv, err := s.invitations.ResendInvitation(ctx, st.Token(), id)
	if err != nil {
		return nil, fmt.Errorf("resend invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationService) ownInvitation(ctx context.Context, st *session.Store, user *domain.User, id string) error {
	q, err := scope.Params(user, scope.Selection{})
	if err != nil {
		return err
	}
	list, err := s.invitations.ListInvitations(ctx, st.Token(), q)
	if err != nil {
		return fmt.Errorf("resend invitation: %w", err)
	}
	for _, inv := range list {
		if inv.ID == id && inv.CompanyID == user.CompanyID {
			return nil
		}
	}
	s.logger.Warn("resend refused outside the actor's company",
		zap.String("invitation_id", id),
		zap.String("actor_id", user.ID),
		zap.String("company_id", user.CompanyID),
	)
	return &domain.ErrNotFound{Resource: "invitation", ID: id}
}
