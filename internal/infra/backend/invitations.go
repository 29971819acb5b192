package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// ListInvitations lists invitations matching the scope query.
func (c *Client) ListInvitations(ctx context.Context, token string, q url.Values) ([]domain.Invitation, error) {
	var out []domain.Invitation
	_, err := c.do(ctx, call{
		op: "ListInvitations", method: http.MethodGet, path: "/api/invitations",
		token: token, query: q, result: &out, idempotent: true, resource: "invitations",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Invitation{}
	}
	return out, nil
}

// CreateInvitation sends a new invitation email.
func (c *Client) CreateInvitation(ctx context.Context, token string, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	var out domain.Invitation
	_, err := c.do(ctx, call{
		op: "CreateInvitation", method: http.MethodPost, path: "/api/invitations",
		token: token, body: req, result: &out, resource: "invitation",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendInvitation sends the email again; the backend bumps send_count.
func (c *Client) ResendInvitation(ctx context.Context, token, id string) (*domain.Invitation, error) {
	var out domain.Invitation
	_, err := c.do(ctx, call{
		op: "ResendInvitation", method: http.MethodPost, path: "/api/invitations/" + url.PathEscape(id) + "/resend",
		token: token, result: &out, resource: "invitation", id: id,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvitation turns an invitation token into an account.
func (c *Client) AcceptInvitation(ctx context.Context, req domain.AcceptInvitationRequest) (*domain.RegisterResponse, error) {
	var out domain.RegisterResponse
	_, err := c.do(ctx, call{
		op: "AcceptInvitation", method: http.MethodPost, path: "/api/invitations/accept",
		body: req, result: &out, resource: "invitation",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AgentPerformance returns contract counts per agent for the scope query.
func (c *Client) AgentPerformance(ctx context.Context, token string, q url.Values) ([]domain.AgentPerformance, error) {
	var out []domain.AgentPerformance
	_, err := c.do(ctx, call{
		op: "AgentPerformance", method: http.MethodGet, path: "/api/analytics/agents",
		token: token, query: q, result: &out, idempotent: true, resource: "analytics",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.AgentPerformance{}
	}
	return out, nil
}
