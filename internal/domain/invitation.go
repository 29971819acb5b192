package domain

import "time"

// Invitation is a one-time link to join a company with a given role.
type Invitation struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Accepted  bool      `json:"accepted"`
	SendCount int       `json:"send_count"`
}

// Usable reports whether the invitation can still be accepted at now.
func (i *Invitation) Usable(now time.Time) bool {
	return !i.Accepted && now.Before(i.ExpiresAt)
}

// CreateInvitationRequest is the body for POST /api/invitations.
type CreateInvitationRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}

// AcceptInvitationRequest is the body for POST /api/invitations/accept.
type AcceptInvitationRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}
