// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations. The backend REST client implements
// every one of them.
package port

import (
	"context"
	"net/url"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
)

// CompanyLookup resolves a company by its public subdomain.
type CompanyLookup interface {
	CompanyBySubdomain(ctx context.Context, slug string) (*domain.Company, error)
}

// AuthGateway covers credential and account lifecycle calls.
type AuthGateway interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	Me(ctx context.Context, token string) (*domain.User, error)
	UpdateMe(ctx context.Context, token string, req domain.UpdateProfileRequest) (*domain.User, error)
	UploadProfilePicture(ctx context.Context, token string, file form.Upload) (*domain.User, error)
}

// Registrar submits registrations and opens payment checkouts.
type Registrar interface {
	Register(ctx context.Context, p domain.RegisterPayload) (*domain.RegisterResponse, error)
	CreateCheckoutSession(ctx context.Context, token string, req domain.CheckoutRequest) (*domain.CheckoutSession, error)
}

// UserDirectory lists and administers users.
type UserDirectory interface {
	ListUsers(ctx context.Context, token string, q url.Values) ([]domain.User, error)
	GetUser(ctx context.Context, token, id string) (*domain.User, error)
	SetUserStatus(ctx context.Context, token, id string, active bool) (*domain.User, error)
	DeleteUser(ctx context.Context, token, id string) error
}

// ClientStore handles client (document subject) records.
type ClientStore interface {
	ListClients(ctx context.Context, token string, q url.Values) ([]domain.ClientRecord, error)
	GetClient(ctx context.Context, token, id string) (*domain.ClientRecord, error)
	CreateClient(ctx context.Context, token string, rec domain.ClientRecord) (*domain.ClientRecord, error)
	UpdateClient(ctx context.Context, token, id string, rec domain.ClientRecord) (*domain.ClientRecord, error)
	DeleteClient(ctx context.Context, token, id string) error
	ClientPDF(ctx context.Context, token, id string) (*domain.Document, error)
}

// CompanyStore administers tenants.
type CompanyStore interface {
	CompanyLookup
	ListCompanies(ctx context.Context, token string) ([]domain.Company, error)
	CreateCompany(ctx context.Context, token string, req domain.CreateCompanyRequest) (*domain.Company, error)
	UploadCompanyLogo(ctx context.Context, token, id string, file form.Upload) (*domain.Company, error)
}

// InvitationStore handles invitations.
type InvitationStore interface {
	ListInvitations(ctx context.Context, token string, q url.Values) ([]domain.Invitation, error)
	CreateInvitation(ctx context.Context, token string, req domain.CreateInvitationRequest) (*domain.Invitation, error)
	ResendInvitation(ctx context.Context, token, id string) (*domain.Invitation, error)
	AcceptInvitation(ctx context.Context, req domain.AcceptInvitationRequest) (*domain.RegisterResponse, error)
}

// AnalyticsSource returns server-computed aggregates.
type AnalyticsSource interface {
	AgentPerformance(ctx context.Context, token string, q url.Values) ([]domain.AgentPerformance, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
