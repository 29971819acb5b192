package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
	"github.com/boddenberg/realty-portal-bfa/internal/port"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
	"github.com/boddenberg/realty-portal-bfa/internal/tenant"

	"go.uber.org/zap"
)

// BrandingCache is a BrandingResolver whose entries can be dropped.
type BrandingCache interface {
	BrandingResolver
	Invalidate(slug string)
}

// CompanyService administers tenants and serves their branding.
type CompanyService struct {
	companies port.CompanyStore
	branding  BrandingCache
	logger    *zap.Logger
}

// NewCompanyService creates a new company service.
func NewCompanyService(companies port.CompanyStore, branding BrandingCache, logger *zap.Logger) *CompanyService {
	return &CompanyService{companies: companies, branding: branding, logger: logger}
}

// List (GET /api/portal/companies), global admins only.
func (s *CompanyService) List(ctx context.Context, st *session.Store) ([]domain.Company, error) {
	ctx, span := tracer.Start(ctx, "CompanyService.List")
	defer span.End()

	if err := requireGlobal(st, "list companies"); err != nil {
		return nil, err
	}
	out, err := s.companies.ListCompanies(ctx, st.Token())
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if out == nil {
		out = []domain.Company{}
	}
	return out, nil
}

// Create (POST /api/portal/companies), global admins only. The subdomain
// is fixed at creation; uniqueness is enforced by the backend (409).
func (s *CompanyService) Create(ctx context.Context, st *session.Store, req domain.CreateCompanyRequest) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "CompanyService.Create")
	defer span.End()

	if err := requireGlobal(st, "create companies"); err != nil {
		return nil, err
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))
	if err := form.Required("company_name", req.CompanyName); err != nil {
		return nil, err
	}
	if !tenant.ValidSlug(req.Subdomain) {
		return nil, &domain.ErrValidation{
			Field:   "subdomain",
			Message: "must be a lowercase hostname label that is not a reserved route",
		}
	}
	for field, color := range map[string]string{"primary_color": req.PrimaryColor, "secondary_color": req.SecondaryColor} {
		if color != "" && !validColor(color) {
			return nil, &domain.ErrValidation{Field: field, Message: "must be a hex color like #1E3A8A"}
		}
	}

	c, err := s.companies.CreateCompany(ctx, st.Token(), req)
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	s.branding.Invalidate(c.Subdomain)
	s.logger.Info("company created", zap.String("company_id", c.ID), zap.String("subdomain", c.Subdomain))
	return c, nil
}

// UploadLogo (POST /api/portal/companies/{id}/upload-logo). Company admins
// may only brand their own company.
func (s *CompanyService) UploadLogo(ctx context.Context, st *session.Store, companyID string, file form.Upload) (*domain.Company, error) {
	ctx, span := tracer.Start(ctx, "CompanyService.UploadLogo")
	defer span.End()

	user := st.User()
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	switch {
	case user.Role.IsGlobal():
	case user.Role == domain.RoleCompanyAdmin && user.CompanyID != "" && user.CompanyID == companyID:
	default:
		return nil, &domain.ErrForbidden{Action: "change this company's logo"}
	}
	if err := form.CheckImage(&file); err != nil {
		return nil, err
	}

	c, err := s.companies.UploadCompanyLogo(ctx, st.Token(), companyID, file)
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}
	s.branding.Invalidate(c.Subdomain)
	return c, nil
}

// Branding (GET /api/companies/{slug}/branding) never fails.
func (s *CompanyService) Branding(ctx context.Context, slug string) domain.Branding {
	return s.branding.Resolve(ctx, slug)
}

func requireGlobal(st *session.Store, action string) error {
	user := st.User()
	if user == nil {
		return &domain.ErrUnauthorized{Message: "no active session"}
	}
	if !user.Role.IsGlobal() {
		return &domain.ErrForbidden{Action: action}
	}
	return nil
}

func validColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
