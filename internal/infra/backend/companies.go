package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/form"
)

// ListCompanies lists every company (global admins only upstream).
func (c *Client) ListCompanies(ctx context.Context, token string) ([]domain.Company, error) {
	var out []domain.Company
	_, err := c.do(ctx, call{
		op: "ListCompanies", method: http.MethodGet, path: "/api/portal/companies",
		token: token, result: &out, idempotent: true, resource: "companies",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Company{}
	}
	return out, nil
}

// CreateCompany creates a tenant.
func (c *Client) CreateCompany(ctx context.Context, token string, req domain.CreateCompanyRequest) (*domain.Company, error) {
	var out domain.Company
	_, err := c.do(ctx, call{
		op: "CreateCompany", method: http.MethodPost, path: "/api/portal/companies",
		token: token, body: req, result: &out, resource: "company",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompanyBySubdomain resolves a slug. The endpoint is public.
func (c *Client) CompanyBySubdomain(ctx context.Context, slug string) (*domain.Company, error) {
	var out domain.Company
	_, err := c.do(ctx, call{
		op: "CompanyBySubdomain", method: http.MethodGet, path: "/api/portal/companies/subdomain/" + url.PathEscape(slug),
		result: &out, idempotent: true, resource: "company", id: slug,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCompanyLogo replaces a company's logo.
func (c *Client) UploadCompanyLogo(ctx context.Context, token, id string, file form.Upload) (*domain.Company, error) {
	var out domain.Company
	err := c.uploads.Do(ctx, func() error {
		_, err := c.do(ctx, call{
			op: "UploadCompanyLogo", method: http.MethodPost, path: "/api/portal/companies/" + url.PathEscape(id) + "/upload-logo",
			token: token, result: &out, resource: "company", id: id,
			prepare: multipart(nil, []form.Upload{file}),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
