package domain

import "time"

// ============================================================
// Users & Companies
// ============================================================

// User is a portal identity. Role decides which company-scoped data is
// visible; CompanyID is empty only for global admins.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Role              Role       `json:"role"`
	CompanyID         string     `json:"company_id,omitempty"`
	IsActive          bool       `json:"is_active"`
	LastLogin         *time.Time `json:"last_login,omitempty"`
	Title             string     `json:"title,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
}

// UpdateProfileRequest is the body for PUT /api/users/me.
type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Title string `json:"title,omitempty"`
}

// UserStatusRequest is the body for PATCH /api/users/{id}/status.
type UserStatusRequest struct {
	IsActive bool `json:"is_active"`
}

// Company is a tenant. Subdomain is unique and immutable after creation.
type Company struct {
	ID             string `json:"id"`
	CompanyName    string `json:"company_name"`
	Subdomain      string `json:"subdomain"`
	AddressLine1   string `json:"address_line1,omitempty"`
	AddressLine2   string `json:"address_line2,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	ZipCode        string `json:"zip_code,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	IsActive       bool   `json:"is_active"`
}

// CreateCompanyRequest is the body for POST /api/portal/companies.
type CreateCompanyRequest struct {
	CompanyName    string `json:"company_name"`
	Subdomain      string `json:"subdomain"`
	AddressLine1   string `json:"address_line1,omitempty"`
	AddressLine2   string `json:"address_line2,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	ZipCode        string `json:"zip_code,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
}

// Branding is the presentational projection of a company used to theme
// company-scoped pages.
type Branding struct {
	CompanyID      string `json:"id,omitempty"`
	CompanyName    string `json:"company_name"`
	Subdomain      string `json:"subdomain,omitempty"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Default        bool   `json:"default"`
}

// DefaultBranding is rendered whenever a company cannot be resolved.
func DefaultBranding() Branding {
	return Branding{
		CompanyName:    "Realty Portal",
		PrimaryColor:   "#1E3A8A",
		SecondaryColor: "#F59E0B",
		Default:        true,
	}
}

// Branding projects the company into its branding record.
func (c *Company) Branding() Branding {
	b := Branding{
		CompanyID:      c.ID,
		CompanyName:    c.CompanyName,
		Subdomain:      c.Subdomain,
		LogoURL:        c.LogoURL,
		PrimaryColor:   c.PrimaryColor,
		SecondaryColor: c.SecondaryColor,
	}
	def := DefaultBranding()
	if b.PrimaryColor == "" {
		b.PrimaryColor = def.PrimaryColor
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = def.SecondaryColor
	}
	return b
}
