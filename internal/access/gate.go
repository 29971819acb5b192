// Package access decides what a session may see. Every function here is
// pure: decisions are recomputed on each request and never cached, since a
// user's role can change between sessions.
package access

import (
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

// Outcome of a gate evaluation.
type Outcome int

const (
	// Pending means the session is not hydrated yet; nothing may be decided.
	Pending Outcome = iota
	RedirectLogin
	Denied
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case Denied:
		return "denied"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decision is the result of Evaluate. Redirect is set for RedirectLogin
// and Denied; Notice is set for Denied.
type Decision struct {
	Outcome  Outcome
	Redirect string
	Notice   string
}

// CanView reports whether role may see a view requiring one of required.
// An empty requirement admits any known role.
func CanView(role domain.Role, required ...domain.Role) bool {
	if !role.Valid() {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// Evaluate runs the gate for one navigation. companySlug only shapes the
// redirect targets; it never widens or narrows data scope.
func Evaluate(view session.State, required []domain.Role, companySlug string) Decision {
	if !view.Hydrated {
		return Decision{Outcome: Pending}
	}
	if !view.IsAuthenticated || view.User == nil {
		return Decision{Outcome: RedirectLogin, Redirect: LoginRoute(companySlug)}
	}
	if !CanView(view.User.Role, required...) {
		return Decision{
			Outcome:  Denied,
			Redirect: DefaultDashboard(view.User.Role, companySlug),
			Notice:   "You do not have access to this page.",
		}
	}
	return Decision{Outcome: Allow}
}

// LoginRoute is the company-scoped login page, or the global one.
func LoginRoute(companySlug string) string {
	if companySlug == "" {
		return "/login"
	}
	return "/" + companySlug + "/login"
}

// DefaultDashboard is where a role lands after login or a denied page.
func DefaultDashboard(role domain.Role, companySlug string) string {
	prefix := ""
	if companySlug != "" {
		prefix = "/" + companySlug
	}
	switch role {
	case domain.RoleGlobalAdmin:
		return "/admin/dashboard"
	case domain.RoleCompanyAdmin:
		return prefix + "/company/dashboard"
	case domain.RoleManager:
		return prefix + "/manager/dashboard"
	case domain.RoleAgent:
		return prefix + "/agent/dashboard"
	}
	return LoginRoute(companySlug)
}
