package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boddenberg/realty-portal-bfa/internal/access"
	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/session"
)

func state(role domain.Role) session.State {
	u := &domain.User{ID: "u", Role: role, CompanyID: "c-1"}
	return session.State{User: u, IsAuthenticated: true, Hydrated: true}
}

func TestCanView(t *testing.T) {
	admins := []domain.Role{domain.RoleGlobalAdmin, domain.RoleCompanyAdmin}

	assert.True(t, access.CanView(domain.RoleCompanyAdmin, admins...))
	assert.False(t, access.CanView(domain.RoleAgent, admins...))
	assert.True(t, access.CanView(domain.RoleAgent))
	assert.False(t, access.CanView(domain.Role("root")))
}

func TestEvaluate_WaitsForHydration(t *testing.T) {
	d := access.Evaluate(session.State{}, nil, "acme")
	assert.Equal(t, access.Pending, d.Outcome)
	assert.Empty(t, d.Redirect)
}

func TestEvaluate_UnauthenticatedRedirectsToScopedLogin(t *testing.T) {
	anon := session.State{Hydrated: true}

	assert.Equal(t, access.Decision{Outcome: access.RedirectLogin, Redirect: "/acme/login"},
		access.Evaluate(anon, []domain.Role{domain.RoleAgent}, "acme"))
	assert.Equal(t, "/login", access.Evaluate(anon, nil, "").Redirect)
}

func TestEvaluate_UnauthenticatedNeverAllowed(t *testing.T) {
	anon := session.State{Hydrated: true}
	for _, slug := range []string{"", "acme"} {
		for _, req := range [][]domain.Role{nil, {domain.RoleAgent}, domain.AllRoles} {
			assert.NotEqual(t, access.Allow, access.Evaluate(anon, req, slug).Outcome)
		}
	}
}

func TestEvaluate_DeniedGoesToDefaultDashboard(t *testing.T) {
	d := access.Evaluate(state(domain.RoleAgent), []domain.Role{domain.RoleCompanyAdmin}, "acme")
	assert.Equal(t, access.Denied, d.Outcome)
	assert.Equal(t, "/acme/agent/dashboard", d.Redirect)
	assert.NotEmpty(t, d.Notice)
}

func TestEvaluate_Allow(t *testing.T) {
	d := access.Evaluate(state(domain.RoleManager), []domain.Role{domain.RoleManager, domain.RoleCompanyAdmin}, "other-co")
	assert.Equal(t, access.Allow, d.Outcome)
}

func TestDefaultDashboard(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", access.DefaultDashboard(domain.RoleGlobalAdmin, "acme"))
	assert.Equal(t, "/company/dashboard", access.DefaultDashboard(domain.RoleCompanyAdmin, ""))
	assert.Equal(t, "/acme/manager/dashboard", access.DefaultDashboard(domain.RoleManager, "acme"))
	assert.Equal(t, "/login", access.DefaultDashboard(domain.Role(""), ""))
}

func TestCanManage(t *testing.T) {
	global := domain.User{ID: "g", Role: domain.RoleGlobalAdmin}
	admin := domain.User{ID: "a", Role: domain.RoleCompanyAdmin, CompanyID: "c-1"}
	manager := domain.User{ID: "m", Role: domain.RoleManager, CompanyID: "c-1"}
	agent := domain.User{ID: "x", Role: domain.RoleAgent, CompanyID: "c-1"}
	foreign := domain.User{ID: "y", Role: domain.RoleAgent, CompanyID: "c-2"}

	tests := []struct {
		name          string
		actor, target domain.User
		want          bool
	}{
		{"global manages anyone", global, foreign, true},
		{"nobody manages self", admin, admin, false},
		{"admin manages manager", admin, manager, true},
		{"admin confined to own company", admin, foreign, false},
		{"manager manages agent", manager, agent, true},
		{"manager cannot manage admin", manager, admin, false},
		{"agent manages nobody", agent, domain.User{ID: "z", Role: domain.RoleAgent, CompanyID: "c-1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CanManage(tt.actor, tt.target))
		})
	}
}

func TestCanInvite(t *testing.T) {
	assert.True(t, access.CanInvite(domain.RoleGlobalAdmin, domain.RoleCompanyAdmin))
	assert.False(t, access.CanInvite(domain.RoleGlobalAdmin, domain.RoleGlobalAdmin))
	assert.True(t, access.CanInvite(domain.RoleCompanyAdmin, domain.RoleManager))
	assert.False(t, access.CanInvite(domain.RoleCompanyAdmin, domain.RoleCompanyAdmin))
	assert.True(t, access.CanInvite(domain.RoleManager, domain.RoleAgent))
	assert.False(t, access.CanInvite(domain.RoleManager, domain.RoleManager))
	assert.False(t, access.CanInvite(domain.RoleAgent, domain.RoleAgent))
	assert.False(t, access.CanInvite(domain.RoleGlobalAdmin, domain.Role("bogus")))
}
