package scope_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/boddenberg/realty-portal-bfa/internal/scope"
)

func TestParams_GlobalAdmin(t *testing.T) {
	g := &domain.User{ID: "g", Role: domain.RoleGlobalAdmin}

	q, err := scope.Params(g, scope.Selection{})
	require.NoError(t, err)
	assert.Empty(t, q)

	q, err = scope.Params(g, scope.Selection{CompanyID: "c-9"})
	require.NoError(t, err)
	assert.Equal(t, "c-9", q.Get("company_id"))
}

func TestParams_AgentIsPinnedToSelf(t *testing.T) {
	a := &domain.User{ID: "a-1", Role: domain.RoleAgent, CompanyID: "c-1"}

	q, err := scope.Params(a, scope.Selection{CompanyID: "c-2", AgentID: "a-2"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", q.Get("company_id"))
	assert.Equal(t, "a-1", q.Get("agent_id"))
}

func TestParams_ManagerMayNarrowToAgent(t *testing.T) {
	m := &domain.User{ID: "m", Role: domain.RoleManager, CompanyID: "c-1"}

	q, err := scope.Params(m, scope.Selection{AgentID: "a-7"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", q.Get("company_id"))
	assert.Equal(t, "a-7", q.Get("agent_id"))
}

func TestParams_NonGlobalWithoutCompanyIsForbidden(t *testing.T) {
	for _, r := range []domain.Role{domain.RoleCompanyAdmin, domain.RoleManager, domain.RoleAgent} {
		_, err := scope.Params(&domain.User{ID: "x", Role: r}, scope.Selection{})
		var ferr *domain.ErrForbidden
		assert.True(t, errors.As(err, &ferr), r)
	}
}

func TestParams_NoSession(t *testing.T) {
	_, err := scope.Params(nil, scope.Selection{})
	var uerr *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &uerr))
}

func TestParams_UnknownRoleIsForbidden(t *testing.T) {
	_, err := scope.Params(&domain.User{ID: "x", Role: "root", CompanyID: "c"}, scope.Selection{})
	assert.Error(t, err)
}

// Every non-global request carries the session's company_id, whatever the
// selector holds.
func TestParams_PropertyCompanyPinned(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	roles := []domain.Role{domain.RoleCompanyAdmin, domain.RoleManager, domain.RoleAgent}
	companies := []string{"", "c-1", "c-2", "c-3", " c-4 ", "evil&company_id=c-1"}

	for i := 0; i < 500; i++ {
		own := companies[1+rng.Intn(3)]
		u := &domain.User{ID: "u", Role: roles[rng.Intn(len(roles))], CompanyID: own}
		sel := scope.Selection{CompanyID: companies[rng.Intn(len(companies))], AgentID: "a"}

		q, err := scope.Params(u, sel)
		require.NoError(t, err)
		assert.Equal(t, []string{own}, q["company_id"], "role=%s selection=%q", u.Role, sel.CompanyID)
	}
}

func TestKey_Stable(t *testing.T) {
	a := &domain.User{ID: "a-1", Role: domain.RoleAgent, CompanyID: "c-1"}
	q1, _ := scope.Params(a, scope.Selection{})
	q2, _ := scope.Params(a, scope.Selection{CompanyID: "ignored"})
	assert.Equal(t, scope.Key(q1), scope.Key(q2))
}
