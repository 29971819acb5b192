// Package scope builds the filter parameters attached to every
// company-scoped data request.
//
// Only the session decides scope. A company_admin or manager is always
// confined to the session's company_id, whatever the UI selector or the
// route slug says; only a global_admin may pick a company.
package scope

import (
	"net/url"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// Selection is what the caller asked for. It is honored only where the
// role allows it.
type Selection struct {
	CompanyID string
	AgentID   string
}

// Params returns the query parameters for a scoped request issued by user.
func Params(user *domain.User, sel Selection) (url.Values, error) {
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "no active session"}
	}
	q := url.Values{}

	switch user.Role {
	case domain.RoleGlobalAdmin:
		if c := strings.TrimSpace(sel.CompanyID); c != "" {
			q.Set("company_id", c)
		}
		if a := strings.TrimSpace(sel.AgentID); a != "" {
			q.Set("agent_id", a)
		}
		return q, nil

	case domain.RoleCompanyAdmin, domain.RoleManager:
		if user.CompanyID == "" {
			return nil, &domain.ErrForbidden{Action: "access company data without a company"}
		}
		q.Set("company_id", user.CompanyID)
		if a := strings.TrimSpace(sel.AgentID); a != "" {
			q.Set("agent_id", a)
		}
		return q, nil

	case domain.RoleAgent:
		if user.CompanyID == "" {
			return nil, &domain.ErrForbidden{Action: "access company data without a company"}
		}
		q.Set("company_id", user.CompanyID)
		q.Set("agent_id", user.ID)
		return q, nil
	}

	return nil, &domain.ErrForbidden{Action: "access data with role " + user.Role.String()}
}

// Key renders params into a stable cache key.
func Key(q url.Values) string {
	return q.Encode()
}
