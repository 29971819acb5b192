package access

import "github.com/boddenberg/realty-portal-bfa/internal/domain"

// CanManage reports whether actor may activate, deactivate or delete
// target. Global admins manage anyone but themselves; company admins and
// managers manage strictly lower roles inside their own company.
func CanManage(actor, target domain.User) bool {
	if actor.ID == target.ID {
		return false
	}
	if actor.Role.IsGlobal() {
		return true
	}
	if actor.Role != domain.RoleCompanyAdmin && actor.Role != domain.RoleManager {
		return false
	}
	if actor.CompanyID == "" || actor.CompanyID != target.CompanyID {
		return false
	}
	return actor.Role.Rank() > target.Role.Rank()
}

// CanInvite reports whether actorRole may invite someone as invited.
// Invitations only go down the hierarchy; agents invite nobody.
func CanInvite(actorRole, invited domain.Role) bool {
	if !invited.Valid() {
		return false
	}
	switch actorRole {
	case domain.RoleGlobalAdmin:
		return invited != domain.RoleGlobalAdmin
	case domain.RoleCompanyAdmin:
		return invited == domain.RoleManager || invited == domain.RoleAgent
	case domain.RoleManager:
		return invited == domain.RoleAgent
	}
	return false
}
