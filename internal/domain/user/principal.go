package user

import "github.com/google/uuid"

// Principal is the authenticated caller. It is decoded from the bearer token
// and passed explicitly into every service call.
type Principal struct {
	UserID         uuid.UUID `json:"user_id"`
	Role           Role      `json:"role"`
	OrganizationID uuid.UUID `json:"organization_id"`
}

// CanManage reports whether the caller may manage content, modules and analytics.
func (p Principal) CanManage() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager
}
