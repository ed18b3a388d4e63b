package constants

import roles "brokerage-backend/internal/pkg/constants"

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:          {roles.Investor, roles.Admin, roles.Superadmin},
	Trade:             {roles.Investor, roles.Admin, roles.Superadmin},
	RequestFunds:      {roles.Investor, roles.Admin, roles.Superadmin},
	Invest:            {roles.Investor, roles.Admin, roles.Superadmin},
	ReviewFunding:     {roles.Admin, roles.Superadmin},
	ManagePlans:       {roles.Admin, roles.Superadmin},
	ReviewEligibility: {roles.Admin, roles.Superadmin},
	RunMaintenance:    {roles.Superadmin},
	AssignRole:        {roles.Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	allowed, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
