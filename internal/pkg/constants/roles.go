package constants

import "strings"

const (
	Investor   = "investor"
	Admin      = "admin"
	Superadmin = "superadmin"
)

// ValidRoles lists Users.role values from least to most privileged.
var ValidRoles = []string{Investor, Admin, Superadmin}

// Normalize lowercases and trims a role taken from a request body.
func Normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
