package middleware

import (
	"brokerage-backend/internal/constants"
	roles "brokerage-backend/internal/pkg/constants"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthorizePermission lets the request through only when the session role holds permission.
// No session user -> 401; unknown role or unmapped permission -> 500; role not allowed -> 403.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		role := CurrentRole(c)
		if !roles.IsValidRole(role) {
			return response.Error(c, "Authorization error", fiber.StatusInternalServerError, nil)
		}
		if allowed := constants.PermissionRoles[permission]; len(allowed) == 0 {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !constants.AllowedRole(permission, role) {
			zerolog.Ctx(c.UserContext()).Warn().Str("permission", permission).Str("role", role).
				Str("path", c.Path()).Msg("Permission denied")
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}

// CurrentRole returns the session user's role, or "" when absent.
func CurrentRole(c *fiber.Ctx) string {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return ""
	}
	r, _ := m["role"].(string)
	return r
}
