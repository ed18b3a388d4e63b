package middleware

import (
	"net/url"
	"strings"

	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig selects which browser origins may call the API with credentials.
type CORSConfig struct {
	// AllowedSuffix matches the origin's host, e.g. ".example.com".
	AllowedSuffix string
	// DevPassword admits any origin that sends it in the dev-password header.
	DevPassword string
	// DisableLocalhost rejects http://localhost and 127.0.0.1 origins (production).
	DisableLocalhost bool
}

const (
	corsAllowHeaders = "Content-Type, dev-password, X-Trace-Id"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// CORS allows same-origin calls, local dev origins, suffix-matched hosts and
// dev-password holders. Everything else gets 403. Preflights are answered with 204.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		allowed := (!cfg.DisableLocalhost && isLocalOrigin(origin)) ||
			(suffix != "" && hostHasSuffix(origin, suffix)) ||
			(cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword)
		if !allowed {
			return response.Forbidden(c, "Not allowed by CORS")
		}
		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

func hostHasSuffix(origin, suffix string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, suffix) || "."+host == suffix
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
	c.Set(fiber.HeaderVary, fiber.HeaderOrigin)
}
