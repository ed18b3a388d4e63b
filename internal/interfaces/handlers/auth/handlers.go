package auth

import (
	"errors"

	"brokerage-backend/internal/application/accounts"
	authsvc "brokerage-backend/internal/application/auth"
	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/middleware"
	"brokerage-backend/internal/pkg/response"
	"brokerage-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Accounts   *accounts.Service
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Login POST /api/v1/auth/login: authenticate, start a session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	shape := h.startSession(c, user)
	return response.Success(c, "Login successful", fiber.Map{"user": shape}, nil)
}

// Register POST /api/v1/users/register: create an investor with an empty wallet and log them in.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req accounts.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := validation.Struct(&req); err != nil {
		return response.Error(c, "Validation failed", fiber.StatusBadRequest, validation.FormatValidationError(err))
	}
	p, err := h.Accounts.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	shape := h.startSession(c, p.User)
	return response.SuccessCreated(c, "Account created", fiber.Map{"user": shape, "wallet": p.Wallet}, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, user *domain.User) authsvc.SessionUserShape {
	sessionID := middleware.RegenerateSessionID(c)
	shape := authsvc.ShapeOf(user)
	middleware.SetSessionUser(c, middleware.SessionUser(shape))
	accounts.TrackSession(c.UserContext(), h.Rdb, shape.UserID, sessionID)

	c.Cookie(middleware.SessionCookie(h.Config, middleware.SessionCookieValue(h.Config.Secret, sessionID)))
	return shape
}

// Me GET /api/v1/auth/me: return current session user in standard success format.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		if sid := middleware.GetSessionID(c); sid != "" {
			log.Info().Str("path", "/auth/me").Str("session_id_prefix", truncate(sid, 8)).
				Msg("auth/me: session id present but no user in session data")
		}
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if sessionID != "" {
		if user, err := authsvc.VerifyUser(middleware.GetUser(c)); err == nil {
			_ = h.Rdb.SRem(ctx, "user_sessions:"+user.UserID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookie(h.Config, "")
	cookie.MaxAge = -1
	c.Cookie(cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}
