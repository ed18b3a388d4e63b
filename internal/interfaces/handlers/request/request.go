// Package request binds and validates handler input. Failures come back as ledger
// validation errors so the global error handler renders them as 400s.
package request

import (
	"strconv"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/middleware"
	"brokerage-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Bind parses the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return ledger.Validation("Invalid request body")
	}
	if err := validation.Struct(dst); err != nil {
		return &ledger.Error{
			Kind:    ledger.ErrValidation,
			Message: "Validation failed",
			Details: map[string]interface{}{"fields": validation.FormatValidationError(err)},
		}
	}
	return nil
}

// UUIDParam parses a route parameter.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, ledger.Validation("Invalid UUID format for " + name)
	}
	return id, nil
}

// ParseUUID parses a body field holding a UUID.
func ParseUUID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ledger.Validation("Invalid UUID format for " + field)
	}
	return id, nil
}

// IntQuery reads a non-negative integer query value, falling back to def.
func IntQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ledger.Validation(name + " must be a non-negative integer")
	}
	return n, nil
}

// Actor is the authenticated session user.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// CurrentActor reads the session user. RequireAuth runs before every caller.
func CurrentActor(c *fiber.Ctx) (Actor, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return Actor{UserID: id, Role: middleware.CurrentRole(c)}, nil
}
