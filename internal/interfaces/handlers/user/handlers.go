package user

import (
	"brokerage-backend/internal/application/accounts"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the signed-in user's profile and admin role changes.
type Handlers struct {
	Service *accounts.Service
}

// Profile GET /api/v1/users/profile
func (h *Handlers) Profile(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	p, err := h.Service.ViewProfile(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Profile fetched successfully", p, nil)
}

// UpdateProfile PATCH /api/v1/users/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	var body accounts.ProfileUpdate
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), actor.UserID, body)
	if err != nil {
		return err
	}
	return response.Success(c, "Profile updated successfully", fiber.Map{"user": u}, nil)
}

type roleBody struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole PATCH /api/v1/admin/users/:id/role
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	targetID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body roleBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	u, err := h.Service.UpdateRole(c.UserContext(), accounts.RoleChange{
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		TargetID:  targetID,
		Role:      body.Role,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "User role updated successfully", fiber.Map{"user": u}, nil)
}
