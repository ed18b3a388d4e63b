package eligibility

import (
	"encoding/json"

	eligsvc "brokerage-backend/internal/application/eligibility"
	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type Handlers struct {
	Service *eligsvc.Service
}

type applyBody struct {
	PlanID  string          `json:"plan_id" validate:"required"`
	Answers json.RawMessage `json:"answers"`
}

// Apply POST /api/v1/eligibility/applications
func (h *Handlers) Apply(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	var body applyBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	planID, err := request.ParseUUID(body.PlanID, "plan_id")
	if err != nil {
		return err
	}
	answers := datatypes.JSON(body.Answers)
	if len(answers) == 0 {
		answers = datatypes.JSON("{}")
	} else if !json.Valid(answers) {
		return ledger.Validation("answers must be valid JSON")
	}
	app, err := h.Service.Apply(c.UserContext(), actor.UserID, planID, answers)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Application submitted", app, nil)
}

// Mine GET /api/v1/eligibility/applications
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	apps, err := h.Service.ListMine(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Applications fetched successfully", apps, nil)
}

// List GET /api/v1/admin/eligibility?status=pending
func (h *Handlers) List(c *fiber.Ctx) error {
	apps, err := h.Service.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	return response.List(c, "Applications fetched successfully", apps, len(apps))
}

type reviewBody struct {
	Status             string  `json:"status" validate:"required,oneof=approved rejected"`
	CustomDurationDays *int    `json:"custom_duration_days" validate:"omitempty,gt=0"`
	AdminNotes         *string `json:"admin_notes" validate:"omitempty,max=2000"`
}

// Review PATCH /api/v1/admin/eligibility/:id
func (h *Handlers) Review(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	appID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body reviewBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	app, err := h.Service.Review(c.UserContext(), eligsvc.Decision{
		ApplicationID:      appID,
		ReviewerID:         actor.UserID,
		Status:             body.Status,
		CustomDurationDays: body.CustomDurationDays,
		AdminNotes:         body.AdminNotes,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Application reviewed", app, nil)
}
