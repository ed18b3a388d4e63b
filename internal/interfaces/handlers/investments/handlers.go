package investments

import (
	invsvc "brokerage-backend/internal/application/investments"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *invsvc.Service
}

// ListPlans GET /api/v1/investments/plans
func (h *Handlers) ListPlans(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	plans, err := h.Service.ListPlans(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Plans fetched successfully", plans, nil)
}

type subscribeBody struct {
	PlanID string          `json:"plan_id" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

// Subscribe POST /api/v1/investments/subscribe
func (h *Handlers) Subscribe(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	var body subscribeBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	planID, err := request.ParseUUID(body.PlanID, "plan_id")
	if err != nil {
		return err
	}
	sub, err := h.Service.Subscribe(c.UserContext(), actor.UserID, planID, body.Amount)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Investment created", sub, nil)
}

// Mine GET /api/v1/investments/mine
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	invs, err := h.Service.ListMine(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Investments fetched successfully", invs, nil)
}

// CatalogPlans GET /api/v1/admin/plans lists every plan, active or not.
func (h *Handlers) CatalogPlans(c *fiber.Ctx) error {
	plans, err := h.Service.ListPlans(c.UserContext(), uuid.Nil)
	if err != nil {
		return err
	}
	return response.List(c, "Plans fetched successfully", plans, len(plans))
}

// CreatePlan POST /api/v1/admin/plans
func (h *Handlers) CreatePlan(c *fiber.Ctx) error {
	var body invsvc.PlanInput
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	plan, err := h.Service.CreatePlan(c.UserContext(), body)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Plan created", plan, nil)
}

// UpdatePlan PATCH /api/v1/admin/plans/:id
func (h *Handlers) UpdatePlan(c *fiber.Ctx) error {
	planID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body invsvc.PlanInput
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	plan, err := h.Service.UpdatePlan(c.UserContext(), planID, body)
	if err != nil {
		return err
	}
	return response.Success(c, "Plan updated", plan, nil)
}

type grantBody struct {
	UserID             string `json:"user_id" validate:"required"`
	CustomDurationDays *int   `json:"custom_duration_days" validate:"omitempty,gt=0"`
}

// GrantAccess POST /api/v1/admin/plans/:id/access
func (h *Handlers) GrantAccess(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	planID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body grantBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	userID, err := request.ParseUUID(body.UserID, "user_id")
	if err != nil {
		return err
	}
	acc, err := h.Service.GrantAccess(c.UserContext(), invsvc.Grant{
		UserID:             userID,
		PlanID:             planID,
		CustomDurationDays: body.CustomDurationDays,
		GrantedBy:          actor.UserID,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Plan access granted", acc, nil)
}

type durationBody struct {
	Days int `json:"days" validate:"gt=0"`
}

// OverrideDuration PATCH /api/v1/admin/investments/:id/duration
func (h *Handlers) OverrideDuration(c *fiber.Ctx) error {
	investmentID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body durationBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	inv, err := h.Service.OverrideDuration(c.UserContext(), investmentID, body.Days)
	if err != nil {
		return err
	}
	return response.Success(c, "Investment duration updated", inv, nil)
}

// ListInvestments GET /api/v1/admin/investments?status=
func (h *Handlers) ListInvestments(c *fiber.Ctx) error {
	invs, err := h.Service.ListInvestments(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	return response.List(c, "Investments fetched successfully", invs, len(invs))
}

// RunMaturity POST /api/v1/admin/maintenance/mature runs the maturity sweep now.
func (h *Handlers) RunMaturity(c *fiber.Ctx) error {
	res, err := h.Service.MatureDue(c.UserContext(), h.Service.Clock())
	if err != nil {
		return err
	}
	return response.Success(c, "Maturity sweep completed", res, nil)
}
