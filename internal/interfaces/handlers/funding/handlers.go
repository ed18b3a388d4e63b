package funding

import (
	fundsvc "brokerage-backend/internal/application/funding"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Handlers struct {
	Service *fundsvc.Service
}

type depositBody struct {
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	Method         string          `json:"method" validate:"required"`
	PaymentDetails datatypes.JSON  `json:"payment_details"`
}

// CreateDeposit POST /api/v1/funding/deposits
func (h *Handlers) CreateDeposit(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	var body depositBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	dep, err := h.Service.CreateDeposit(c.UserContext(), fundsvc.DepositRequest{
		UserID:         actor.UserID,
		Amount:         body.Amount,
		Method:         body.Method,
		PaymentDetails: body.PaymentDetails,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Deposit request created", dep, nil)
}

type confirmBody struct {
	TransactionHash string `json:"transaction_hash" validate:"max=200"`
}

// ConfirmDeposit POST /api/v1/funding/deposits/:id/confirm
func (h *Handlers) ConfirmDeposit(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	depositID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body confirmBody
	if len(c.Body()) > 0 {
		if err := request.Bind(c, &body); err != nil {
			return err
		}
	}
	dep, err := h.Service.ConfirmDeposit(c.UserContext(), actor.UserID, depositID, body.TransactionHash)
	if err != nil {
		return err
	}
	return response.Success(c, "Deposit marked as paid", dep, nil)
}

// MyDeposits GET /api/v1/funding/deposits?status=
func (h *Handlers) MyDeposits(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	return h.listDeposits(c, actor.UserID)
}

type withdrawalBody struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Method      string          `json:"method" validate:"required"`
	Destination datatypes.JSON  `json:"destination"`
}

// CreateWithdrawal POST /api/v1/funding/withdrawals
func (h *Handlers) CreateWithdrawal(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	var body withdrawalBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	wd, balance, err := h.Service.CreateWithdrawal(c.UserContext(), fundsvc.WithdrawalRequest{
		UserID:      actor.UserID,
		Amount:      body.Amount,
		Method:      body.Method,
		Destination: body.Destination,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Withdrawal request created", fiber.Map{"withdrawal": wd, "balance": balance}, nil)
}

// MyWithdrawals GET /api/v1/funding/withdrawals?status=
func (h *Handlers) MyWithdrawals(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	return h.listWithdrawals(c, actor.UserID)
}

// ListDeposits GET /api/v1/admin/deposits?status=&limit=&offset=
func (h *Handlers) ListDeposits(c *fiber.Ctx) error {
	return h.listDeposits(c, uuid.Nil)
}

// ListWithdrawals GET /api/v1/admin/withdrawals?status=&limit=&offset=
func (h *Handlers) ListWithdrawals(c *fiber.Ctx) error {
	return h.listWithdrawals(c, uuid.Nil)
}

type depositReviewBody struct {
	Status            string           `json:"status" validate:"required"`
	AdminNotes        *string          `json:"admin_notes"`
	SettlementDetails datatypes.JSON   `json:"settlement_details"`
	Amount            *decimal.Decimal `json:"amount"`
}

// ReviewDeposit PATCH /api/v1/admin/deposits/:id
func (h *Handlers) ReviewDeposit(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	depositID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body depositReviewBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	dep, err := h.Service.ReviewDeposit(c.UserContext(), fundsvc.DepositReview{
		DepositID:         depositID,
		ReviewerID:        actor.UserID,
		Status:            body.Status,
		AdminNotes:        body.AdminNotes,
		SettlementDetails: body.SettlementDetails,
		Amount:            body.Amount,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Deposit updated", dep, nil)
}

type withdrawalReviewBody struct {
	Status     string  `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes *string `json:"admin_notes"`
}

// ReviewWithdrawal PATCH /api/v1/admin/withdrawals/:id
func (h *Handlers) ReviewWithdrawal(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	withdrawalID, err := request.UUIDParam(c, "id")
	if err != nil {
		return err
	}
	var body withdrawalReviewBody
	if err := request.Bind(c, &body); err != nil {
		return err
	}
	wd, err := h.Service.ReviewWithdrawal(c.UserContext(), fundsvc.WithdrawalReview{
		WithdrawalID: withdrawalID,
		ReviewerID:   actor.UserID,
		Status:       body.Status,
		AdminNotes:   body.AdminNotes,
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Withdrawal updated", wd, nil)
}

func filterFrom(c *fiber.Ctx, userID uuid.UUID) (fundsvc.Filter, error) {
	limit, err := request.IntQuery(c, "limit", 50)
	if err != nil {
		return fundsvc.Filter{}, err
	}
	offset, err := request.IntQuery(c, "offset", 0)
	if err != nil {
		return fundsvc.Filter{}, err
	}
	return fundsvc.Filter{UserID: userID, Status: c.Query("status"), Limit: limit, Offset: offset}, nil
}

func (h *Handlers) listDeposits(c *fiber.Ctx, userID uuid.UUID) error {
	f, err := filterFrom(c, userID)
	if err != nil {
		return err
	}
	deps, err := h.Service.ListDeposits(c.UserContext(), f)
	if err != nil {
		return err
	}
	return response.List(c, "Deposits fetched successfully", deps, len(deps))
}

func (h *Handlers) listWithdrawals(c *fiber.Ctx, userID uuid.UUID) error {
	f, err := filterFrom(c, userID)
	if err != nil {
		return err
	}
	wds, err := h.Service.ListWithdrawals(c.UserContext(), f)
	if err != nil {
		return err
	}
	return response.List(c, "Withdrawals fetched successfully", wds, len(wds))
}
