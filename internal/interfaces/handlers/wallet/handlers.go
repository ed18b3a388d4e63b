package wallet

import (
	txsvc "brokerage-backend/internal/application/transactions"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /api/v1/wallet
func (h *Handlers) Wallet(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	view, err := h.Service.ViewWallet(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Wallet fetched successfully", view, nil)
}

// GET /api/v1/wallet/transactions?type=&limit=&offset=
func (h *Handlers) Transactions(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	limit, err := request.IntQuery(c, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := request.IntQuery(c, "offset", 0)
	if err != nil {
		return err
	}
	txs, err := h.Service.History(c.UserContext(), actor.UserID, c.Query("type"), limit, offset)
	if err != nil {
		return err
	}
	return response.Page(c, "Transactions fetched successfully", txs, response.PageMeta{Limit: limit, Offset: offset, Count: len(txs)})
}
