package trading

import (
	"brokerage-backend/internal/application/ledger"
	tradesvc "brokerage-backend/internal/application/trading"
	"brokerage-backend/internal/interfaces/handlers/request"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *tradesvc.Service
}

type orderBody struct {
	AssetType string          `json:"asset_type" validate:"required,oneof=stock crypto"`
	Symbol    string          `json:"symbol" validate:"required,symbol"`
	AssetName string          `json:"asset_name" validate:"max=100"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
}

// order binds the body and fills in the market price when the client sent none.
func (h *Handlers) order(c *fiber.Ctx) (tradesvc.Order, error) {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return tradesvc.Order{}, err
	}
	var body orderBody
	if err := request.Bind(c, &body); err != nil {
		return tradesvc.Order{}, err
	}
	price := body.Price
	if price.IsNegative() {
		return tradesvc.Order{}, ledger.Validation("Price must be a positive number")
	}
	if price.IsZero() && h.Service.Prices != nil {
		price, err = h.Service.Prices.Price(c.UserContext(), body.AssetType, body.Symbol)
		if err != nil {
			return tradesvc.Order{}, err
		}
		if !price.IsPositive() {
			return tradesvc.Order{}, ledger.Validation("No market price for " + body.Symbol + "; send a price")
		}
	}
	return tradesvc.Order{
		UserID:    actor.UserID,
		AssetType: body.AssetType,
		Symbol:    body.Symbol,
		AssetName: body.AssetName,
		Quantity:  body.Quantity,
		Price:     price,
	}, nil
}

// Buy POST /api/v1/trading/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	o, err := h.order(c)
	if err != nil {
		return err
	}
	s, err := h.Service.Buy(c.UserContext(), o)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Buy order executed", s, nil)
}

// Sell POST /api/v1/trading/sell
func (h *Handlers) Sell(c *fiber.Ctx) error {
	o, err := h.order(c)
	if err != nil {
		return err
	}
	s, err := h.Service.Sell(c.UserContext(), o)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Sell order executed", s, nil)
}

// Holdings GET /api/v1/trading/holdings
func (h *Handlers) Holdings(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	p, err := h.Service.ViewPortfolio(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Holdings fetched successfully", p, nil)
}

// Refresh POST /api/v1/trading/refresh revalues holdings at current prices.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	p, err := h.Service.RefreshValuations(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "Holdings revalued", p, nil)
}

// Trades GET /api/v1/trading/trades?symbol=&limit=
func (h *Handlers) Trades(c *fiber.Ctx) error {
	actor, err := request.CurrentActor(c)
	if err != nil {
		return err
	}
	limit, err := request.IntQuery(c, "limit", 50)
	if err != nil {
		return err
	}
	trades, err := h.Service.ListTrades(c.UserContext(), actor.UserID, c.Query("symbol"), limit)
	if err != nil {
		return err
	}
	return response.List(c, "Trades fetched successfully", trades, len(trades))
}
