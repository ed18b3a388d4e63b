package market

import (
	"strings"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/application/pricing"
	"brokerage-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves simulated market data.
type Handlers struct {
	Simulator *pricing.Simulator
	Prices    pricing.Source
}

// Quotes GET /api/v1/market/quotes?asset_type=stock|crypto
func (h *Handlers) Quotes(c *fiber.Ctx) error {
	assetType := strings.ToLower(c.Query("asset_type"))
	if assetType != "" && assetType != pricing.AssetStock && assetType != pricing.AssetCrypto {
		return ledger.Validation("asset_type must be stock or crypto")
	}
	quotes := h.Simulator.Quotes()
	out := make([]pricing.Quote, 0, len(quotes))
	for _, q := range quotes {
		if assetType == "" || q.AssetType == assetType {
			out = append(out, q)
		}
	}
	return response.List(c, "Quotes fetched successfully", out, len(out))
}

// Price GET /api/v1/market/price?asset_type=&symbol=
func (h *Handlers) Price(c *fiber.Ctx) error {
	assetType, symbol := c.Query("asset_type"), c.Query("symbol")
	if assetType == "" || symbol == "" {
		return ledger.Validation("asset_type and symbol are required")
	}
	if q, ok := h.Simulator.Quote(assetType, symbol); ok {
		return response.Success(c, "Price fetched successfully", q, nil)
	}
	p, err := h.Prices.Price(c.UserContext(), assetType, symbol)
	if err != nil {
		return err
	}
	if !p.IsPositive() {
		return ledger.NotFound("Price for " + pricing.Key(assetType, symbol))
	}
	return response.Success(c, "Price fetched successfully", fiber.Map{
		"asset_type": strings.ToLower(assetType),
		"symbol":     strings.ToUpper(symbol),
		"price":      p,
	}, nil)
}
