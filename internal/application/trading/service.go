package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/application/pricing"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// feeRate is charged on the gross amount of every trade (0.1%).
var feeRate = decimal.RequireFromString("0.001")

// FeeRate returns the trading fee as a fraction of the gross amount.
func FeeRate() decimal.Decimal { return feeRate }

// Service settles trades against the ledger. Prices come from the order; Prices is
// only used for valuation refresh and quote lookups.
type Service struct {
	Store  *ledger.Store
	Prices pricing.Source
	Now    func() time.Time
}

// Order is a buy or sell intent at a caller-supplied price.
type Order struct {
	UserID    uuid.UUID
	AssetType string
	Symbol    string
	AssetName string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
}

// Settlement is the result of one executed trade. Holding is nil when a sell closed the position.
type Settlement struct {
	Trade       domain.Trade       `json:"trade"`
	Holding     *domain.Holding    `json:"holding"`
	Transaction domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Order) normalize() error {
	if o.UserID == uuid.Nil {
		return ledger.Validation("user_id is required")
	}
	o.AssetType = strings.ToLower(strings.TrimSpace(o.AssetType))
	o.Symbol = strings.ToUpper(strings.TrimSpace(o.Symbol))
	o.AssetName = strings.TrimSpace(o.AssetName)
	if o.AssetType == "" || o.Symbol == "" {
		return ledger.Validation("asset_type and symbol are required")
	}
	o.Quantity = ledger.Quantity(o.Quantity)
	o.Price = ledger.Quantity(o.Price)
	if !o.Quantity.IsPositive() {
		return ledger.Validation("Quantity must be a positive number")
	}
	if !o.Price.IsPositive() {
		return ledger.Validation("Price must be a positive number")
	}
	if o.AssetName == "" {
		o.AssetName = o.Symbol
	}
	return nil
}

// Quote prices a trade of quantity at price. net is the wallet change magnitude,
// rounded once from the unrounded product (gross×1.001 for a buy, gross×0.999 for
// a sell); fee is the difference between net and the rounded gross total.
func Quote(side string, quantity, price decimal.Decimal) (total, fee, net decimal.Decimal) {
	gross := quantity.Mul(price)
	total = ledger.Money(gross)
	if side == domain.TradeSell {
		net = ledger.Money(gross.Mul(decimal.NewFromInt(1).Sub(feeRate)))
		return total, total.Sub(net), net
	}
	net = ledger.Money(gross.Mul(decimal.NewFromInt(1).Add(feeRate)))
	return total, net.Sub(total), net
}

// revalue recomputes the market-dependent fields from quantity, total cost and price.
func revalue(h *domain.Holding, price decimal.Decimal) {
	h.CurrentPrice = price
	h.CurrentValue = ledger.Money(h.Quantity.Mul(price))
	h.ProfitLoss = ledger.Money(h.CurrentValue.Sub(h.TotalCost))
	h.ProfitLossPct = ledger.Percent(h.ProfitLoss, h.TotalCost)
}

// Buy debits quantity×price plus fee, records the trade and grows the position at a
// cost-weighted average price.
func (s *Service) Buy(ctx context.Context, o Order) (*Settlement, error) {
	if err := o.normalize(); err != nil {
		return nil, err
	}
	total, fee, cost := Quote(domain.TradeBuy, o.Quantity, o.Price)
	now := s.now()

	var out Settlement
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(o.UserID)
		if err != nil {
			return err
		}
		if err := tx.DebitWallet(w, cost); err != nil {
			return err
		}

		trade := domain.Trade{
			UserID:      o.UserID,
			AssetType:   o.AssetType,
			Symbol:      o.Symbol,
			AssetName:   o.AssetName,
			TradeType:   domain.TradeBuy,
			Quantity:    o.Quantity,
			Price:       o.Price,
			TotalAmount: total,
			Fee:         fee,
			Status:      domain.TradeStatusExecuted,
			ExecutedAt:  now,
		}
		if err := tx.DB().Create(&trade).Error; err != nil {
			return err
		}

		h, err := tx.LockHolding(o.UserID, o.AssetType, o.Symbol)
		if err != nil {
			return err
		}
		if h == nil {
			h = &domain.Holding{
				UserID:       o.UserID,
				AssetType:    o.AssetType,
				Symbol:       o.Symbol,
				AssetName:    o.AssetName,
				Quantity:     o.Quantity,
				AveragePrice: o.Price,
				TotalCost:    total,
			}
			revalue(h, o.Price)
			if err := tx.DB().Create(h).Error; err != nil {
				return err
			}
		} else {
			newQty := ledger.Quantity(h.Quantity.Add(o.Quantity))
			h.AveragePrice = ledger.Quantity(h.Quantity.Mul(h.AveragePrice).Add(total).Div(newQty))
			h.Quantity = newQty
			h.TotalCost = ledger.Money(h.TotalCost.Add(total))
			revalue(h, o.Price)
			if err := tx.DB().Save(h).Error; err != nil {
				return err
			}
		}

		rec := domain.Transaction{
			UserID:      o.UserID,
			Type:        domain.TxTradeBuy,
			Amount:      cost,
			Description: fmt.Sprintf("Bought %s %s @ %s", o.Quantity, o.Symbol, o.Price),
			ReferenceID: &trade.TradeID,
			CreatedAt:   now,
		}
		if err := tx.AppendTransaction(&rec); err != nil {
			return err
		}

		out = Settlement{Trade: trade, Holding: h, Transaction: rec, Balance: w.Balance}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", o.UserID.String()).Str("symbol", o.Symbol).Msg("Buy rejected")
		return nil, err
	}

	log.Info().
		Str("user_id", o.UserID.String()).
		Str("trade_id", out.Trade.TradeID.String()).
		Str("symbol", o.Symbol).
		Str("quantity", o.Quantity.String()).
		Str("cost", cost.StringFixed(ledger.MoneyPlaces)).
		Msg("Buy settled")
	return &out, nil
}

// Sell credits quantity×price minus fee. The average price of the remaining position is
// unchanged; a remainder at or below the dust threshold closes the position.
func (s *Service) Sell(ctx context.Context, o Order) (*Settlement, error) {
	if err := o.normalize(); err != nil {
		return nil, err
	}
	total, fee, proceeds := Quote(domain.TradeSell, o.Quantity, o.Price)
	now := s.now()

	var out Settlement
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(o.UserID)
		if err != nil {
			return err
		}
		h, err := tx.LockHolding(o.UserID, o.AssetType, o.Symbol)
		if err != nil {
			return err
		}
		if h == nil {
			return ledger.NoSuchHolding(o.AssetType, o.Symbol)
		}
		if h.Quantity.LessThan(o.Quantity) {
			return ledger.InsufficientHoldings(o.Quantity, h.Quantity)
		}

		if err := tx.CreditWallet(w, proceeds); err != nil {
			return err
		}

		trade := domain.Trade{
			UserID:      o.UserID,
			AssetType:   o.AssetType,
			Symbol:      o.Symbol,
			AssetName:   h.AssetName,
			TradeType:   domain.TradeSell,
			Quantity:    o.Quantity,
			Price:       o.Price,
			TotalAmount: total,
			Fee:         fee,
			Status:      domain.TradeStatusExecuted,
			ExecutedAt:  now,
		}
		if err := tx.DB().Create(&trade).Error; err != nil {
			return err
		}

		remaining := ledger.Quantity(h.Quantity.Sub(o.Quantity))
		if remaining.LessThanOrEqual(ledger.DustThreshold) {
			if err := tx.DB().Delete(h).Error; err != nil {
				return err
			}
			h = nil
		} else {
			h.Quantity = remaining
			h.TotalCost = ledger.Money(h.AveragePrice.Mul(remaining))
			revalue(h, o.Price)
			if err := tx.DB().Save(h).Error; err != nil {
				return err
			}
		}

		rec := domain.Transaction{
			UserID:      o.UserID,
			Type:        domain.TxTradeSell,
			Amount:      proceeds,
			Description: fmt.Sprintf("Sold %s %s @ %s", o.Quantity, o.Symbol, o.Price),
			ReferenceID: &trade.TradeID,
			CreatedAt:   now,
		}
		if err := tx.AppendTransaction(&rec); err != nil {
			return err
		}

		out = Settlement{Trade: trade, Holding: h, Transaction: rec, Balance: w.Balance}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", o.UserID.String()).Str("symbol", o.Symbol).Msg("Sell rejected")
		return nil, err
	}

	log.Info().
		Str("user_id", o.UserID.String()).
		Str("trade_id", out.Trade.TradeID.String()).
		Str("symbol", o.Symbol).
		Str("quantity", o.Quantity.String()).
		Str("proceeds", proceeds.StringFixed(ledger.MoneyPlaces)).
		Bool("closed", out.Holding == nil).
		Msg("Sell settled")
	return &out, nil
}
