package trading

import (
	"context"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Portfolio is a user's holdings with aggregate totals.
type Portfolio struct {
	Holdings      []domain.Holding `json:"holdings"`
	TotalCost     decimal.Decimal  `json:"total_cost"`
	TotalValue    decimal.Decimal  `json:"total_value"`
	ProfitLoss    decimal.Decimal  `json:"profit_loss"`
	ProfitLossPct decimal.Decimal  `json:"profit_loss_pct"`
}

func summarize(holdings []domain.Holding) Portfolio {
	p := Portfolio{Holdings: holdings, TotalCost: decimal.Zero, TotalValue: decimal.Zero}
	for _, h := range holdings {
		p.TotalCost = p.TotalCost.Add(h.TotalCost)
		p.TotalValue = p.TotalValue.Add(h.CurrentValue)
	}
	p.TotalCost = ledger.Money(p.TotalCost)
	p.TotalValue = ledger.Money(p.TotalValue)
	p.ProfitLoss = ledger.Money(p.TotalValue.Sub(p.TotalCost))
	p.ProfitLossPct = ledger.Percent(p.ProfitLoss, p.TotalCost)
	return p
}

// ViewPortfolio returns holdings ordered by asset type and symbol.
func (s *Service) ViewPortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	var holdings []domain.Holding
	if err := s.Store.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset_type, symbol").
		Find(&holdings).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	p := summarize(holdings)
	return &p, nil
}

// ListTrades returns executed trades newest first.
func (s *Service) ListTrades(ctx context.Context, userID uuid.UUID, symbol string, limit int) ([]domain.Trade, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.Store.DB.WithContext(ctx).Where("user_id = ?", userID)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	var trades []domain.Trade
	if err := q.Order("executed_at DESC").Limit(limit).Find(&trades).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return trades, nil
}

// RefreshValuations re-prices every holding of the user from the price source.
// Untracked symbols keep their last price. Prices are fetched before the transaction
// opens so a slow source never holds row locks.
func (s *Service) RefreshValuations(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	var holdings []domain.Holding
	if err := s.Store.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&holdings).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	if len(holdings) == 0 || s.Prices == nil {
		p := summarize(holdings)
		return &p, nil
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(holdings))
	for _, h := range holdings {
		price, err := s.Prices.Price(ctx, h.AssetType, h.Symbol)
		if err != nil {
			log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Price lookup failed during refresh")
			continue
		}
		if price.IsPositive() {
			prices[h.HoldingID] = price
		}
	}

	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		for id, price := range prices {
			var h domain.Holding
			if err := tx.Lock(&h, "holding_id", id, "Holding"); err != nil {
				// Sold out since the read above.
				if ledger.IsNotFound(err) {
					continue
				}
				return err
			}
			revalue(&h, price)
			if err := tx.DB().Save(&h).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ViewPortfolio(ctx, userID)
}
