package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is the aggregated position of one user in one asset, costed at a weighted average.
// (user_id, asset_type, symbol) is unique.
type Holding struct {
	HoldingID     uuid.UUID       `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_holding_position" json:"user_id"`
	AssetType     string          `gorm:"column:asset_type;type:varchar(20);not null;uniqueIndex:idx_holding_position" json:"asset_type"`
	Symbol        string          `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:idx_holding_position" json:"symbol"`
	AssetName     string          `gorm:"column:asset_name" json:"asset_name"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:decimal(28,8);not null" json:"quantity"`
	AveragePrice  decimal.Decimal `gorm:"column:average_price;type:decimal(28,8);not null" json:"average_price"`
	CurrentPrice  decimal.Decimal `gorm:"column:current_price;type:decimal(28,8);not null" json:"current_price"`
	TotalCost     decimal.Decimal `gorm:"column:total_cost;type:decimal(20,2);not null" json:"total_cost"`
	CurrentValue  decimal.Decimal `gorm:"column:current_value;type:decimal(20,2);not null" json:"current_value"`
	ProfitLoss    decimal.Decimal `gorm:"column:profit_loss;type:decimal(20,2);not null" json:"profit_loss"`
	ProfitLossPct decimal.Decimal `gorm:"column:profit_loss_pct;type:decimal(10,2);not null" json:"profit_loss_pct"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Holding) TableName() string {
	return "Holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
