package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TradeBuy  = "buy"
	TradeSell = "sell"

	TradeStatusExecuted = "executed"
)

// Trade is the immutable record of one executed buy or sell.
type Trade struct {
	TradeID     uuid.UUID       `gorm:"column:trade_id;type:uuid;primaryKey" json:"trade_id"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	AssetType   string          `gorm:"column:asset_type;type:varchar(20);not null" json:"asset_type"`
	Symbol      string          `gorm:"column:symbol;type:varchar(20);not null" json:"symbol"`
	AssetName   string          `gorm:"column:asset_name" json:"asset_name"`
	TradeType   string          `gorm:"column:trade_type;type:varchar(4);not null" json:"trade_type"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:decimal(28,8);not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(28,8);not null" json:"price"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(20,2);not null" json:"total_amount"`
	Fee         decimal.Decimal `gorm:"column:fee;type:decimal(20,2);not null" json:"fee"`
	Status      string          `gorm:"column:status;type:varchar(20);not null" json:"status"`
	ExecutedAt  time.Time       `gorm:"column:executed_at;not null;index" json:"executed_at"`
}

func (Trade) TableName() string {
	return "Trades"
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.TradeID == uuid.Nil {
		t.TradeID = uuid.New()
	}
	return nil
}
