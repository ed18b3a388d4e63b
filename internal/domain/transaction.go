package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType carries the sign of Transaction.Amount, which is always stored as a magnitude.
type TransactionType string

const (
	TxDeposit          TransactionType = "deposit"
	TxWithdrawal       TransactionType = "withdrawal"
	TxTradeBuy         TransactionType = "trade_buy"
	TxTradeSell        TransactionType = "trade_sell"
	TxInvestmentPayout TransactionType = "investment_payout"
)

// Credit reports whether the type increases the wallet balance.
func (t TransactionType) Credit() bool {
	switch t {
	case TxDeposit, TxTradeSell, TxInvestmentPayout:
		return true
	}
	return false
}

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
)

// Transaction is the append-only audit log of ledger-affecting events.
type Transaction struct {
	TxID        uuid.UUID       `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type        TransactionType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"column:description" json:"description"`
	Status      string          `gorm:"column:status;type:varchar(20);not null;default:completed" json:"status"`
	ReferenceID *uuid.UUID      `gorm:"column:reference_id;type:uuid;index" json:"reference_id"`
	CreatedAt   time.Time       `gorm:"column:created_at;index" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "Transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
