package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deposit methods.
const (
	MethodBankTransfer = "bank_transfer"
	MethodCrypto       = "crypto"
	MethodP2P          = "p2p"
)

// Deposit statuses. approved and rejected are terminal.
const (
	DepositPending              = "pending"
	DepositAwaitingPayment      = "awaiting_payment"
	DepositAwaitingConfirmation = "awaiting_confirmation"
	DepositPendingMatching      = "pending_matching"
	DepositApproved             = "approved"
	DepositRejected             = "rejected"
)

// DepositStatuses is the closed set an admin review may move a deposit to.
var DepositStatuses = []string{
	DepositPending,
	DepositAwaitingPayment,
	DepositAwaitingConfirmation,
	DepositPendingMatching,
	DepositApproved,
	DepositRejected,
}

// Withdrawal statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

// Deposit is a user request to bring external funds into the wallet.
type Deposit struct {
	DepositID         uuid.UUID       `gorm:"column:deposit_id;type:uuid;primaryKey" json:"deposit_id"`
	UserID            uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency          string          `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	Method            string          `gorm:"column:method;type:varchar(20);not null" json:"method"`
	PaymentDetails    datatypes.JSON  `gorm:"column:payment_details" json:"payment_details"`
	SettlementDetails datatypes.JSON  `gorm:"column:settlement_details" json:"settlement_details"`
	TransactionHash   *string         `gorm:"column:transaction_hash" json:"transaction_hash"`
	Status            string          `gorm:"column:status;type:varchar(30);not null;index" json:"status"`
	AdminNotes        *string         `gorm:"column:admin_notes" json:"admin_notes"`
	ReviewedAt        *time.Time      `gorm:"column:reviewed_at" json:"reviewed_at"`
	ReviewedBy        *uuid.UUID      `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func (Deposit) TableName() string {
	return "Deposits"
}

func (d *Deposit) BeforeCreate(tx *gorm.DB) error {
	if d.DepositID == uuid.Nil {
		d.DepositID = uuid.New()
	}
	return nil
}

// Withdrawal is a user request to move funds out. The amount leaves the wallet when the request is made.
type Withdrawal struct {
	WithdrawalID uuid.UUID       `gorm:"column:withdrawal_id;type:uuid;primaryKey" json:"withdrawal_id"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	Currency     string          `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	Method       string          `gorm:"column:method;type:varchar(20);not null" json:"method"`
	Destination  datatypes.JSON  `gorm:"column:destination" json:"destination"`
	Status       string          `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	AdminNotes   *string         `gorm:"column:admin_notes" json:"admin_notes"`
	ReviewedAt   *time.Time      `gorm:"column:reviewed_at" json:"reviewed_at"`
	ReviewedBy   *uuid.UUID      `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (Withdrawal) TableName() string {
	return "Withdrawals"
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.WithdrawalID == uuid.Nil {
		w.WithdrawalID = uuid.New()
	}
	return nil
}
