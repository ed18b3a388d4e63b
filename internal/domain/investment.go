package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	InvestmentActive  = "ACTIVE"
	InvestmentMatured = "MATURED"
)

// InvestmentPlan is an admin-managed fixed-term product.
type InvestmentPlan struct {
	PlanID           uuid.UUID       `gorm:"column:plan_id;type:uuid;primaryKey" json:"plan_id"`
	Name             string          `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description      string          `gorm:"column:description" json:"description"`
	MinAmount        decimal.Decimal `gorm:"column:min_amount;type:decimal(20,2);not null" json:"min_amount"`
	MaxAmount        decimal.Decimal `gorm:"column:max_amount;type:decimal(20,2);not null" json:"max_amount"`
	ReturnPercentage decimal.Decimal `gorm:"column:return_percentage;type:decimal(10,2);not null" json:"return_percentage"`
	DurationDays     int             `gorm:"column:duration_days;not null" json:"duration_days"`
	IsActive         bool            `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (InvestmentPlan) TableName() string {
	return "InvestmentPlans"
}

func (p *InvestmentPlan) BeforeCreate(tx *gorm.DB) error {
	if p.PlanID == uuid.Nil {
		p.PlanID = uuid.New()
	}
	return nil
}

// PlanAccess grants one user special access to a plan, optionally with its own term length.
type PlanAccess struct {
	AccessID           uuid.UUID  `gorm:"column:access_id;type:uuid;primaryKey" json:"access_id"`
	UserID             uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_plan_access" json:"user_id"`
	PlanID             uuid.UUID  `gorm:"column:plan_id;type:uuid;not null;uniqueIndex:idx_plan_access" json:"plan_id"`
	CustomDurationDays *int       `gorm:"column:custom_duration_days" json:"custom_duration_days"`
	GrantedBy          *uuid.UUID `gorm:"column:granted_by;type:uuid" json:"granted_by"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (PlanAccess) TableName() string {
	return "PlanAccesses"
}

func (a *PlanAccess) BeforeCreate(tx *gorm.DB) error {
	if a.AccessID == uuid.Nil {
		a.AccessID = uuid.New()
	}
	return nil
}

// UserInvestment is one subscription to a plan. EndDate is the authoritative maturity date.
type UserInvestment struct {
	InvestmentID       uuid.UUID       `gorm:"column:investment_id;type:uuid;primaryKey" json:"investment_id"`
	UserID             uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PlanID             uuid.UUID       `gorm:"column:plan_id;type:uuid;not null;index" json:"plan_id"`
	Amount             decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	StartDate          time.Time       `gorm:"column:start_date;not null" json:"start_date"`
	EndDate            time.Time       `gorm:"column:end_date;not null;index" json:"end_date"`
	Status             string          `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	ExpectedReturn     decimal.Decimal `gorm:"column:expected_return;type:decimal(20,2);not null" json:"expected_return"`
	CustomDurationDays *int            `gorm:"column:custom_duration_days" json:"custom_duration_days"`
	PaidOutAt          *time.Time      `gorm:"column:paid_out_at" json:"paid_out_at"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (UserInvestment) TableName() string {
	return "UserInvestments"
}

func (i *UserInvestment) BeforeCreate(tx *gorm.DB) error {
	if i.InvestmentID == uuid.Nil {
		i.InvestmentID = uuid.New()
	}
	return nil
}
