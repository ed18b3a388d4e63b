package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// EligibilityApplication is a user's request for access to a restricted (algorithm-managed) plan.
type EligibilityApplication struct {
	ApplicationID uuid.UUID      `gorm:"column:application_id;type:uuid;primaryKey" json:"application_id"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PlanID        uuid.UUID      `gorm:"column:plan_id;type:uuid;not null;index" json:"plan_id"`
	Answers       datatypes.JSON `gorm:"column:answers" json:"answers"`
	Status        string         `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	AdminNotes    *string        `gorm:"column:admin_notes" json:"admin_notes"`
	ReviewedAt    *time.Time     `gorm:"column:reviewed_at" json:"reviewed_at"`
	ReviewedBy    *uuid.UUID     `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (EligibilityApplication) TableName() string {
	return "EligibilityApplications"
}

func (a *EligibilityApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ApplicationID == uuid.Nil {
		a.ApplicationID = uuid.New()
	}
	return nil
}
