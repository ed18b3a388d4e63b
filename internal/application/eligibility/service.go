package eligibility

import (
	"context"
	"errors"
	"strings"
	"time"

	"brokerage-backend/internal/application/investments"
	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service runs the application workflow for algorithm-managed plans. An approved
// application becomes a PlanAccess grant.
type Service struct {
	Store *ledger.Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Apply opens an application. A user has at most one pending application per plan,
// and none once access was granted.
func (s *Service) Apply(ctx context.Context, userID, planID uuid.UUID, answers datatypes.JSON) (*domain.EligibilityApplication, error) {
	if userID == uuid.Nil || planID == uuid.Nil {
		return nil, ledger.Validation("user_id and plan_id are required")
	}
	var app domain.EligibilityApplication
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		var plan domain.InvestmentPlan
		if err := tx.DB().Select("plan_id").Where("plan_id = ?", planID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.PlanNotFound()
			}
			return err
		}
		var n int64
		if err := tx.DB().Model(&domain.EligibilityApplication{}).
			Where("user_id = ? AND plan_id = ? AND status = ?", userID, planID, domain.ApplicationPending).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ledger.InvalidTransition("An application for this plan is already pending", domain.ApplicationPending, domain.ApplicationPending)
		}
		if err := tx.DB().Model(&domain.PlanAccess{}).Where("user_id = ? AND plan_id = ?", userID, planID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ledger.InvalidTransition("Access to this plan was already granted", domain.ApplicationApproved, domain.ApplicationPending)
		}
		app = domain.EligibilityApplication{UserID: userID, PlanID: planID, Answers: answers, Status: domain.ApplicationPending}
		return tx.DB().Create(&app).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID.String()).Str("plan_id", planID.String()).Msg("Eligibility application submitted")
	return &app, nil
}

type Decision struct {
	ApplicationID      uuid.UUID
	ReviewerID         uuid.UUID
	Status             string
	CustomDurationDays *int
	AdminNotes         *string
}

// Review approves or rejects a pending application. Approval grants plan access
// in the same transaction.
func (s *Service) Review(ctx context.Context, d Decision) (*domain.EligibilityApplication, error) {
	status := strings.ToLower(strings.TrimSpace(d.Status))
	if status != domain.ApplicationApproved && status != domain.ApplicationRejected {
		return nil, ledger.Validation("Status must be approved or rejected")
	}
	now := s.now()
	var app domain.EligibilityApplication
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&app, "application_id", d.ApplicationID, "Application"); err != nil {
			return err
		}
		if app.Status != domain.ApplicationPending {
			return ledger.AlreadyReviewed(app.Status)
		}
		if status == domain.ApplicationApproved {
			if _, err := investments.UpsertAccess(tx, investments.Grant{
				UserID:             app.UserID,
				PlanID:             app.PlanID,
				CustomDurationDays: d.CustomDurationDays,
				GrantedBy:          d.ReviewerID,
			}); err != nil {
				return err
			}
		}
		reviewer := d.ReviewerID
		app.Status = status
		app.ReviewedAt = &now
		app.ReviewedBy = &reviewer
		if d.AdminNotes != nil {
			app.AdminNotes = d.AdminNotes
		}
		return tx.DB().Save(&app).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("application_id", app.ApplicationID.String()).Str("status", status).Msg("Eligibility application reviewed")
	return &app, nil
}

func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.EligibilityApplication, error) {
	var out []domain.EligibilityApplication
	if err := s.Store.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, status string) ([]domain.EligibilityApplication, error) {
	q := s.Store.DB.WithContext(ctx)
	switch status {
	case "":
	case domain.ApplicationPending, domain.ApplicationApproved, domain.ApplicationRejected:
		q = q.Where("status = ?", status)
	default:
		return nil, ledger.Validation("Unknown application status")
	}
	var out []domain.EligibilityApplication
	if err := q.Order("created_at ASC").Limit(200).Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}
