package investments

import (
	"context"
	"errors"
	"strings"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PlanInput creates a plan. Nil fields in an update keep their current value.
type PlanInput struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	MinAmount        *decimal.Decimal `json:"min_amount"`
	MaxAmount        *decimal.Decimal `json:"max_amount"`
	ReturnPercentage *decimal.Decimal `json:"return_percentage"`
	DurationDays     *int             `json:"duration_days"`
	IsActive         *bool            `json:"is_active"`
}

func (in PlanInput) apply(p *domain.InvestmentPlan) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.MinAmount != nil {
		p.MinAmount = ledger.Money(*in.MinAmount)
	}
	if in.MaxAmount != nil {
		p.MaxAmount = ledger.Money(*in.MaxAmount)
	}
	if in.ReturnPercentage != nil {
		p.ReturnPercentage = in.ReturnPercentage.Round(2)
	}
	if in.DurationDays != nil {
		p.DurationDays = *in.DurationDays
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func checkPlan(p *domain.InvestmentPlan) error {
	switch {
	case p.Name == "":
		return ledger.Validation("Name is required")
	case !p.MinAmount.IsPositive():
		return ledger.Validation("min_amount must be greater than zero")
	case p.MaxAmount.LessThan(p.MinAmount):
		return ledger.Validation("max_amount must not be below min_amount")
	case p.ReturnPercentage.IsNegative():
		return ledger.Validation("return_percentage must not be negative")
	case p.DurationDays <= 0:
		return ledger.Validation("duration_days must be greater than zero")
	}
	return nil
}

// CreatePlan adds a catalog entry. Plans are active unless IsActive says otherwise.
func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*domain.InvestmentPlan, error) {
	p := domain.InvestmentPlan{IsActive: true}
	in.apply(&p)
	if err := checkPlan(&p); err != nil {
		return nil, err
	}
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		var n int64
		if err := tx.DB().Model(&domain.InvestmentPlan{}).Where("name = ?", p.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ledger.Validation("A plan with this name already exists")
		}
		return tx.DB().Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("plan_id", p.PlanID.String()).Str("name", p.Name).Msg("Investment plan created")
	return &p, nil
}

// UpdatePlan changes catalog fields. Existing subscriptions keep their terms.
func (s *Service) UpdatePlan(ctx context.Context, planID uuid.UUID, in PlanInput) (*domain.InvestmentPlan, error) {
	var p domain.InvestmentPlan
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&p, "plan_id", planID, "Investment plan"); err != nil {
			if ledger.IsNotFound(err) {
				return ledger.PlanNotFound()
			}
			return err
		}
		in.apply(&p)
		if err := checkPlan(&p); err != nil {
			return err
		}
		return tx.DB().Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	var p domain.InvestmentPlan
	if err := s.Store.DB.WithContext(ctx).Where("plan_id = ?", planID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.PlanNotFound()
		}
		return nil, ledger.Persistence(err)
	}
	return &p, nil
}

// PlanOffer is a plan as seen by one user: the catalog entry plus any personal term.
type PlanOffer struct {
	domain.InvestmentPlan
	CustomDurationDays    *int `json:"custom_duration_days"`
	EffectiveDurationDays int  `json:"effective_duration_days"`
	SpecialAccess         bool `json:"special_access"`
}

// ListPlans returns active plans plus inactive ones the user was granted access to.
// A zero userID lists the whole catalog (admin view).
func (s *Service) ListPlans(ctx context.Context, userID uuid.UUID) ([]PlanOffer, error) {
	db := s.Store.DB.WithContext(ctx)
	var plans []domain.InvestmentPlan
	if err := db.Order("min_amount ASC, name ASC").Find(&plans).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	access := map[uuid.UUID]domain.PlanAccess{}
	if userID != uuid.Nil {
		var grants []domain.PlanAccess
		if err := db.Where("user_id = ?", userID).Find(&grants).Error; err != nil {
			return nil, ledger.Persistence(err)
		}
		for _, g := range grants {
			access[g.PlanID] = g
		}
	}

	out := make([]PlanOffer, 0, len(plans))
	for _, p := range plans {
		g, granted := access[p.PlanID]
		if userID != uuid.Nil && !p.IsActive && !granted {
			continue
		}
		offer := PlanOffer{InvestmentPlan: p, EffectiveDurationDays: p.DurationDays, SpecialAccess: granted}
		if granted && g.CustomDurationDays != nil {
			offer.CustomDurationDays = g.CustomDurationDays
			offer.EffectiveDurationDays = *g.CustomDurationDays
		}
		out = append(out, offer)
	}
	return out, nil
}

// Grant gives a user access to a plan, optionally with a personal duration.
type Grant struct {
	UserID             uuid.UUID
	PlanID             uuid.UUID
	CustomDurationDays *int
	GrantedBy          uuid.UUID
}

// UpsertAccess creates or replaces the user's access row for the plan inside tx.
func UpsertAccess(tx *ledger.Tx, g Grant) (*domain.PlanAccess, error) {
	if g.CustomDurationDays != nil && *g.CustomDurationDays <= 0 {
		return nil, ledger.Validation("custom_duration_days must be greater than zero")
	}
	var plan domain.InvestmentPlan
	if err := tx.Lock(&plan, "plan_id", g.PlanID, "Investment plan"); err != nil {
		if ledger.IsNotFound(err) {
			return nil, ledger.PlanNotFound()
		}
		return nil, err
	}
	grantedBy := g.GrantedBy

	var acc domain.PlanAccess
	err := tx.DB().Where("user_id = ? AND plan_id = ?", g.UserID, g.PlanID).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		acc = domain.PlanAccess{UserID: g.UserID, PlanID: g.PlanID, CustomDurationDays: g.CustomDurationDays, GrantedBy: &grantedBy}
		if err := tx.DB().Create(&acc).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		acc.CustomDurationDays = g.CustomDurationDays
		acc.GrantedBy = &grantedBy
		if err := tx.DB().Save(&acc).Error; err != nil {
			return nil, err
		}
	}
	return &acc, nil
}

// GrantAccess is UpsertAccess in its own transaction.
func (s *Service) GrantAccess(ctx context.Context, g Grant) (*domain.PlanAccess, error) {
	if g.UserID == uuid.Nil {
		return nil, ledger.Validation("user_id is required")
	}
	var acc *domain.PlanAccess
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		var user domain.User
		if err := tx.DB().Select("user_id").Where("user_id = ?", g.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.NotFound("User")
			}
			return err
		}
		var err error
		acc, err = UpsertAccess(tx, g)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", g.UserID.String()).Str("plan_id", g.PlanID.String()).Msg("Plan access granted")
	return acc, nil
}
