package investments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Service runs the plan catalog, subscriptions and the maturity sweep.
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

// Clock is the time the service treats as now.
func (s *Service) Clock() time.Time { return s.now() }

// Subscription is the outcome of Subscribe.
type Subscription struct {
	Investment  domain.UserInvestment `json:"investment"`
	Transaction domain.Transaction    `json:"transaction"`
	Balance     decimal.Decimal       `json:"balance"`
}

// Subscribe debits amount from the wallet and opens an investment maturing after the
// effective duration: the user's custom term when one was granted, else the plan's.
func (s *Service) Subscribe(ctx context.Context, userID, planID uuid.UUID, amount decimal.Decimal) (*Subscription, error) {
	if userID == uuid.Nil {
		return nil, ledger.Validation("user_id is required")
	}
	amount = ledger.Money(amount)
	if !amount.IsPositive() {
		return nil, ledger.Validation("Amount must be greater than zero")
	}
	start := s.now()

	var out Subscription
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(userID)
		if err != nil {
			return err
		}

		var plan domain.InvestmentPlan
		if err := tx.DB().Where("plan_id = ?", planID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.PlanNotFound()
			}
			return err
		}
		var access *domain.PlanAccess
		var acc domain.PlanAccess
		err = tx.DB().Where("user_id = ? AND plan_id = ?", userID, planID).First(&acc).Error
		switch {
		case err == nil:
			access = &acc
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		if !plan.IsActive && access == nil {
			return ledger.PlanNotFound()
		}

		if amount.LessThan(plan.MinAmount) || amount.GreaterThan(plan.MaxAmount) {
			return ledger.AmountOutOfRange(amount, plan.MinAmount, plan.MaxAmount)
		}
		if err := tx.DebitWallet(w, amount); err != nil {
			return err
		}

		days := plan.DurationDays
		var custom *int
		if access != nil && access.CustomDurationDays != nil {
			d := *access.CustomDurationDays
			days, custom = d, &d
		}
		inv := domain.UserInvestment{
			UserID:             userID,
			PlanID:             plan.PlanID,
			Amount:             amount,
			StartDate:          start,
			EndDate:            start.AddDate(0, 0, days),
			Status:             domain.InvestmentActive,
			ExpectedReturn:     ledger.Money(amount.Mul(plan.ReturnPercentage).Div(hundred)),
			CustomDurationDays: custom,
		}
		if err := tx.DB().Create(&inv).Error; err != nil {
			return err
		}

		rec := domain.Transaction{
			UserID:      userID,
			Type:        domain.TxTradeBuy,
			Amount:      amount,
			Description: fmt.Sprintf("Investment in %s", plan.Name),
			ReferenceID: &inv.InvestmentID,
			CreatedAt:   start,
		}
		if err := tx.AppendTransaction(&rec); err != nil {
			return err
		}
		out = Subscription{Investment: inv, Transaction: rec, Balance: w.Balance}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Str("plan_id", planID.String()).Msg("Subscription rejected")
		return nil, err
	}
	log.Info().
		Str("user_id", userID.String()).
		Str("investment_id", out.Investment.InvestmentID.String()).
		Str("amount", amount.StringFixed(ledger.MoneyPlaces)).
		Time("end_date", out.Investment.EndDate).
		Msg("Investment opened")
	return &out, nil
}

// OverrideDuration re-terms an active investment. customDurationDays and endDate
// always change together; endDate counts from the original start.
func (s *Service) OverrideDuration(ctx context.Context, investmentID uuid.UUID, days int) (*domain.UserInvestment, error) {
	if days <= 0 {
		return nil, ledger.Validation("duration_days must be greater than zero")
	}
	var inv domain.UserInvestment
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&inv, "investment_id", investmentID, "Investment"); err != nil {
			return err
		}
		if inv.Status != domain.InvestmentActive {
			return ledger.InvalidTransition("Only active investments can be re-termed", inv.Status, inv.Status)
		}
		inv.CustomDurationDays = &days
		inv.EndDate = inv.StartDate.AddDate(0, 0, days)
		return tx.DB().Model(&domain.UserInvestment{}).
			Where("investment_id = ?", inv.InvestmentID).
			Updates(map[string]interface{}{"custom_duration_days": days, "end_date": inv.EndDate}).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("investment_id", investmentID.String()).Int("days", days).Time("end_date", inv.EndDate).Msg("Investment duration overridden")
	return &inv, nil
}

// SweepResult summarises one maturity run.
type SweepResult struct {
	Due     int             `json:"due"`
	Matured int             `json:"matured"`
	Failed  int             `json:"failed"`
	PaidOut decimal.Decimal `json:"paid_out"`
}

// MatureDue pays out every active investment whose end date has passed. Each payout
// runs in its own transaction and only after the row moved ACTIVE → MATURED, so
// overlapping or repeated runs credit each investment exactly once.
func (s *Service) MatureDue(ctx context.Context, now time.Time) (*SweepResult, error) {
	now = now.UTC()
	var due []domain.UserInvestment
	if err := s.Store.DB.WithContext(ctx).
		Where("status = ? AND end_date <= ?", domain.InvestmentActive, now).
		Order("end_date ASC").
		Find(&due).Error; err != nil {
		return nil, ledger.Persistence(err)
	}

	res := &SweepResult{Due: len(due), PaidOut: decimal.Zero}
	for _, inv := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		payout := ledger.Money(inv.Amount.Add(inv.ExpectedReturn))
		paid := false
		err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
			w, err := tx.LockWallet(inv.UserID)
			if err != nil {
				return err
			}
			upd := tx.DB().Model(&domain.UserInvestment{}).
				Where("investment_id = ? AND status = ?", inv.InvestmentID, domain.InvestmentActive).
				Updates(map[string]interface{}{"status": domain.InvestmentMatured, "paid_out_at": now})
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected != 1 {
				return nil
			}
			if err := tx.CreditWallet(w, payout); err != nil {
				return err
			}
			paid = true
			return tx.AppendTransaction(&domain.Transaction{
				UserID:      inv.UserID,
				Type:        domain.TxInvestmentPayout,
				Amount:      payout,
				Description: "Investment matured",
				ReferenceID: &inv.InvestmentID,
				CreatedAt:   now,
			})
		})
		if err != nil {
			res.Failed++
			log.Error().Err(err).Str("investment_id", inv.InvestmentID.String()).Msg("Maturity payout failed")
			continue
		}
		if paid {
			res.Matured++
			res.PaidOut = res.PaidOut.Add(payout)
			log.Info().Str("investment_id", inv.InvestmentID.String()).Str("user_id", inv.UserID.String()).
				Str("payout", payout.StringFixed(ledger.MoneyPlaces)).Msg("Investment matured")
		}
	}
	return res, nil
}

// ListMine returns the user's investments newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.UserInvestment, error) {
	var out []domain.UserInvestment
	if err := s.Store.DB.WithContext(ctx).Where("user_id = ?", userID).Order("start_date DESC").Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}

// ListInvestments is the admin view, optionally filtered by status.
func (s *Service) ListInvestments(ctx context.Context, status string) ([]domain.UserInvestment, error) {
	q := s.Store.DB.WithContext(ctx)
	switch status {
	case "":
	case domain.InvestmentActive, domain.InvestmentMatured:
		q = q.Where("status = ?", status)
	default:
		return nil, ledger.Validation("Unknown investment status")
	}
	var out []domain.UserInvestment
	if err := q.Order("end_date ASC").Limit(200).Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}
