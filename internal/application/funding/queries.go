package funding

import (
	"context"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
)

// Filter narrows request listings. A nil UserID lists every user (admin views).
type Filter struct {
	UserID uuid.UUID
	Status string
	Limit  int
	Offset int
}

func (f Filter) limit() int {
	if f.Limit <= 0 || f.Limit > 200 {
		return 50
	}
	return f.Limit
}

func (s *Service) ListDeposits(ctx context.Context, f Filter) ([]domain.Deposit, error) {
	q := s.Store.DB.WithContext(ctx)
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		if !validDepositStatus(f.Status) {
			return nil, ledger.Validation("Unknown deposit status")
		}
		q = q.Where("status = ?", f.Status)
	}
	var out []domain.Deposit
	if err := q.Order("created_at DESC").Limit(f.limit()).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, f Filter) ([]domain.Withdrawal, error) {
	q := s.Store.DB.WithContext(ctx)
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	switch f.Status {
	case "":
	case domain.WithdrawalPending, domain.WithdrawalApproved, domain.WithdrawalRejected:
		q = q.Where("status = ?", f.Status)
	default:
		return nil, ledger.Validation("Unknown withdrawal status")
	}
	var out []domain.Withdrawal
	if err := q.Order("created_at DESC").Limit(f.limit()).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	return out, nil
}
