package funding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Service handles external fund requests. Users open deposits and withdrawals;
// admins move them through review. Wallet effects happen only in approved or
// rejected transitions, each guarded by the row's prior status.
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

func validMethod(m string) bool {
	switch m {
	case domain.MethodBankTransfer, domain.MethodCrypto, domain.MethodP2P:
		return true
	}
	return false
}

func validDepositStatus(status string) bool {
	for _, st := range domain.DepositStatuses {
		if st == status {
			return true
		}
	}
	return false
}

func checkRequest(userID uuid.UUID, amount decimal.Decimal, method string) (decimal.Decimal, string, error) {
	if userID == uuid.Nil {
		return amount, method, ledger.Validation("user_id is required")
	}
	amount = ledger.Money(amount)
	if !amount.IsPositive() {
		return amount, method, ledger.Validation("Amount must be greater than zero")
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if !validMethod(method) {
		return amount, method, ledger.Validation("Method must be one of bank_transfer, crypto, p2p")
	}
	return amount, method, nil
}

// DepositRequest opens a deposit.
type DepositRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         string
	PaymentDetails datatypes.JSON
}

// CreateDeposit records a pending deposit in the wallet's currency. The wallet is not
// touched until an admin approves it.
func (s *Service) CreateDeposit(ctx context.Context, req DepositRequest) (*domain.Deposit, error) {
	amount, method, err := checkRequest(req.UserID, req.Amount, req.Method)
	if err != nil {
		return nil, err
	}
	var dep domain.Deposit
	err = s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(req.UserID)
		if err != nil {
			return err
		}
		dep = domain.Deposit{
			UserID:         req.UserID,
			Amount:         amount,
			Currency:       w.Currency,
			Method:         method,
			PaymentDetails: req.PaymentDetails,
			Status:         domain.DepositPending,
		}
		return tx.DB().Create(&dep).Error
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", req.UserID.String()).Str("deposit_id", dep.DepositID.String()).
		Str("amount", amount.StringFixed(ledger.MoneyPlaces)).Str("method", method).Msg("Deposit requested")
	return &dep, nil
}

// ConfirmDeposit is the user's "payment sent" signal. It moves an open deposit to
// awaiting_confirmation and records the transaction hash when one is given.
func (s *Service) ConfirmDeposit(ctx context.Context, userID, depositID uuid.UUID, txHash string) (*domain.Deposit, error) {
	txHash = strings.TrimSpace(txHash)
	var dep domain.Deposit
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&dep, "deposit_id", depositID, "Deposit"); err != nil {
			return err
		}
		if dep.UserID != userID {
			return ledger.NotFound("Deposit")
		}
		switch dep.Status {
		case domain.DepositPending, domain.DepositAwaitingPayment, domain.DepositPendingMatching:
		default:
			return ledger.InvalidTransition("Deposit can no longer be confirmed", dep.Status, domain.DepositAwaitingConfirmation)
		}
		if txHash != "" {
			dep.TransactionHash = &txHash
		}
		dep.Status = domain.DepositAwaitingConfirmation
		return tx.DB().Save(&dep).Error
	})
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// DepositReview is an admin decision on a deposit. Amount, when set, corrects the
// credited amount on approval.
type DepositReview struct {
	DepositID         uuid.UUID
	ReviewerID        uuid.UUID
	Status            string
	AdminNotes        *string
	SettlementDetails datatypes.JSON
	Amount            *decimal.Decimal
}

// ReviewDeposit moves a deposit to review.Status. Approval is only allowed from
// awaiting_confirmation, needs a transaction hash for crypto, and credits the wallet
// exactly once. approved and rejected are terminal.
func (s *Service) ReviewDeposit(ctx context.Context, review DepositReview) (*domain.Deposit, error) {
	status := strings.ToLower(strings.TrimSpace(review.Status))
	if !validDepositStatus(status) {
		return nil, ledger.Validation(fmt.Sprintf("Status must be one of %s", strings.Join(domain.DepositStatuses, ", ")))
	}
	if review.Amount != nil && !review.Amount.IsPositive() {
		return nil, ledger.Validation("Amount must be greater than zero")
	}
	now := s.now()

	var dep domain.Deposit
	var credited *domain.Wallet
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&dep, "deposit_id", review.DepositID, "Deposit"); err != nil {
			return err
		}
		if dep.Status == domain.DepositApproved || dep.Status == domain.DepositRejected {
			return ledger.AlreadyReviewed(dep.Status)
		}
		if status == domain.DepositApproved {
			if dep.Status != domain.DepositAwaitingConfirmation {
				return ledger.InvalidTransition("Deposit can only be approved from awaiting_confirmation", dep.Status, status)
			}
			if dep.Method == domain.MethodCrypto && (dep.TransactionHash == nil || *dep.TransactionHash == "") {
				return ledger.InvalidTransition("Crypto deposits need a transaction hash before approval", dep.Status, status)
			}
			if review.Amount != nil {
				dep.Amount = ledger.Money(*review.Amount)
			}
		}

		if (status == domain.DepositAwaitingPayment || status == domain.DepositPendingMatching) && len(review.SettlementDetails) > 0 {
			dep.SettlementDetails = review.SettlementDetails
		}
		if review.AdminNotes != nil {
			dep.AdminNotes = review.AdminNotes
		}
		if status != domain.DepositAwaitingPayment && status != domain.DepositPendingMatching {
			reviewer := review.ReviewerID
			dep.ReviewedAt = &now
			dep.ReviewedBy = &reviewer
		}
		dep.Status = status

		if status == domain.DepositApproved {
			w, err := tx.LockWallet(dep.UserID)
			if err != nil {
				return err
			}
			if err := tx.CreditWallet(w, dep.Amount); err != nil {
				return err
			}
			if err := tx.AppendTransaction(&domain.Transaction{
				UserID:      dep.UserID,
				Type:        domain.TxDeposit,
				Amount:      dep.Amount,
				Description: fmt.Sprintf("Deposit via %s", dep.Method),
				ReferenceID: &dep.DepositID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			credited = w
		}
		return tx.DB().Save(&dep).Error
	})
	if err != nil {
		log.Warn().Err(err).Str("deposit_id", review.DepositID.String()).Str("status", status).Msg("Deposit review rejected")
		return nil, err
	}

	ev := log.Info().Str("deposit_id", dep.DepositID.String()).Str("status", status).Str("reviewer", review.ReviewerID.String())
	if credited != nil {
		ev = ev.Str("user_id", dep.UserID.String()).Str("credited", dep.Amount.StringFixed(ledger.MoneyPlaces))
	}
	ev.Msg("Deposit reviewed")
	return &dep, nil
}

// WithdrawalRequest opens a withdrawal.
type WithdrawalRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Destination datatypes.JSON
}

// CreateWithdrawal takes the amount out of the wallet immediately and records a
// pending request. The pending row is the hold; review either finalises it or refunds it.
func (s *Service) CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Withdrawal, decimal.Decimal, error) {
	amount, method, err := checkRequest(req.UserID, req.Amount, req.Method)
	if err != nil {
		return nil, decimal.Zero, err
	}
	var wd domain.Withdrawal
	var balance decimal.Decimal
	err = s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(req.UserID)
		if err != nil {
			return err
		}
		if err := tx.DebitWallet(w, amount); err != nil {
			return err
		}
		wd = domain.Withdrawal{
			UserID:      req.UserID,
			Amount:      amount,
			Currency:    w.Currency,
			Method:      method,
			Destination: req.Destination,
			Status:      domain.WithdrawalPending,
		}
		balance = w.Balance
		return tx.DB().Create(&wd).Error
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", req.UserID.String()).Msg("Withdrawal request rejected")
		return nil, decimal.Zero, err
	}
	log.Info().Str("user_id", req.UserID.String()).Str("withdrawal_id", wd.WithdrawalID.String()).
		Str("amount", amount.StringFixed(ledger.MoneyPlaces)).Msg("Withdrawal requested")
	return &wd, balance, nil
}

// WithdrawalReview is an admin decision on a withdrawal.
type WithdrawalReview struct {
	WithdrawalID uuid.UUID
	ReviewerID   uuid.UUID
	Status       string
	AdminNotes   *string
}

// ReviewWithdrawal approves or rejects a pending withdrawal. Rejection refunds the
// held amount; approval logs the completed withdrawal. Anything but pending is AlreadyReviewed.
func (s *Service) ReviewWithdrawal(ctx context.Context, review WithdrawalReview) (*domain.Withdrawal, error) {
	status := strings.ToLower(strings.TrimSpace(review.Status))
	if status != domain.WithdrawalApproved && status != domain.WithdrawalRejected {
		return nil, ledger.Validation("Status must be approved or rejected")
	}
	now := s.now()

	var wd domain.Withdrawal
	err := s.Store.InTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.Lock(&wd, "withdrawal_id", review.WithdrawalID, "Withdrawal"); err != nil {
			return err
		}
		if wd.Status != domain.WithdrawalPending {
			return ledger.AlreadyReviewed(wd.Status)
		}

		switch status {
		case domain.WithdrawalRejected:
			w, err := tx.LockWallet(wd.UserID)
			if err != nil {
				return err
			}
			if err := tx.CreditWallet(w, wd.Amount); err != nil {
				return err
			}
		case domain.WithdrawalApproved:
			if err := tx.AppendTransaction(&domain.Transaction{
				UserID:      wd.UserID,
				Type:        domain.TxWithdrawal,
				Amount:      wd.Amount,
				Description: fmt.Sprintf("Withdrawal via %s", wd.Method),
				ReferenceID: &wd.WithdrawalID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}

		reviewer := review.ReviewerID
		wd.Status = status
		wd.ReviewedAt = &now
		wd.ReviewedBy = &reviewer
		if review.AdminNotes != nil {
			wd.AdminNotes = review.AdminNotes
		}
		return tx.DB().Save(&wd).Error
	})
	if err != nil {
		log.Warn().Err(err).Str("withdrawal_id", review.WithdrawalID.String()).Str("status", status).Msg("Withdrawal review rejected")
		return nil, err
	}
	log.Info().Str("withdrawal_id", wd.WithdrawalID.String()).Str("user_id", wd.UserID.String()).
		Str("status", status).Str("amount", wd.Amount.StringFixed(ledger.MoneyPlaces)).Msg("Withdrawal reviewed")
	return &wd, nil
}
