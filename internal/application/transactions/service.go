package transactions

import (
	"context"
	"strings"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service reads a user's wallet and its transaction log.
type Service struct {
	Store *ledger.Store
}

// WalletView is the wallet plus the amount held by pending withdrawals.
type WalletView struct {
	Wallet    *domain.Wallet      `json:"wallet"`
	OnHold    decimal.Decimal     `json:"on_hold"`
	Pending   int                 `json:"pending_withdrawals"`
	LastEntry *domain.Transaction `json:"last_transaction"`
}

var knownTypes = map[domain.TransactionType]bool{
	domain.TxDeposit:          true,
	domain.TxWithdrawal:       true,
	domain.TxTradeBuy:         true,
	domain.TxTradeSell:        true,
	domain.TxInvestmentPayout: true,
}

func (s *Service) ViewWallet(ctx context.Context, userID uuid.UUID) (*WalletView, error) {
	w, err := s.Store.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	var held []domain.Withdrawal
	if err := s.Store.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.WithdrawalPending).
		Find(&held).Error; err != nil {
		return nil, ledger.Persistence(err)
	}
	view := &WalletView{Wallet: w, OnHold: decimal.Zero, Pending: len(held)}
	for _, h := range held {
		view.OnHold = view.OnHold.Add(h.Amount)
	}
	view.OnHold = ledger.Money(view.OnHold)

	last, err := s.Store.Transactions(ctx, userID, ledger.TxFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(last) == 1 {
		view.LastEntry = &last[0]
	}
	return view, nil
}

// History lists the user's transactions newest first, optionally of one type.
func (s *Service) History(ctx context.Context, userID uuid.UUID, txType string, limit, offset int) ([]domain.Transaction, error) {
	txType = strings.ToLower(strings.TrimSpace(txType))
	if txType != "" && !knownTypes[domain.TransactionType(txType)] {
		return nil, ledger.Validation("Unknown transaction type " + txType)
	}
	txs, err := s.Store.Transactions(ctx, userID, ledger.TxFilter{Type: txType, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return txs, nil
}
