package ledger

import (
	"context"
	"errors"
	"time"

	"brokerage-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the ledger's view of the database. Balance mutations are only reachable
// through InTx, so every check that guards a write runs in the same transaction as the write.
type Store struct {
	DB *gorm.DB
}

// Tx is a ledger transaction. Values are only created by Store.InTx.
type Tx struct {
	db *gorm.DB
}

// InTx runs fn inside one database transaction. Any error rolls back every write; store
// errors that are not already ledger errors come back as ErrPersistence.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Tx{db: db})
	})
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	log.Error().Err(err).Msg("ledger transaction failed")
	return Persistence(err)
}

// DB exposes the transaction handle for module-owned rows (plans, requests, trades).
func (t *Tx) DB() *gorm.DB {
	return t.db
}

func (t *Tx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// LockWallet loads the user's wallet and holds its row lock until commit.
// Trades lock the wallet first, then the holding. Reviews lock the request row first,
// then the wallet. No path locks a wallet and then an existing request row.
func (t *Tx) LockWallet(userID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := t.forUpdate().Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Wallet")
		}
		return nil, err
	}
	return &w, nil
}

// DebitWallet subtracts amount, refusing to take the balance below zero.
func (t *Tx) DebitWallet(w *domain.Wallet, amount decimal.Decimal) error {
	amount = Money(amount)
	if w.Balance.LessThan(amount) {
		return InsufficientFunds(amount, w.Balance)
	}
	return t.setBalance(w, Money(w.Balance.Sub(amount)))
}

// CreditWallet adds amount to the balance.
func (t *Tx) CreditWallet(w *domain.Wallet, amount decimal.Decimal) error {
	return t.setBalance(w, Money(w.Balance.Add(Money(amount))))
}

func (t *Tx) setBalance(w *domain.Wallet, balance decimal.Decimal) error {
	if err := t.db.Model(&domain.Wallet{}).Where("wallet_id = ?", w.WalletID).Update("balance", balance).Error; err != nil {
		return err
	}
	w.Balance = balance
	return nil
}

// AppendTransaction writes one audit row. The amount is stored as a rounded magnitude.
func (t *Tx) AppendTransaction(rec *domain.Transaction) error {
	rec.Amount = Money(rec.Amount.Abs())
	if rec.Status == "" {
		rec.Status = domain.TxStatusCompleted
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return t.db.Create(rec).Error
}

// LockHolding returns the locked position, or nil when the user holds none of the asset.
func (t *Tx) LockHolding(userID uuid.UUID, assetType, symbol string) (*domain.Holding, error) {
	var h domain.Holding
	err := t.forUpdate().
		Where("user_id = ? AND asset_type = ? AND symbol = ?", userID, assetType, symbol).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Lock loads dest by primary key column and locks its row. what names the entity in NotFound errors.
func (t *Tx) Lock(dest interface{}, column string, id uuid.UUID, what string) error {
	if err := t.forUpdate().Where(column+" = ?", id).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound(what)
		}
		return err
	}
	return nil
}

// Wallet reads a wallet outside any transaction (display only).
func (s *Store) Wallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Wallet")
		}
		return nil, Persistence(err)
	}
	return &w, nil
}

// TxFilter narrows a transaction history query.
type TxFilter struct {
	Type   string
	Limit  int
	Offset int
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Transactions returns the user's log newest first.
func (s *Store) Transactions(ctx context.Context, userID uuid.UUID, f TxFilter) ([]domain.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	var txs []domain.Transaction
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&txs).Error; err != nil {
		return nil, Persistence(err)
	}
	return txs, nil
}

// Reconcile compares the wallet balance with a replay of its completed log entries
// and the pending withdrawal holds. It returns the replayed balance.
func (s *Store) Reconcile(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var txs []domain.Transaction
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.TxStatusCompleted).
		Find(&txs).Error; err != nil {
		return decimal.Zero, Persistence(err)
	}
	replayed := decimal.Zero
	for _, tx := range txs {
		if tx.Type.Credit() {
			replayed = replayed.Add(tx.Amount)
		} else {
			replayed = replayed.Sub(tx.Amount)
		}
	}
	var held []domain.Withdrawal
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.WithdrawalPending).
		Find(&held).Error; err != nil {
		return decimal.Zero, Persistence(err)
	}
	for _, w := range held {
		replayed = replayed.Sub(w.Amount)
	}
	return Money(replayed), nil
}
