package funding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var reviewedAt = time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

func setupFundingTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{Store: &ledger.Store{DB: db}, Now: func() time.Time { return reviewedAt }}, db
}

func seedWallet(t *testing.T, db *gorm.DB, balance string) uuid.UUID {
	userID := uuid.New()
	require.NoError(t, db.Create(&domain.Wallet{
		UserID:   userID,
		Balance:  decimal.RequireFromString(balance),
		Currency: "USD",
	}).Error)
	return userID
}

func balanceOf(t *testing.T, svc *Service, userID uuid.UUID) string {
	w, err := svc.Store.Wallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance.StringFixed(2)
}

func countTx(t *testing.T, db *gorm.DB, userID uuid.UUID, typ domain.TransactionType) int64 {
	var n int64
	require.NoError(t, db.Model(&domain.Transaction{}).Where("user_id = ? AND type = ?", userID, typ).Count(&n).Error)
	return n
}

func mustDeposit(t *testing.T, svc *Service, userID uuid.UUID, amount, method string) *domain.Deposit {
	dep, err := svc.CreateDeposit(context.Background(), DepositRequest{
		UserID: userID,
		Amount: decimal.RequireFromString(amount),
		Method: method,
	})
	require.NoError(t, err)
	return dep
}

func TestCreateDeposit_Validation(t *testing.T) {
	svc, db := setupFundingTest(t)
	userID := seedWallet(t, db, "0")
	ctx := context.Background()

	_, err := svc.CreateDeposit(ctx, DepositRequest{UserID: userID, Amount: decimal.Zero, Method: domain.MethodBankTransfer})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.CreateDeposit(ctx, DepositRequest{UserID: userID, Amount: decimal.NewFromInt(10), Method: "cheque"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.CreateDeposit(ctx, DepositRequest{UserID: uuid.New(), Amount: decimal.NewFromInt(10), Method: domain.MethodP2P})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	dep := mustDeposit(t, svc, userID, "25.005", "Bank_Transfer")
	assert.Equal(t, domain.DepositPending, dep.Status)
	assert.Equal(t, domain.MethodBankTransfer, dep.Method)
	assert.Equal(t, "USD", dep.Currency)
	assert.Equal(t, "25.01", dep.Amount.StringFixed(2))
	assert.Equal(t, "0.00", balanceOf(t, svc, userID))
}

func TestReviewDeposit_ApproveCreditsOnce(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "10.00")
	admin := uuid.New()
	dep := mustDeposit(t, svc, userID, "500", domain.MethodBankTransfer)

	_, err := svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, ReviewerID: admin, Status: domain.DepositApproved})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))
	assert.Equal(t, "10.00", balanceOf(t, svc, userID))

	_, err = svc.ConfirmDeposit(ctx, userID, dep.DepositID, "")
	require.NoError(t, err)

	approved, err := svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, ReviewerID: admin, Status: domain.DepositApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.DepositApproved, approved.Status)
	require.NotNil(t, approved.ReviewedAt)
	assert.True(t, approved.ReviewedAt.Equal(reviewedAt))
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin, *approved.ReviewedBy)
	assert.Equal(t, "510.00", balanceOf(t, svc, userID))
	assert.Equal(t, int64(1), countTx(t, db, userID, domain.TxDeposit))

	_, err = svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, ReviewerID: admin, Status: domain.DepositApproved})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))
	assert.True(t, errors.Is(err, ledger.ErrAlreadyReviewed))

	_, err = svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, ReviewerID: admin, Status: domain.DepositRejected})
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))

	assert.Equal(t, "510.00", balanceOf(t, svc, userID))
	assert.Equal(t, int64(1), countTx(t, db, userID, domain.TxDeposit))
}

func TestReviewDeposit_AmountCorrection(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "0")
	dep := mustDeposit(t, svc, userID, "100", domain.MethodP2P)
	_, err := svc.ConfirmDeposit(ctx, userID, dep.DepositID, "")
	require.NoError(t, err)

	corrected := decimal.RequireFromString("95.50")
	notes := "bank fee deducted"
	out, err := svc.ReviewDeposit(ctx, DepositReview{
		DepositID:  dep.DepositID,
		ReviewerID: uuid.New(),
		Status:     domain.DepositApproved,
		Amount:     &corrected,
		AdminNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "95.50", out.Amount.StringFixed(2))
	require.NotNil(t, out.AdminNotes)
	assert.Equal(t, notes, *out.AdminNotes)
	assert.Equal(t, "95.50", balanceOf(t, svc, userID))

	var rec domain.Transaction
	require.NoError(t, db.Where("user_id = ?", userID).First(&rec).Error)
	assert.Equal(t, "95.50", rec.Amount.StringFixed(2))
	require.NotNil(t, rec.ReferenceID)
	assert.Equal(t, dep.DepositID, *rec.ReferenceID)
}

func TestReviewDeposit_CryptoNeedsHash(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "0")
	admin := uuid.New()

	noHash := mustDeposit(t, svc, userID, "50", domain.MethodCrypto)
	_, err := svc.ConfirmDeposit(ctx, userID, noHash.DepositID, "  ")
	require.NoError(t, err)
	_, err = svc.ReviewDeposit(ctx, DepositReview{DepositID: noHash.DepositID, ReviewerID: admin, Status: domain.DepositApproved})
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))
	assert.Equal(t, "0.00", balanceOf(t, svc, userID))

	withHash := mustDeposit(t, svc, userID, "50", domain.MethodCrypto)
	confirmed, err := svc.ConfirmDeposit(ctx, userID, withHash.DepositID, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, confirmed.TransactionHash)
	assert.Equal(t, "0xabc", *confirmed.TransactionHash)

	_, err = svc.ReviewDeposit(ctx, DepositReview{DepositID: withHash.DepositID, ReviewerID: admin, Status: domain.DepositApproved})
	require.NoError(t, err)
	assert.Equal(t, "50.00", balanceOf(t, svc, userID))
}

func TestReviewDeposit_IntermediateStates(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "0")
	dep := mustDeposit(t, svc, userID, "75", domain.MethodP2P)

	_, err := svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, Status: "completed"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	details := datatypes.JSON([]byte(`{"counterparty":"desk-7"}`))
	matching, err := svc.ReviewDeposit(ctx, DepositReview{
		DepositID:         dep.DepositID,
		ReviewerID:        uuid.New(),
		Status:            domain.DepositPendingMatching,
		SettlementDetails: details,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DepositPendingMatching, matching.Status)
	assert.Nil(t, matching.ReviewedAt)
	assert.JSONEq(t, `{"counterparty":"desk-7"}`, string(matching.SettlementDetails))

	rejected, err := svc.ReviewDeposit(ctx, DepositReview{DepositID: dep.DepositID, ReviewerID: uuid.New(), Status: domain.DepositRejected})
	require.NoError(t, err)
	assert.NotNil(t, rejected.ReviewedAt)

	_, err = svc.ConfirmDeposit(ctx, userID, dep.DepositID, "")
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))
	assert.Equal(t, "0.00", balanceOf(t, svc, userID))
}

func TestConfirmDeposit_OtherUsersDepositIsNotFound(t *testing.T) {
	svc, db := setupFundingTest(t)
	owner := seedWallet(t, db, "0")
	other := seedWallet(t, db, "0")
	dep := mustDeposit(t, svc, owner, "10", domain.MethodBankTransfer)

	_, err := svc.ConfirmDeposit(context.Background(), other, dep.DepositID, "")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestWithdrawal_RequestDebitsAndApprovalLogs(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "300.00")

	_, _, err := svc.CreateWithdrawal(ctx, WithdrawalRequest{UserID: userID, Amount: decimal.NewFromInt(301), Method: domain.MethodBankTransfer})
	assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds))

	wd, bal, err := svc.CreateWithdrawal(ctx, WithdrawalRequest{UserID: userID, Amount: decimal.NewFromInt(120), Method: domain.MethodBankTransfer})
	require.NoError(t, err)
	assert.Equal(t, "180.00", bal.StringFixed(2))
	assert.Equal(t, domain.WithdrawalPending, wd.Status)
	assert.Equal(t, "180.00", balanceOf(t, svc, userID))
	assert.Zero(t, countTx(t, db, userID, domain.TxWithdrawal))

	replayed, err := svc.Store.Reconcile(ctx, userID)
	require.NoError(t, err)
	// seeded balance has no deposit row behind it
	assert.Equal(t, "-120.00", replayed.StringFixed(2))

	out, err := svc.ReviewWithdrawal(ctx, WithdrawalReview{WithdrawalID: wd.WithdrawalID, ReviewerID: uuid.New(), Status: domain.WithdrawalApproved})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalApproved, out.Status)
	assert.Equal(t, "180.00", balanceOf(t, svc, userID))
	assert.Equal(t, int64(1), countTx(t, db, userID, domain.TxWithdrawal))

	_, err = svc.ReviewWithdrawal(ctx, WithdrawalReview{WithdrawalID: wd.WithdrawalID, Status: domain.WithdrawalRejected})
	assert.True(t, errors.Is(err, ledger.ErrAlreadyReviewed))
	assert.Equal(t, "180.00", balanceOf(t, svc, userID))
}

func TestWithdrawal_RejectRefunds(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "100.00")

	wd, _, err := svc.CreateWithdrawal(ctx, WithdrawalRequest{UserID: userID, Amount: decimal.RequireFromString("40.25"), Method: domain.MethodCrypto})
	require.NoError(t, err)
	assert.Equal(t, "59.75", balanceOf(t, svc, userID))

	_, err = svc.ReviewWithdrawal(ctx, WithdrawalReview{WithdrawalID: wd.WithdrawalID, Status: "pending"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.ReviewWithdrawal(ctx, WithdrawalReview{WithdrawalID: wd.WithdrawalID, ReviewerID: uuid.New(), Status: domain.WithdrawalRejected})
	require.NoError(t, err)
	assert.Equal(t, "100.00", balanceOf(t, svc, userID))
	assert.Zero(t, countTx(t, db, userID, domain.TxWithdrawal))
}

func TestWithdrawal_ConcurrentRejectRefundsOnce(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	userID := seedWallet(t, db, "100.00")
	wd, _, err := svc.CreateWithdrawal(ctx, WithdrawalRequest{UserID: userID, Amount: decimal.NewFromInt(60), Method: domain.MethodBankTransfer})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ReviewWithdrawal(ctx, WithdrawalReview{WithdrawalID: wd.WithdrawalID, ReviewerID: uuid.New(), Status: domain.WithdrawalRejected})
		}(i)
	}
	wg.Wait()

	ok, reviewed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ledger.ErrAlreadyReviewed):
			reviewed++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, reviewed)
	assert.Equal(t, "100.00", balanceOf(t, svc, userID))
}

func TestListRequests(t *testing.T) {
	svc, db := setupFundingTest(t)
	ctx := context.Background()
	alice := seedWallet(t, db, "100")
	bob := seedWallet(t, db, "100")

	mustDeposit(t, svc, alice, "10", domain.MethodBankTransfer)
	dep := mustDeposit(t, svc, bob, "20", domain.MethodP2P)
	_, err := svc.ConfirmDeposit(ctx, bob, dep.DepositID, "")
	require.NoError(t, err)
	_, _, err = svc.CreateWithdrawal(ctx, WithdrawalRequest{UserID: alice, Amount: decimal.NewFromInt(5), Method: domain.MethodP2P})
	require.NoError(t, err)

	mine, err := svc.ListDeposits(ctx, Filter{UserID: alice})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListDeposits(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	waiting, err := svc.ListDeposits(ctx, Filter{Status: domain.DepositAwaitingConfirmation})
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, bob, waiting[0].UserID)

	_, err = svc.ListDeposits(ctx, Filter{Status: "bogus"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	pending, err := svc.ListWithdrawals(ctx, Filter{Status: domain.WithdrawalPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = svc.ListWithdrawals(ctx, Filter{Status: "bogus"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}
