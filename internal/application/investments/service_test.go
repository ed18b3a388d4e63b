package investments

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
	"gorm.io/gorm"
)

var newYear = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func setupInvestmentTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{Store: &ledger.Store{DB: db}, Now: func() time.Time { return newYear }}, db
}

func seedInvestor(t *testing.T, db *gorm.DB, balance string) uuid.UUID {
	u := domain.User{Fullname: "Ada Investor", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: "investor"}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&domain.Wallet{
		UserID:   u.UserID,
		Balance:  decimal.RequireFromString(balance),
		Currency: "USD",
	}).Error)
	return u.UserID
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr[T any](v T) *T { return &v }

func seedPlan(t *testing.T, svc *Service, name string, active bool) *domain.InvestmentPlan {
	p, err := svc.CreatePlan(context.Background(), PlanInput{
		Name:             ptr(name),
		MinAmount:        dec("1000"),
		MaxAmount:        dec("9999"),
		ReturnPercentage: dec("25"),
		DurationDays:     ptr(30),
		IsActive:         ptr(active),
	})
	require.NoError(t, err)
	return p
}

func walletBalance(t *testing.T, svc *Service, userID uuid.UUID) string {
	w, err := svc.Store.Wallet(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance.StringFixed(2)
}

func TestSubscribe_Scenario(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "6000.00")
	plan := seedPlan(t, svc, "Growth 30", true)

	sub, err := svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	inv := sub.Investment
	assert.Equal(t, domain.InvestmentActive, inv.Status)
	assert.True(t, inv.StartDate.Equal(newYear))
	assert.True(t, inv.EndDate.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)), "end date %s", inv.EndDate)
	assert.Equal(t, "1250.00", inv.ExpectedReturn.StringFixed(2))
	assert.Nil(t, inv.CustomDurationDays)
	assert.Equal(t, "1000.00", sub.Balance.StringFixed(2))
	assert.Equal(t, "1000.00", walletBalance(t, svc, userID))

	assert.Equal(t, domain.TxTradeBuy, sub.Transaction.Type)
	assert.Equal(t, "5000.00", sub.Transaction.Amount.StringFixed(2))
	require.NotNil(t, sub.Transaction.ReferenceID)
	assert.Equal(t, inv.InvestmentID, *sub.Transaction.ReferenceID)

	var stored domain.UserInvestment
	require.NoError(t, db.Where("investment_id = ?", inv.InvestmentID).First(&stored).Error)
	assert.Equal(t, "2025-01-31", stored.EndDate.UTC().Format("2006-01-02"))
}

func TestSubscribe_Rejections(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "2000.00")
	plan := seedPlan(t, svc, "Growth 30", true)
	hidden := seedPlan(t, svc, "Private", false)

	_, err := svc.Subscribe(ctx, userID, uuid.New(), decimal.NewFromInt(1500))
	assert.True(t, errors.Is(err, ledger.ErrPlanNotFound))
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	_, err = svc.Subscribe(ctx, userID, hidden.PlanID, decimal.NewFromInt(1500))
	assert.True(t, errors.Is(err, ledger.ErrPlanNotFound))

	_, err = svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(999))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrAmountOutOfRange))
	var le *ledger.Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "1000.00", le.Details["min"])
	assert.Equal(t, "9999.00", le.Details["max"])

	_, err = svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(10000))
	assert.True(t, errors.Is(err, ledger.ErrAmountOutOfRange))

	_, err = svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(2500))
	assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds))

	_, err = svc.Subscribe(ctx, userID, plan.PlanID, decimal.Zero)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	assert.Equal(t, "2000.00", walletBalance(t, svc, userID))
	var n int64
	require.NoError(t, db.Model(&domain.UserInvestment{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&domain.Transaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSubscribe_CustomDurationFromAccessGrant(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "5000.00")
	hidden := seedPlan(t, svc, "Private", false)

	offers, err := svc.ListPlans(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, offers)

	_, err = svc.GrantAccess(ctx, Grant{UserID: userID, PlanID: hidden.PlanID, CustomDurationDays: ptr(90), GrantedBy: uuid.New()})
	require.NoError(t, err)

	offers, err = svc.ListPlans(ctx, userID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.True(t, offers[0].SpecialAccess)
	assert.Equal(t, 90, offers[0].EffectiveDurationDays)

	sub, err := svc.Subscribe(ctx, userID, hidden.PlanID, decimal.NewFromInt(2000))
	require.NoError(t, err)
	require.NotNil(t, sub.Investment.CustomDurationDays)
	assert.Equal(t, 90, *sub.Investment.CustomDurationDays)
	assert.True(t, sub.Investment.EndDate.Equal(newYear.AddDate(0, 0, 90)))
	assert.Equal(t, "500.00", sub.Investment.ExpectedReturn.StringFixed(2))
}

func TestGrantAccess_Upserts(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "0")
	plan := seedPlan(t, svc, "Growth 30", true)

	_, err := svc.GrantAccess(ctx, Grant{UserID: userID, PlanID: plan.PlanID, CustomDurationDays: ptr(45)})
	require.NoError(t, err)
	acc, err := svc.GrantAccess(ctx, Grant{UserID: userID, PlanID: plan.PlanID, CustomDurationDays: ptr(60)})
	require.NoError(t, err)
	require.NotNil(t, acc.CustomDurationDays)
	assert.Equal(t, 60, *acc.CustomDurationDays)

	var n int64
	require.NoError(t, db.Model(&domain.PlanAccess{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	_, err = svc.GrantAccess(ctx, Grant{UserID: userID, PlanID: uuid.New()})
	assert.True(t, errors.Is(err, ledger.ErrPlanNotFound))
	_, err = svc.GrantAccess(ctx, Grant{UserID: uuid.New(), PlanID: plan.PlanID})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	_, err = svc.GrantAccess(ctx, Grant{UserID: userID, PlanID: plan.PlanID, CustomDurationDays: ptr(0)})
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}

func TestPlans_CreateAndUpdate(t *testing.T) {
	svc, _ := setupInvestmentTest(t)
	ctx := context.Background()
	plan := seedPlan(t, svc, "Growth 30", true)

	_, err := svc.CreatePlan(ctx, PlanInput{Name: ptr("Growth 30"), MinAmount: dec("1"), MaxAmount: dec("2"), ReturnPercentage: dec("1"), DurationDays: ptr(1)})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = svc.CreatePlan(ctx, PlanInput{Name: ptr("Broken"), MinAmount: dec("10"), MaxAmount: dec("5"), ReturnPercentage: dec("1"), DurationDays: ptr(1)})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	updated, err := svc.UpdatePlan(ctx, plan.PlanID, PlanInput{IsActive: ptr(false), DurationDays: ptr(45)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 45, updated.DurationDays)
	assert.Equal(t, "Growth 30", updated.Name)

	reloaded, err := svc.GetPlan(ctx, plan.PlanID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	_, err = svc.UpdatePlan(ctx, uuid.New(), PlanInput{DurationDays: ptr(1)})
	assert.True(t, errors.Is(err, ledger.ErrPlanNotFound))

	all, err := svc.ListPlans(ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOverrideDuration(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "5000.00")
	plan := seedPlan(t, svc, "Growth 30", true)
	sub, err := svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	_, err = svc.OverrideDuration(ctx, sub.Investment.InvestmentID, 0)
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	inv, err := svc.OverrideDuration(ctx, sub.Investment.InvestmentID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, *inv.CustomDurationDays)
	assert.True(t, inv.EndDate.Equal(newYear.AddDate(0, 0, 10)))

	var stored domain.UserInvestment
	require.NoError(t, db.Where("investment_id = ?", inv.InvestmentID).First(&stored).Error)
	require.NotNil(t, stored.CustomDurationDays)
	assert.Equal(t, 10, *stored.CustomDurationDays)
	assert.Equal(t, "2025-01-11", stored.EndDate.UTC().Format("2006-01-02"))

	_, err = svc.MatureDue(ctx, newYear.AddDate(0, 0, 10))
	require.NoError(t, err)
	_, err = svc.OverrideDuration(ctx, inv.InvestmentID, 20)
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))

	_, err = svc.OverrideDuration(ctx, uuid.New(), 5)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestMatureDue_PaysExactlyOnce(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "5000.00")
	plan := seedPlan(t, svc, "Growth 30", true)
	_, err := svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(5000))
	require.NoError(t, err)

	res, err := svc.MatureDue(ctx, time.Date(2025, 1, 30, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, res.Due)
	assert.Equal(t, "0.00", walletBalance(t, svc, userID))

	maturity := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	res, err = svc.MatureDue(ctx, maturity)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matured)
	assert.Equal(t, "6250.00", res.PaidOut.StringFixed(2))
	assert.Equal(t, "6250.00", walletBalance(t, svc, userID))

	res, err = svc.MatureDue(ctx, maturity.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, res.Matured)
	assert.Equal(t, "6250.00", walletBalance(t, svc, userID))

	mine, err := svc.ListMine(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.InvestmentMatured, mine[0].Status)
	assert.NotNil(t, mine[0].PaidOutAt)

	var payouts int64
	require.NoError(t, db.Model(&domain.Transaction{}).Where("type = ?", domain.TxInvestmentPayout).Count(&payouts).Error)
	assert.Equal(t, int64(1), payouts)
}

func TestMatureDue_ConcurrentSweepsPayOnce(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "3000.00")
	plan := seedPlan(t, svc, "Growth 30", true)
	for i := 0; i < 2; i++ {
		_, err := svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(1000))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]*SweepResult, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := svc.MatureDue(ctx, newYear.AddDate(0, 1, 0))
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	matured := 0
	for _, r := range results {
		require.NotNil(t, r)
		matured += r.Matured
	}
	assert.Equal(t, 2, matured)
	// 1000 left + 2 × 1250
	assert.Equal(t, "3500.00", walletBalance(t, svc, userID))

	replayed, err := svc.Store.Reconcile(ctx, userID)
	require.NoError(t, err)
	// the seeded 3000 has no deposit row behind it
	assert.Equal(t, "500.00", replayed.StringFixed(2))
}

func TestListInvestments_StatusFilter(t *testing.T) {
	svc, db := setupInvestmentTest(t)
	ctx := context.Background()
	userID := seedInvestor(t, db, "5000.00")
	plan := seedPlan(t, svc, "Growth 30", true)
	_, err := svc.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	active, err := svc.ListInvestments(ctx, domain.InvestmentActive)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	matured, err := svc.ListInvestments(ctx, domain.InvestmentMatured)
	require.NoError(t, err)
	assert.Empty(t, matured)

	_, err = svc.ListInvestments(ctx, "closed")
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}
