package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"brokerage-backend/internal/application/investments"
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

func setupEligibilityTest(t *testing.T) (*Service, *gorm.DB, *domain.InvestmentPlan) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	plan := domain.InvestmentPlan{
		Name:             "Quant Alpha",
		MinAmount:        decimal.NewFromInt(1000),
		MaxAmount:        decimal.NewFromInt(50000),
		ReturnPercentage: decimal.NewFromInt(12),
		DurationDays:     60,
		IsActive:         false,
	}
	require.NoError(t, db.Create(&plan).Error)
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	return &Service{Store: &ledger.Store{DB: db}, Now: func() time.Time { return now }}, db, &plan
}

func TestApprove_GrantsAccessWithCustomDuration(t *testing.T) {
	svc, db, plan := setupEligibilityTest(t)
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, db.Create(&domain.Wallet{UserID: userID, Balance: decimal.NewFromInt(2000), Currency: "USD"}).Error)

	app, err := svc.Apply(ctx, userID, plan.PlanID, datatypes.JSON([]byte(`{"experience":"5y"}`)))
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, app.Status)

	_, err = svc.Apply(ctx, userID, plan.PlanID, nil)
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))

	admin := uuid.New()
	reviewed, err := svc.Review(ctx, Decision{ApplicationID: app.ApplicationID, ReviewerID: admin, Status: "approved", CustomDurationDays: func() *int { d := 14; return &d }()})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, admin, *reviewed.ReviewedBy)

	var acc domain.PlanAccess
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", userID, plan.PlanID).First(&acc).Error)
	require.NotNil(t, acc.CustomDurationDays)
	assert.Equal(t, 14, *acc.CustomDurationDays)

	// the inactive plan is now subscribable with the granted term
	inv := &investments.Service{Store: svc.Store, Now: svc.Now}
	sub, err := inv.Subscribe(ctx, userID, plan.PlanID, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, "2025-02-15", sub.Investment.EndDate.Format("2006-01-02"))

	_, err = svc.Review(ctx, Decision{ApplicationID: app.ApplicationID, Status: "rejected"})
	assert.True(t, errors.Is(err, ledger.ErrAlreadyReviewed))

	_, err = svc.Apply(ctx, userID, plan.PlanID, nil)
	assert.True(t, errors.Is(err, ledger.ErrInvalidStateTransition))
}

func TestReject_NoAccess(t *testing.T) {
	svc, db, plan := setupEligibilityTest(t)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Apply(ctx, userID, plan.PlanID, nil)
	require.NoError(t, err)

	_, err = svc.Review(ctx, Decision{ApplicationID: app.ApplicationID, Status: "maybe"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	notes := "insufficient trading history"
	out, err := svc.Review(ctx, Decision{ApplicationID: app.ApplicationID, ReviewerID: uuid.New(), Status: "rejected", AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, *out.AdminNotes)

	var n int64
	require.NoError(t, db.Model(&domain.PlanAccess{}).Count(&n).Error)
	assert.Zero(t, n)

	// a rejected applicant may apply again
	_, err = svc.Apply(ctx, userID, plan.PlanID, nil)
	require.NoError(t, err)

	pending, err := svc.List(ctx, domain.ApplicationPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	mine, err := svc.ListMine(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestApply_UnknownPlan(t *testing.T) {
	svc, _, _ := setupEligibilityTest(t)
	_, err := svc.Apply(context.Background(), uuid.New(), uuid.New(), nil)
	assert.True(t, errors.Is(err, ledger.ErrPlanNotFound))

	_, err = svc.Review(context.Background(), Decision{ApplicationID: uuid.New(), Status: "approved"})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
