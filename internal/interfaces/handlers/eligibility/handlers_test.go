package eligibility

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	eligsvc "brokerage-backend/internal/application/eligibility"
	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/infrastructure/database"
	"brokerage-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	investorID = uuid.MustParse("3d9a6e4c-5f7b-4a8c-8d1e-2f3a4b5c6d7e")
	adminID    = uuid.MustParse("4e0b7f5d-6a8c-4b9d-9e2f-3a4b5c6d7e8f")
)

func setupEligibilityTest(t *testing.T) (*fiber.App, *gorm.DB, uuid.UUID) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	plan := domain.InvestmentPlan{
		Name:             "Private Credit",
		MinAmount:        decimal.NewFromInt(1000),
		MaxAmount:        decimal.NewFromInt(50000),
		ReturnPercentage: decimal.NewFromInt(12),
		DurationDays:     90,
		IsActive:         false,
	}
	require.NoError(t, db.Create(&plan).Error)

	h := &Handlers{Service: &eligsvc.Service{Store: &ledger.Store{DB: db}}}
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Role") == "admin" {
			c.Locals("user", map[string]interface{}{"user_id": adminID.String(), "role": "admin"})
		} else {
			c.Locals("user", map[string]interface{}{"user_id": investorID.String(), "role": "investor"})
		}
		return c.Next()
	})
	app.Post("/applications", h.Apply)
	app.Get("/applications", h.Mine)
	app.Get("/admin/eligibility", h.List)
	app.Patch("/admin/eligibility/:id", h.Review)
	return app, db, plan.PlanID
}

func call(t *testing.T, app *fiber.App, method, path, role string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", role)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestApplyAndApprove(t *testing.T) {
	app, db, planID := setupEligibilityTest(t)

	code, out := call(t, app, "POST", "/applications", "investor", map[string]interface{}{
		"plan_id": planID.String(),
		"answers": map[string]interface{}{"accredited": true, "net_worth": "over_1m"},
	})
	require.Equal(t, 201, code, out)
	appID := out["data"].(map[string]interface{})["application_id"].(string)

	code, _ = call(t, app, "POST", "/applications", "investor", map[string]interface{}{"plan_id": planID.String()})
	assert.Equal(t, 409, code)

	code, out = call(t, app, "GET", "/admin/eligibility?status=pending", "admin", nil)
	require.Equal(t, 200, code)
	assert.Len(t, out["data"], 1)

	code, out = call(t, app, "PATCH", "/admin/eligibility/"+appID, "admin", map[string]interface{}{
		"status":               "approved",
		"custom_duration_days": 60,
		"admin_notes":          "Verified documents",
	})
	require.Equal(t, 200, code, out)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])
	assert.Equal(t, adminID.String(), data["reviewed_by"])

	var acc domain.PlanAccess
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", investorID, planID).First(&acc).Error)
	require.NotNil(t, acc.CustomDurationDays)
	assert.Equal(t, 60, *acc.CustomDurationDays)

	code, _ = call(t, app, "PATCH", "/admin/eligibility/"+appID, "admin", map[string]interface{}{"status": "rejected"})
	assert.Equal(t, 409, code)

	code, _ = call(t, app, "POST", "/applications", "investor", map[string]interface{}{"plan_id": planID.String()})
	assert.Equal(t, 409, code)

	_, out = call(t, app, "GET", "/applications", "investor", nil)
	assert.Len(t, out["data"], 1)
}

func TestApply_Validation(t *testing.T) {
	app, _, _ := setupEligibilityTest(t)

	code, _ := call(t, app, "POST", "/applications", "investor", map[string]interface{}{"plan_id": "nope"})
	assert.Equal(t, 400, code)

	code, _ = call(t, app, "POST", "/applications", "investor", map[string]interface{}{"plan_id": uuid.NewString()})
	assert.Equal(t, 404, code)
}

func TestReview_RejectsUnknownStatus(t *testing.T) {
	app, _, planID := setupEligibilityTest(t)
	_, out := call(t, app, "POST", "/applications", "investor", map[string]interface{}{"plan_id": planID.String()})
	appID := out["data"].(map[string]interface{})["application_id"].(string)

	code, out := call(t, app, "PATCH", "/admin/eligibility/"+appID, "admin", map[string]interface{}{"status": "maybe"})
	assert.Equal(t, 400, code)
	assert.Equal(t, "Validation failed", out["message"])

	code, _ = call(t, app, "GET", "/admin/eligibility?status=weird", "admin", nil)
	assert.Equal(t, 400, code)
}
