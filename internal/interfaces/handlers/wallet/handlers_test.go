package wallet

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"brokerage-backend/internal/application/ledger"
	txsvc "brokerage-backend/internal/application/transactions"
	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/infrastructure/database"
	"brokerage-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletEndpoints(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Service: &txsvc.Service{Store: &ledger.Store{DB: db}}}
	userID := uuid.New()
	require.NoError(t, db.Create(&domain.Wallet{UserID: userID, Balance: decimal.NewFromInt(250), Currency: "USD"}).Error)
	require.NoError(t, db.Create(&domain.Transaction{UserID: userID, Type: domain.TxDeposit, Amount: decimal.NewFromInt(250), Status: domain.TxStatusCompleted}).Error)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String(), "role": "investor"})
		return c.Next()
	})
	app.Get("/wallet", h.Wallet)
	app.Get("/wallet/transactions", h.Transactions)

	resp, err := app.Test(httptest.NewRequest("GET", "/wallet", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "250", data["wallet"].(map[string]interface{})["balance"])

	resp, err = app.Test(httptest.NewRequest("GET", "/wallet/transactions?type=deposit", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Len(t, out["data"].([]interface{}), 1)

	resp, err = app.Test(httptest.NewRequest("GET", "/wallet/transactions?limit=-1", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}
