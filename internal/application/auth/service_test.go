package auth

import (
	"context"
	"testing"

	"brokerage-backend/internal/domain"
	"brokerage-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyUser_Nil(t *testing.T) {
	u, err := VerifyUser(nil)
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_NoUserID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"fullname": "Test",
		"email":    "a@b.com",
	})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_Valid(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"fullname": "Test User",
		"email":    "test@example.com",
		"role":     "investor",
	})
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", u.UserID)
	assert.Equal(t, "Test User", u.Fullname)
	assert.Equal(t, "investor", u.Role)
}

func TestLoginUser(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.User{Fullname: "Ada Lovelace", Email: "ada@example.com", PasswordHash: string(hash), Role: "investor"}).Error)

	_, err = LoginUser(db, LoginInput{Email: "ada@example.com"})
	assert.Equal(t, ErrEmailPasswordRequired, err)

	_, err = LoginUser(db, LoginInput{Email: "nobody@example.com", Password: "Secret123!"})
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = LoginUser(db, LoginInput{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, ErrInvalidCredentials, err)

	finder := &GormUserFinder{DB: db}
	u, err := finder.FindByEmailAndPassword(context.Background(), " ADA@example.com ", "Secret123!")
	require.NoError(t, err)
	shape := ShapeOf(u)
	assert.Equal(t, "Ada Lovelace", shape.Fullname)
	assert.Equal(t, u.UserID.String(), shape.UserID)
}
