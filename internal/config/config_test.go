package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL_DEV", "sqlite:dev.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, "@every 5s", cfg.PriceTickSchedule)
	assert.Equal(t, "@every 1m", cfg.MaturitySchedule)
	assert.Equal(t, "sqlite:dev.db", cfg.DatabaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_ProductionOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_PROD", "postgres://prod")
	t.Setenv("DEFAULT_CURRENCY", "eur")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("ALLOW_CROSS_SITE_DEV", "TRUE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.True(t, cfg.AutoMigrate)
	assert.True(t, cfg.AllowCrossSiteDev)
}
