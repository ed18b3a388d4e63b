package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or sqlite:<path> for local runs
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	CookieDomain        string
	DefaultCurrency     string
	PriceTickSchedule   string
	MaturitySchedule    string
	PriceSeed           int64
	AutoMigrate         bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEFAULT_CURRENCY", "USD")
	viper.SetDefault("PRICE_TICK_SCHEDULE", "@every 5s")
	viper.SetDefault("MATURITY_SWEEP_SCHEDULE", "@every 1m")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		CookieDomain:        viper.GetString("COOKIE_DOMAIN"),
		DefaultCurrency:     strings.ToUpper(viper.GetString("DEFAULT_CURRENCY")),
		PriceTickSchedule:   viper.GetString("PRICE_TICK_SCHEDULE"),
		MaturitySchedule:    viper.GetString("MATURITY_SWEEP_SCHEDULE"),
		PriceSeed:           viper.GetInt64("PRICE_SEED"),
		AutoMigrate:         viper.GetBool("AUTO_MIGRATE"),
	}, nil
}

// IsProduction reports whether the app runs with production cookies and DB.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
