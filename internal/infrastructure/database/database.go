package database

import (
	"strings"

	"brokerage-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open opens a GORM DB from DSN. A "sqlite:" prefix selects the embedded driver
// (local development, single-node demos); anything else is treated as a Postgres DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer).
func Open(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return OpenSQLite(strings.TrimPrefix(dsn, sqlitePrefix))
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// OpenSQLite opens an embedded database. SQLite has a single writer, so the pool is
// capped at one connection; for ":memory:" this also keeps every query on the same database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Models lists every table owned by the ledger, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Wallet{},
		&domain.Transaction{},
		&domain.Holding{},
		&domain.Trade{},
		&domain.Deposit{},
		&domain.Withdrawal{},
		&domain.InvestmentPlan{},
		&domain.PlanAccess{},
		&domain.UserInvestment{},
		&domain.EligibilityApplication{},
	}
}

// AutoMigrate creates or updates all ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
