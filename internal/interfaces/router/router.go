package router

import (
	"context"
	"errors"

	"brokerage-backend/internal/application/accounts"
	authsvc "brokerage-backend/internal/application/auth"
	eligsvc "brokerage-backend/internal/application/eligibility"
	fundsvc "brokerage-backend/internal/application/funding"
	healthsvc "brokerage-backend/internal/application/health"
	invsvc "brokerage-backend/internal/application/investments"
	"brokerage-backend/internal/application/ledger"
	"brokerage-backend/internal/application/pricing"
	tradesvc "brokerage-backend/internal/application/trading"
	txsvc "brokerage-backend/internal/application/transactions"
	"brokerage-backend/internal/config"
	"brokerage-backend/internal/constants"
	"brokerage-backend/internal/infrastructure/database"
	authhandler "brokerage-backend/internal/interfaces/handlers/auth"
	elighandler "brokerage-backend/internal/interfaces/handlers/eligibility"
	fundhandler "brokerage-backend/internal/interfaces/handlers/funding"
	healthhandler "brokerage-backend/internal/interfaces/handlers/health"
	invhandler "brokerage-backend/internal/interfaces/handlers/investments"
	markethandler "brokerage-backend/internal/interfaces/handlers/market"
	tradehandler "brokerage-backend/internal/interfaces/handlers/trading"
	userhandler "brokerage-backend/internal/interfaces/handlers/user"
	wallethandler "brokerage-backend/internal/interfaces/handlers/wallet"
	"brokerage-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Services are the long-lived pieces the background jobs share with the HTTP app.
type Services struct {
	DB          *gorm.DB
	Rdb         *redis.Client
	Simulator   *pricing.Simulator
	Feed        *pricing.RedisFeed
	Investments *invsvc.Service
}

// FeedProbe counts published quotes, falling back to the in-process simulator.
func (s *Services) FeedProbe() healthsvc.FeedProbe {
	return func(ctx context.Context) (int, error) {
		if s.Feed != nil {
			n, err := s.Feed.Count(ctx, pricing.AssetStock, pricing.AssetCrypto)
			if err == nil && n > 0 {
				return int(n), nil
			}
		}
		if s.Simulator == nil {
			return 0, nil
		}
		return len(s.Simulator.Quotes()), nil
	}
}

// Open connects the database and Redis named in cfg.
func Open(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("database URL is not configured")
	}
	if cfg.RedisURL == "" {
		return nil, nil, errors.New("REDIS_URL is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
	}
	rdb, err := middleware.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return db, rdb, nil
}

// CreateApp opens the stores from cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *Services, error) {
	db, rdb, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := NewServices(cfg, db, rdb)
	return Mount(cfg, svc), svc, nil
}

// NewServices builds the shared services over already-open stores.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Services {
	store := &ledger.Store{DB: db}
	return &Services{
		DB:          db,
		Rdb:         rdb,
		Simulator:   pricing.NewSimulator(pricing.DefaultAssets, cfg.PriceSeed),
		Feed:        &pricing.RedisFeed{Rdb: rdb},
		Investments: &invsvc.Service{Store: store},
	}
}

// NewApp wires middleware and routes. Tests pass sqlite and miniredis here.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	return Mount(cfg, NewServices(cfg, db, rdb))
}

// Mount builds the Fiber app over svc so the scheduler and HTTP layer share one simulator.
func Mount(cfg *config.Config, svc *Services) *fiber.App {
	db, rdb := svc.DB, svc.Rdb
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:    cfg.FrontendURLEndsWith,
		DevPassword:      cfg.DevPassword,
		DisableLocalhost: cfg.IsProduction(),
	}))
	app.Use(middleware.Session(rdb, cfg.SessionSecret))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		Feed:           svc.FeedProbe(),
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
		CookieDomain:      cfg.CookieDomain,
	}
	store := &ledger.Store{DB: db}
	prices := pricing.Chain{svc.Simulator, svc.Feed}

	acc := &accounts.Service{Store: store, Rdb: rdb, DefaultCurrency: cfg.DefaultCurrency}
	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Accounts:   acc,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	uh := &userhandler.Handlers{Service: acc}
	app.Post("/api/v1/users/register", ah.Register)
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/profile", middleware.AuthorizePermission(constants.ViewData), uh.Profile)
	ug.Patch("/profile", uh.UpdateProfile)

	wh := &wallethandler.Handlers{Service: &txsvc.Service{Store: store}}
	wg := app.Group("/api/v1/wallet", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewData))
	wg.Get("/", wh.Wallet)
	wg.Get("/transactions", wh.Transactions)

	mh := &markethandler.Handlers{Simulator: svc.Simulator, Prices: svc.Feed}
	mg := app.Group("/api/v1/market", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ViewData))
	mg.Get("/quotes", mh.Quotes)
	mg.Get("/price", mh.Price)

	th := &tradehandler.Handlers{Service: &tradesvc.Service{Store: store, Prices: prices}}
	tg := app.Group("/api/v1/trading", middleware.RequireAuth())
	tg.Post("/buy", middleware.AuthorizePermission(constants.Trade), th.Buy)
	tg.Post("/sell", middleware.AuthorizePermission(constants.Trade), th.Sell)
	tg.Get("/holdings", middleware.AuthorizePermission(constants.ViewData), th.Holdings)
	tg.Get("/trades", middleware.AuthorizePermission(constants.ViewData), th.Trades)
	tg.Post("/refresh", middleware.AuthorizePermission(constants.ViewData), th.Refresh)

	fh := &fundhandler.Handlers{Service: &fundsvc.Service{Store: store}}
	fg := app.Group("/api/v1/funding", middleware.RequireAuth(), middleware.AuthorizePermission(constants.RequestFunds))
	fg.Post("/deposits", fh.CreateDeposit)
	fg.Get("/deposits", fh.MyDeposits)
	fg.Post("/deposits/:id/confirm", fh.ConfirmDeposit)
	fg.Post("/withdrawals", fh.CreateWithdrawal)
	fg.Get("/withdrawals", fh.MyWithdrawals)

	ih := &invhandler.Handlers{Service: svc.Investments}
	ig := app.Group("/api/v1/investments", middleware.RequireAuth())
	ig.Get("/plans", middleware.AuthorizePermission(constants.ViewData), ih.ListPlans)
	ig.Post("/subscribe", middleware.AuthorizePermission(constants.Invest), ih.Subscribe)
	ig.Get("/mine", middleware.AuthorizePermission(constants.ViewData), ih.Mine)

	eh := &elighandler.Handlers{Service: &eligsvc.Service{Store: store}}
	eg := app.Group("/api/v1/eligibility", middleware.RequireAuth(), middleware.AuthorizePermission(constants.Invest))
	eg.Post("/apply", eh.Apply)
	eg.Get("/mine", eh.Mine)

	admin := app.Group("/api/v1/admin", middleware.RequireAuth())
	admin.Patch("/users/:id/role", middleware.AuthorizePermission(constants.AssignRole), uh.UpdateRole)

	admin.Get("/deposits", middleware.AuthorizePermission(constants.ReviewFunding), fh.ListDeposits)
	admin.Patch("/deposits/:id", middleware.AuthorizePermission(constants.ReviewFunding), fh.ReviewDeposit)
	admin.Get("/withdrawals", middleware.AuthorizePermission(constants.ReviewFunding), fh.ListWithdrawals)
	admin.Patch("/withdrawals/:id", middleware.AuthorizePermission(constants.ReviewFunding), fh.ReviewWithdrawal)

	admin.Get("/plans", middleware.AuthorizePermission(constants.ManagePlans), ih.CatalogPlans)
	admin.Post("/plans", middleware.AuthorizePermission(constants.ManagePlans), ih.CreatePlan)
	admin.Patch("/plans/:id", middleware.AuthorizePermission(constants.ManagePlans), ih.UpdatePlan)
	admin.Post("/plans/:id/access", middleware.AuthorizePermission(constants.ManagePlans), ih.GrantAccess)
	admin.Get("/investments", middleware.AuthorizePermission(constants.ManagePlans), ih.ListInvestments)
	admin.Patch("/investments/:id/duration", middleware.AuthorizePermission(constants.ManagePlans), ih.OverrideDuration)

	admin.Get("/eligibility", middleware.AuthorizePermission(constants.ReviewEligibility), eh.List)
	admin.Patch("/eligibility/:id", middleware.AuthorizePermission(constants.ReviewEligibility), eh.Review)

	admin.Post("/maintenance/mature", middleware.AuthorizePermission(constants.RunMaintenance), ih.RunMaturity)

	return app
}
