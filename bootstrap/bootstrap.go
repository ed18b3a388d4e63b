package bootstrap

import (
	"brokerage-backend/internal/config"
	"brokerage-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosting (api handler imports this package, not internal).
// No scheduler runs here; prices come from the shared Redis feed and maturity is driven by cmd/sweep.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, _, err := router.CreateApp(cfg)
	return app, err
}
