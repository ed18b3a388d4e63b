package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouteLogger writes one line when a request enters and one when it leaves, with the
// caller's user id and the final status. It uses the trace logger set by Tracing.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := zerolog.Ctx(c.UserContext())
		if logger.GetLevel() == zerolog.Disabled {
			l := log.With().Str("trace_id", "no-trace-id").Logger()
			logger = &l
		}
		start := time.Now()
		logger.Info().Str("method", c.Method()).Str("path", c.Path()).Msg("Entering request")

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusCode(err)
		}
		ev := logger.Info()
		if status >= fiber.StatusInternalServerError {
			ev = logger.Warn()
		}
		if id, ok := CurrentUserID(c); ok {
			ev = ev.Str("user_id", id.String())
		}
		ev.Str("method", c.Method()).Str("path", c.Path()).Int("status", status).
			Int64("ms", time.Since(start).Milliseconds()).Msg("Exiting request")
		return err
	}
}
