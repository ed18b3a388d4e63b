package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis keys shared by the health dashboard, /health/json and /health/reset.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

const (
	errorLogSize  = 50
	markerTimeout = time.Second
)

func unmarked(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon")
}

// HealthMarker counts requests and latency in Redis. A request ending in a 5xx
// increments the failure counter and lands on the capped error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if unmarked(c.Path()) {
			return c.Next()
		}

		start := time.Now()
		method, url, ip := c.Method(), c.OriginalURL(), c.IP()
		err := c.Next()
		elapsed := time.Since(start).Milliseconds()

		// a returned error has not been rendered yet
		status := c.Response().StatusCode()
		message := ""
		if err != nil {
			status = StatusCode(err)
			message = err.Error()
		}

		ctx, cancel := context.WithTimeout(context.Background(), markerTimeout)
		defer cancel()
		last, _ := json.Marshal(map[string]interface{}{"time": start, "ip": ip, "path": url, "method": method})

		pipe := rdb.TxPipeline()
		pipe.Set(ctx, KeyLastReq, last, 0)
		pipe.Incr(ctx, KeyReqTotal)
		pipe.Incr(ctx, KeyResCount)
		pipe.IncrByFloat(ctx, KeyResTime, float64(elapsed))
		if status >= fiber.StatusInternalServerError {
			entry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now().UTC(),
				"method":   method,
				"path":     url,
				"status":   status,
				"message":  message,
				"trace_id": GetTraceID(c),
			})
			pipe.Incr(ctx, KeyReqErrors)
			pipe.LPush(ctx, KeyErrorLog, entry)
			pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
		}
		if _, perr := pipe.Exec(ctx); perr != nil {
			log.Debug().Err(perr).Msg("health counters not recorded")
		}
		return err
	}
}
