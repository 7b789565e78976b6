package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"roamstay-backend/internal/domain"
)

// Redis keys for the ops dashboard. Exported for the health handlers
// (reset, collect, error log).
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

const errorLogMax = 100

// HealthMarker records request stats in Redis (skip /, /health*, favicon).
// Server-side failures are counted and appended to a capped error log.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		lastReq := map[string]interface{}{
			"time":   time.Now(),
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		}
		b, _ := json.Marshal(lastReq)
		ctx := context.Background()
		_, _ = rdb.Set(ctx, KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Result()
		if isServerFailure(c, err) {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
			kind, message := "", "server error"
			if err != nil {
				derr := domain.Wrap(err)
				kind, message = string(derr.Kind), derr.Message
			}
			logEntry, _ := json.Marshal(map[string]interface{}{
				"time":     time.Now(),
				"path":     c.OriginalURL(),
				"method":   c.Method(),
				"kind":     kind,
				"message":  message,
				"trace_id": GetTraceID(c),
			})
			_, _ = rdb.LPush(ctx, KeyErrorLog, logEntry).Result()
			_, _ = rdb.LTrim(ctx, KeyErrorLog, 0, errorLogMax-1).Result()
		}
		return err
	}
}

// isServerFailure classifies the outcome before the error handler has
// run, so the response status alone cannot be trusted yet.
func isServerFailure(c *fiber.Ctx, err error) bool {
	if err != nil {
		code, ok := statusFor[domain.KindOf(err)]
		return !ok || code >= 500
	}
	return c.Response().StatusCode() >= 500
}
