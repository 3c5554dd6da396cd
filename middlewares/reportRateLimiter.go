package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const reportLimitWindow = 24 * time.Hour

// ReportRateLimiter caps report submissions per browser per day.
func ReportRateLimiter(client *redis.Client, queuePrefix string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		browserID := BrowserID(c)
		if browserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "browser identity missing"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		// Create individual key for each browser
		browserKey := queuePrefix + ":" + browserID

		count, err := client.Incr(ctx, browserKey).Result()
		if err != nil {
			log.Error().Err(err).Msg("redis error incrementing report count")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		// Set TTL only for the first increment
		if count == 1 {
			if err := client.Expire(ctx, browserKey, reportLimitWindow).Err(); err != nil {
				log.Error().Err(err).Msg("redis error setting report limit TTL")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, browserKey).Result()
			b := Browser(c)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       b.Translator.T("report.error.rateLimited"),
				"kind":        "validation",
				"key":         "report.error.rateLimited",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
