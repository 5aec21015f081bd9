package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/damoang/angple-wiki/internal/common"
	"github.com/damoang/angple-wiki/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// rateLimitScript is an atomic Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, math.ceil(window / 1000) + 1)
    return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = 0
if #oldest >= 2 then
    reset_at = tonumber(oldest[2]) + window
end
return {0, 0, reset_at}
`)

// EditRateLimit limits page edits per caller (identity, or client IP for
// anonymous callers). A nil client or a non-positive limit disables it;
// redis errors let the request through.
func EditRateLimit(redisClient *redis.Client, keyPrefix string, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || perMinute <= 0 {
			c.Next()
			return
		}

		subject := GetUserID(c)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		now := time.Now().UnixMilli()
		result, err := rateLimitScript.Run(c.Request.Context(), redisClient, []string{keyPrefix + subject},
			perMinute, rateLimitWindow.Milliseconds(), now,
		).Int64Slice()
		if err != nil || len(result) != 3 {
			logger.GetLogger().Warn().Err(err).Msg("rate limit check failed; allowing request")
			c.Next()
			return
		}

		allowed, remaining, resetAt := result[0] == 1, result[1], result[2]
		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			retryAfter := (resetAt - now) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			common.ErrorResponse(c, http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
