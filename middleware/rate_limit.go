package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pizza-app/auth-service/config"
	"github.com/pizza-app/auth-service/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tokenBucket refills whole intervals since the last refill, takes one token
// and returns {allowed, remaining, retry_after_ms}
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimiter is a Redis token bucket keyed by client IP and route. It fails
// open: a disabled limiter or a Redis error lets the request through.
type RateLimiter struct {
	cfg    config.RateLimitConfig
	rdb    redis.Scripter
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a limiter. A nil client disables limiting.
func NewRateLimiter(cfg config.RateLimitConfig, rdb redis.Scripter, logger *zap.Logger) *RateLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "rl:auth"
	}
	return &RateLimiter{cfg: cfg, rdb: rdb, logger: logger, now: time.Now}
}

// Enabled reports whether requests are being counted
func (l *RateLimiter) Enabled() bool {
	return l.cfg.Enabled && l.rdb != nil
}

// Limit is the middleware applied to the public auth endpoints
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if !l.Enabled() {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.Key(r)
		ctx := r.Context()

		vals, err := tokenBucket.Run(ctx, l.rdb, []string{key},
			l.now().UnixMilli(),
			l.cfg.Capacity,
			l.cfg.RefillTokens,
			l.cfg.RefillInterval.Milliseconds(),
			int64(l.cfg.TTL/time.Second),
		).Result()
		if err != nil {
			l.logger.Warn("rate limiter unavailable",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("key", key),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		arr, ok := vals.([]interface{})
		if !ok || len(arr) != 3 {
			l.logger.Warn("unexpected rate limiter result",
				zap.String("key", key),
				zap.String("result", fmt.Sprintf("%#v", vals)))
			next.ServeHTTP(w, r)
			return
		}

		allowed := asInt64(arr[0]) == 1
		remaining := asInt64(arr[1])
		retryMs := asInt64(arr[2])

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := int(math.Ceil(float64(retryMs) / 1000.0))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			l.logger.Info("rate limit exceeded",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("key", key),
				zap.Int("retry_after", secs))
			_ = utils.WriteTooManyRequests(w, r, "")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Key builds the bucket key for a request: prefix:ip:<ip>:route:<method path>
func (l *RateLimiter) Key(r *http.Request) string {
	return strings.Join([]string{
		l.cfg.Prefix,
		"ip", clientIP(r),
		"route", r.Method + " " + r.URL.Path,
	}, ":")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
