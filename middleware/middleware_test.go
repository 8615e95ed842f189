package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pizza-app/auth-service/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeScripter answers every script call with a fixed result
type fakeScripter struct {
	result interface{}
	err    error
	keys   []string
	calls  int
}

func (f *fakeScripter) reply(ctx context.Context, keys []string) *redis.Cmd {
	f.calls++
	f.keys = keys
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(f.result)
	}
	return cmd
}

func (f *fakeScripter) Eval(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.reply(ctx, keys)
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.reply(ctx, keys)
}

func (f *fakeScripter) EvalRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.reply(ctx, keys)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	return f.reply(ctx, keys)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, _ ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceCmd(ctx)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	return redis.NewStringCmd(ctx)
}

func limiterConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       20,
		RefillTokens:   1,
		RefillInterval: 3 * time.Second,
		TTL:            10 * time.Minute,
		Prefix:         "rl:test",
	}
}

func passThrough() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := limiterConfig()
	cfg.Enabled = false
	scripter := &fakeScripter{}

	limiter := NewRateLimiter(cfg, scripter, zap.NewNop())
	assert.False(t, limiter.Enabled())

	w := httptest.NewRecorder()
	limiter.Limit(passThrough()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, scripter.calls)

	assert.False(t, NewRateLimiter(limiterConfig(), nil, zap.NewNop()).Enabled())
}

func TestRateLimiter_Allows(t *testing.T) {
	scripter := &fakeScripter{result: []interface{}{int64(1), int64(19), int64(0)}}
	limiter := NewRateLimiter(limiterConfig(), scripter, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	w := httptest.NewRecorder()
	limiter.Limit(passThrough()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "19", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, []string{"rl:test:ip:10.0.0.9:route:POST /auth/login"}, scripter.keys)
}

func TestRateLimiter_Blocks(t *testing.T) {
	scripter := &fakeScripter{result: []interface{}{int64(0), int64(0), int64(2500)}}
	limiter := NewRateLimiter(limiterConfig(), scripter, zap.NewNop())

	w := httptest.NewRecorder()
	limiter.Limit(passThrough()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/register", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
	assert.Equal(t, "TooManyRequestsError", decodeErrors(t, w).Error[0].Type)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	scripter := &fakeScripter{err: errors.New("connection refused")}
	limiter := NewRateLimiter(limiterConfig(), scripter, zap.New(core))

	w := httptest.NewRecorder()
	limiter.Limit(passThrough()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable").Len())
}

func TestRateLimiter_UnexpectedResult(t *testing.T) {
	scripter := &fakeScripter{result: "OK"}
	limiter := NewRateLimiter(limiterConfig(), scripter, zap.NewNop())

	w := httptest.NewRecorder()
	limiter.Limit(passThrough()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_DefaultPrefix(t *testing.T) {
	cfg := limiterConfig()
	cfg.Prefix = ""
	limiter := NewRateLimiter(cfg, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.RemoteAddr = "192.168.1.4"
	assert.Equal(t, "rl:auth:ip:192.168.1.4:route:POST /auth/refresh", limiter.Key(req))
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestIDFromContext(r.Context())
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "trace-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "trace-123", seen)
	})
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := RequestID(RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "/missing", fields["path"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestAuthContextRoundTrip(t *testing.T) {
	_, ok := AuthContextFrom(context.Background())
	assert.False(t, ok)

	ctx := WithAuthContext(context.Background(), AuthContext{UserID: 4, SessionID: 9})
	auth, ok := AuthContextFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), auth.SessionID)
}
