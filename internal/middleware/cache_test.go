package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/messagely/messaging-api/internal/config"
)

func cacheTestConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

// runCached sends one request through the middleware to a counting
// handler and returns the recorder.
func runCached(t *testing.T, mw echo.MiddlewareFunc, method string, calls *int) *httptest.ResponseRecorder {
	t.Helper()
	handler := func(c echo.Context) error {
		*calls++
		return c.JSON(http.StatusOK, echo.Map{"users": []string{"alice", "bob"}})
	}

	req := httptest.NewRequest(method, "/v1/users", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetPath("/v1/users")
	require.NoError(t, mw(handler)(c))
	return rec
}

func TestCachePassThroughWithoutRedis(t *testing.T) {
	mw := NewRedisCache(cacheTestConfig(), nil)

	var calls int
	rec := runCached(t, mw, http.MethodGet, &calls)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = runCached(t, mw, http.MethodGet, &calls)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, calls, "no client means every request reaches the handler")
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCachePassThroughWhenDisabled(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})

	cfg := cacheTestConfig()
	cfg.Enabled = false
	mw := NewRedisCache(cfg, rdb)

	var calls int
	runCached(t, mw, http.MethodGet, &calls)
	runCached(t, mw, http.MethodGet, &calls)

	assert.Equal(t, 2, calls)
	assert.Empty(t, s.Keys(), "disabled cache must not write to redis")
}

func TestCacheMissThenHit(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	mw := NewRedisCache(cacheTestConfig(), rdb)

	var calls int
	first := runCached(t, mw, http.MethodGet, &calls)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	require.Equal(t, 1, calls)
	require.Len(t, s.Keys(), 1)

	second := runCached(t, mw, http.MethodGet, &calls)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls, "a hit must not invoke the handler")
	assert.Equal(t, first.Body.String(), second.Body.String(), "cached body matches the original")
}

func TestCacheSkipsUncachedMethods(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	mw := NewRedisCache(cacheTestConfig(), rdb)

	var calls int
	runCached(t, mw, http.MethodPost, &calls)
	runCached(t, mw, http.MethodPost, &calls)

	assert.Equal(t, 2, calls)
	assert.Empty(t, s.Keys(), "POST responses are never cached")
}

func TestCacheEntryExpires(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	mw := NewRedisCache(cacheTestConfig(), rdb)

	var calls int
	runCached(t, mw, http.MethodGet, &calls)
	require.Equal(t, 1, calls)

	s.FastForward(time.Minute) // past the 30s TTL

	rec := runCached(t, mw, http.MethodGet, &calls)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls, "an expired entry falls back to the handler")
}
