package middleware

import (
	"net/http"
	"net/http/httptest"
	"police_case_app_go/models"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 10, Window: time.Minute})

	assert.NotNil(t, rl.config.KeyFunc)
	assert.Equal(t, "Too many requests. Please try again later.", rl.config.Message)
}

func TestRateLimiterTake(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 2, Window: time.Minute})
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	ok, _ := rl.take("desk-1", start)
	assert.True(t, ok)
	ok, _ = rl.take("desk-1", start.Add(10*time.Second))
	assert.True(t, ok)

	ok, wait := rl.take("desk-1", start.Add(15*time.Second))
	assert.False(t, ok)
	assert.Equal(t, 45*time.Second, wait)

	ok, _ = rl.take("desk-2", start.Add(15*time.Second))
	assert.True(t, ok, "buckets are independent")

	ok, _ = rl.take("desk-1", start.Add(time.Minute))
	assert.True(t, ok, "window resets")
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute})
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	rl.take("old", start)
	rl.take("fresh", start.Add(50*time.Second))
	rl.sweep(start.Add(time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "old")
	assert.Contains(t, rl.windows, "fresh")
}

func TestRateLimiterMiddleware(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	}

	t.Run("Over budget", func(t *testing.T) {
		handler := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute}).Middleware()(ok)

		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), rec)))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		err := handler(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), rec))
		he, isHTTPError := err.(*echo.HTTPError)
		require.True(t, isHTTPError)
		assert.Equal(t, http.StatusTooManyRequests, he.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("Per user buckets", func(t *testing.T) {
		handler := NewRateLimiter(RateLimitConfig{Requests: 1, Window: time.Minute, KeyFunc: userKey}).Middleware()(ok)

		request := func(userID string) error {
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/cases", nil), httptest.NewRecorder())
			c.Set(ContextKeyUser, &models.User{ID: userID})
			return handler(c)
		}

		assert.NoError(t, request("investigator-1"))
		assert.NoError(t, request("investigator-2"))
		assert.Error(t, request("investigator-1"))
	})
}
