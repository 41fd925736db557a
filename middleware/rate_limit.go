package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig sizes a fixed window limiter
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc picks the bucket of a request. Defaults to the client IP.
	KeyFunc func(c echo.Context) string
	Message string
}

type rateWindow struct {
	used    int
	resetAt time.Time
}

// RateLimiter counts requests per bucket in fixed windows
type RateLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	windows map[string]*rateWindow
}

// NewRateLimiter builds a limiter and starts its background sweep
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c echo.Context) string { return c.RealIP() }
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}

	rl := &RateLimiter{config: config, windows: make(map[string]*rateWindow)}
	go func() {
		for now := range time.Tick(time.Minute) {
			rl.sweep(now)
		}
	}()
	return rl
}

// take spends one request of key's window. When the window is used up it
// reports how long until the window resets.
func (rl *RateLimiter) take(key string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(rl.config.Window)}
		rl.windows[key] = w
	}
	if w.used >= rl.config.Requests {
		return false, w.resetAt.Sub(now)
	}
	w.used++
	return true, 0
}

// sweep drops windows that have reset
func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// Middleware rejects requests over budget with 429 and a Retry-After header
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, wait := rl.take(rl.config.KeyFunc(c), time.Now())
			if !allowed {
				seconds := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, rl.config.Message)
			}
			return next(c)
		}
	}
}

// userKey buckets authenticated requests per user, falling back to the client IP
func userKey(c echo.Context) string {
	if user := GetCurrentUser(c); user != nil {
		return "user:" + user.ID
	}
	return "ip:" + c.RealIP()
}

// LoginRateLimiter allows 5 login attempts per minute per IP
var LoginRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 5,
	Window:   time.Minute,
	Message:  "Too many login attempts. Please wait a minute before trying again.",
})

// WorkflowRateLimiter allows 60 case writes per minute per user
var WorkflowRateLimiter = NewRateLimiter(RateLimitConfig{
	Requests: 60,
	Window:   time.Minute,
	KeyFunc:  userKey,
	Message:  "Rate limit exceeded. Please slow down your requests.",
})
