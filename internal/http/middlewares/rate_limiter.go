package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimiter is a fixed-window limiter keyed by client IP. It runs before
// identity is resolved, so it must not trust caller headers.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	return fixedWindow(limit, window, func(c echo.Context) string {
		return "ip:" + c.RealIP()
	})
}

// CallerRateLimiter limits each authenticated caller. It must run after
// Caller; requests without a resolved caller pass through.
func CallerRateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	return fixedWindow(limit, window, func(c echo.Context) string {
		if user := CallerFrom(c); user != nil {
			return "user:" + user.ID
		}
		return ""
	})
}

func fixedWindow(limit int, window time.Duration, keyOf func(echo.Context) string) echo.MiddlewareFunc {
	type bucket struct {
		count int
		start time.Time
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		swept   = time.Now()
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := keyOf(c)
			if key == "" {
				return next(c)
			}

			now := time.Now()

			mu.Lock()
			if now.Sub(swept) > window {
				for k, b := range buckets {
					if now.Sub(b.start) > window {
						delete(buckets, k)
					}
				}
				swept = now
			}

			b, ok := buckets[key]
			if !ok || now.Sub(b.start) > window {
				b = &bucket{start: now}
				buckets[key] = b
			}

			if b.count >= limit {
				mu.Unlock()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			b.count++
			mu.Unlock()

			return next(c)
		}
	}
}
