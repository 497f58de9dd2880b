package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimiter caps requests per client within a fixed window. The bridge
// serves local collaborators, so a runaway poller is the only realistic
// abuser; a fixed-window counter per source address is enough.
func RateLimiter(limit int, window time.Duration) echo.MiddlewareFunc {
	type counter struct {
		seen       int
		windowFrom time.Time
	}

	var (
		mu       sync.Mutex
		counters = make(map[string]*counter)
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()
			source := c.RealIP()

			mu.Lock()
			entry, tracked := counters[source]
			if !tracked || now.Sub(entry.windowFrom) > window {
				entry = &counter{windowFrom: now}
				counters[source] = entry
			}

			if entry.seen >= limit {
				mu.Unlock()
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			entry.seen++

			// Drop counters from long-gone sources so the map stays small.
			if len(counters) > 64 {
				for key, stale := range counters {
					if now.Sub(stale.windowFrom) > window {
						delete(counters, key)
					}
				}
			}
			mu.Unlock()

			return next(c)
		}
	}
}
