package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware limiting each client IP to the given
// number of requests per minute, with a burst of the same size. A zero
// or negative limit disables limiting.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiters := &clientLimiters{
		limit:    rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    requestsPerMinute,
		byClient: make(map[string]*limiterEntry),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.allow(clientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientLimiters struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	byClient map[string]*limiterEntry
	sweep    time.Time
}

func (c *clientLimiters) allow(client string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Drop limiters for clients idle longer than ten minutes so the
	// map does not grow with every IP ever seen.
	if now.Sub(c.sweep) > 10*time.Minute {
		for ip, entry := range c.byClient {
			if now.Sub(entry.lastSeen) > 10*time.Minute {
				delete(c.byClient, ip)
			}
		}
		c.sweep = now
	}

	entry, ok := c.byClient[client]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.byClient[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
