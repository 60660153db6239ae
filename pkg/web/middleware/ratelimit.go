package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleClientTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// WithRateLimit limits every client address to limit requests per second with the given burst.
// Clients idle for longer than ten minutes are forgotten.
func WithRateLimit(limit float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}

	var (
		mu        sync.Mutex
		lastSweep time.Time
	)

	clients := make(map[string]*client)

	allow := func(key string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastSweep) > idleClientTTL {
			for k, c := range clients {
				if now.Sub(c.lastSeen) > idleClientTTL {
					delete(clients, k)
				}
			}

			lastSweep = now
		}

		c, ok := clients[key]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(limit), burst)}
			clients[key] = c
		}

		c.lastSeen = now

		return c.limiter.AllowN(now, 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(clientKey(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
