package middleware

import (
	"log"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterMiddleware holds one limiter per client address.
type RateLimiterMiddleware struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	// Rate is the number of events per second.
	rate rate.Limit
	// Burst is the burst size.
	burst int
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(r rate.Limit, b int) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// Middleware is the actual middleware handler.
func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		rl.mu.Lock()
		limiter, exists := rl.limiters[host]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[host] = limiter
		}
		rl.mu.Unlock()

		if !limiter.Allow() {
			log.Printf("RateLimiter: limit exceeded for %s", host)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
