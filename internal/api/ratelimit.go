// Per-IP token bucket rate limiting for the API.
package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig sets the per-client request budget.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int

	// TrustProxy keys clients by the first X-Forwarded-For address. Enable
	// it only behind a reverse proxy that overwrites the header.
	TrustProxy bool
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter for cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{cfg: cfg, clients: make(map[string]*rate.Limiter)}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	if !rl.cfg.Enabled {
		return true
	}
	rl.mu.Lock()
	lim, ok := rl.clients[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)
		rl.clients[ip] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}

// Cleanup forgets clients whose bucket has refilled.
func (rl *RateLimiter) Cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, lim := range rl.clients {
		if lim.TokensAt(now) >= float64(rl.cfg.BurstSize) {
			delete(rl.clients, ip)
		}
	}
}

// Middleware rejects over-budget requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.cfg.TrustProxy)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
