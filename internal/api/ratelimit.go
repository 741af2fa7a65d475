package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter applies a per-tenant token bucket in front of the API.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	return &RateLimiter{limiters: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}
}

func (rl *RateLimiter) limiterFor(tenant string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[tenant]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[tenant] = l
	}
	return l
}

// Middleware rejects requests beyond the tenant budget with 429. Streaming
// endpoints consume a single token at connect time like any other request.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := r.Header.Get("X-Tenant-Id")
		if tenant == "" {
			tenant = "t_demo"
		}
		if !rl.limiterFor(tenant).Allow() {
			writeProblem(w, http.StatusTooManyRequests, "Rate limit exceeded", "slow down", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
