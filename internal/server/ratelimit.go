package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/studyloop/mentor-go/internal/logging"
)

// Rate-limit defaults for the API endpoints. Search and ask requests fan out
// to embedding and completion providers, so the per-IP budget is deliberately
// modest; the burst absorbs a page-load's worth of parallel requests.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20

	// staleAfter is how long an idle IP keeps its bucket before eviction.
	staleAfter = 5 * time.Minute
	// sweepInterval is how often stale buckets are collected.
	sweepInterval = time.Minute
)

// bucket pairs a per-IP token bucket with its last activity, so the sweep
// can drop buckets for IPs that went away.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a per-IP token-bucket rate limit across the protected
// endpoints. Buckets are created on first contact and swept periodically to
// bound memory on long-running deployments.
type rateLimiter struct {
	// mu protects the limiters map.
	mu sync.Mutex
	// limiters maps remote IP to its bucket.
	limiters map[string]*bucket
	// rps is the sustained request rate allowed per IP (requests/second).
	rps rate.Limit
	// burst is the maximum instantaneous burst per IP.
	burst int
	// log is the structured logger for rate-limit events.
	log *slog.Logger
}

// newRateLimiter constructs a rateLimiter and starts the background sweep
// goroutine. The goroutine exits when the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		limiters: make(map[string]*bucket),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				rl.evict()
			}
		}
	}()

	return rl, func() { close(stopCh) }
}

// getLimiter returns the token bucket for ip, creating it on first contact.
func (rl *rateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.limiters[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// evict drops buckets idle for longer than staleAfter.
func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for ip, b := range rl.limiters {
		if b.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// middleware enforces the rate limit before delegating to next. Requests
// over budget receive 429 with a Retry-After header and the same JSON error
// shape the handlers use.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.getLimiter(ip).Allow() {
			logging.FromContext(r.Context()).Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote IP from the request, stripping the port.
// X-Forwarded-For is deliberately not trusted: the server binds to
// localhost by default and sits behind no proxy it controls.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
