package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/travelhub/travel-hub/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ipLimiter holds a rate limiter and the last time it was seen.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter throttles login attempts per client IP. The default of
// 10 attempts per minute is generous for a human and hostile to a
// credential stuffer.
type LoginRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rate     rate.Limit
	burst    int
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoginRateLimiter creates a per-IP login limiter allowing perMinute
// attempts per minute with the same burst capacity.
func NewLoginRateLimiter(perMinute int, logger *zap.Logger) *LoginRateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	rl := &LoginRateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// getLimiter returns the rate limiter for the given IP, creating one if needed.
func (rl *LoginRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[ip]; exists {
		l.lastSeen = time.Now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

// cleanupLoop removes stale entries every 3 minutes.
func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(3 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, l := range rl.limiters {
				if time.Since(l.lastSeen) > 5*time.Minute {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Limit is the middleware. Throttled requests get a 429 with Retry-After;
// they never reach the auth service.
func (rl *LoginRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.getLimiter(ip).Allow() {
			retryAfter := int(1.0 / float64(rl.rate))
			if retryAfter < 1 {
				retryAfter = 1
			}
			rl.logger.Warn("login attempt throttled",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("client_ip", ip))
			_ = utils.WriteTooManyRequests(w, "Too many login attempts, try again shortly", retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote address without the port. chi's RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr by the
// time this runs.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
