package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Gateward/GW-Backend/internal/utils"
)

// ipLimiter hands out one token bucket per client IP and forgets buckets
// that have been idle long enough to refill completely.
type ipLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucketEntry
	limit    rate.Limit
	burst    int
	lastSeen time.Duration
	stop     chan struct{}
}

type bucketEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		buckets:  make(map[string]*bucketEntry),
		limit:    limit,
		burst:    burst,
		lastSeen: 10 * time.Minute,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for ip, entry := range l.buckets {
				if time.Since(entry.seen) > l.lastSeen {
					delete(l.buckets, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.buckets[ip]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = entry
	}
	entry.seen = time.Now()
	return entry.limiter.Allow()
}

// RateLimiter throttles per client IP. Used on the credential endpoints so a
// single address cannot hammer the password checker, on top of the
// per-account locking policy.
type RateLimiter struct {
	l    *ipLimiter
	once sync.Once
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{l: newIPLimiter(rate.Limit(float64(perMinute)/60.0), burst)}
}

// Middleware rejects over-limit requests with 429 and a Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.l.allow(utils.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the background sweeper. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.l.stop) })
}
