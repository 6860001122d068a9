package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// idleBucketTTL is how long a client may stay quiet before its bucket is dropped.
const idleBucketTTL = 10 * time.Minute

// RateLimiter keeps a token bucket per client address and limit size.
// Terminals on a ward usually share a NAT address, so limits are sized per
// ward rather than per device.
type RateLimiter struct {
	clock clockwork.Clock

	mu      sync.Mutex
	buckets map[bucketKey]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucketKey struct {
	perMinute int
	client    string
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter starts the idle-bucket sweeper. Call Stop on shutdown.
func NewRateLimiter(clock clockwork.Clock, cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clock:   clock,
		buckets: make(map[bucketKey]*bucket),
		stop:    make(chan struct{}),
	}
	go rl.sweep(cleanupInterval)
	return rl
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Limit admits perMinute requests per client, refilled continuously.
// Limits of different sizes keep separate buckets, so a tight login limit can
// sit inside the general one.
func (rl *RateLimiter) Limit(perMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := rl.take(bucketKey{perMinute, clientIP(r)}); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take spends one token, or reports how long until one is available.
func (rl *RateLimiter) take(key bucketKey) (time.Duration, bool) {
	capacity := float64(key.perMinute)
	perSecond := capacity / 60
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, lastSeen: now}
		rl.buckets[key] = b
	}
	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*perSecond)
	b.lastSeen = now

	if b.tokens < 1 {
		return time.Duration((1 - b.tokens) / perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := rl.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.Chan():
			cutoff := rl.clock.Now().Add(-idleBucketTTL)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
