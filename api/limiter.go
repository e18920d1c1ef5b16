package api

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LimiterIdleTTL is how long a viewer's bucket is kept without requests
const LimiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// LimiterPool hands out one token bucket per viewer. Buckets idle for longer
// than the idle window are dropped; by then they have refilled, so a fresh
// bucket grants nothing extra.
type LimiterPool struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rps       float64
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiterPool creates a pool of limiters allowing rps requests per second
// with the given burst
func NewLimiterPool(rps float64, burst int) *LimiterPool {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	idle := LimiterIdleTTL
	if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
		idle = refill
	}
	return &LimiterPool{
		m:     make(map[string]*limiterEntry),
		rps:   rps,
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
}

func (p *LimiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastSweep) >= p.idle {
		p.sweep(now)
	}
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.lim
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{lim: l, lastSeen: now}
	return l
}

// sweep drops idle buckets. The caller holds p.mu.
func (p *LimiterPool) sweep(now time.Time) {
	for k, e := range p.m {
		if now.Sub(e.lastSeen) >= p.idle {
			delete(p.m, k)
		}
	}
	p.lastSweep = now
}

// Len returns the number of buckets held
func (p *LimiterPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// Allow reports whether the viewer may make another request now
func (p *LimiterPool) Allow(key string) bool {
	return p.get(key).AllowN(p.now(), 1)
}

// Middleware answers 429 once the authenticated viewer runs out of tokens.
// It must run after the auth middleware.
func (p *LimiterPool) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := ViewerFrom(r.Context())
		if ok && !p.Allow(viewer.ID) {
			zap.S().Warnw("rate limited", "viewer", viewer.ID, "path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": "too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
