package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	PerMinute int
	Burst     int
}

// Limiter tracks one token bucket per client key. Idle buckets are
// pruned so the map does not grow without bound.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const idleEvictAfter = 10 * time.Minute

func New(cfg Config) *Limiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &Limiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.PerMinute)/60.0), l.cfg.Burst),
		}
		l.clients[key] = client
	}
	client.lastSeen = now

	l.pruneLocked(now)
	return client.limiter.Allow()
}

func (l *Limiter) pruneLocked(now time.Time) {
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > idleEvictAfter {
			delete(l.clients, key)
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
