// Package ratelimit bounds how often and how many generation requests a
// single client may run. State is in memory and per process.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Config sets the limits. A zero RPS or Burst disables the token bucket;
// a zero MaxConcurrent disables the concurrency cap.
type Config struct {
	RPS           float64 `json:"rps" yaml:"rps"`
	Burst         int     `json:"burst" yaml:"burst"`
	MaxConcurrent int     `json:"max_concurrent" yaml:"max_concurrent"`

	// Bounds for the client map.
	MaxEntries int           `json:"max_entries" yaml:"max_entries"`
	EntryTTL   time.Duration `json:"entry_ttl" yaml:"entry_ttl"`
}

// Enabled reports whether any limit is set.
func (c Config) Enabled() bool {
	return (c.RPS > 0 && c.Burst > 0) || c.MaxConcurrent > 0
}

type Limiter struct {
	cfg Config

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	mu       sync.Mutex
	bucket   tokenBucket
	inFlight chan struct{}
	lastSeen time.Time
}

type tokenBucket struct {
	tokens float64
	last   time.Time
	primed bool
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10_000
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 30 * time.Minute
	}
	return &Limiter{
		cfg:     cfg,
		clients: make(map[string]*clientLimiter),
	}
}

// Permit is held for the duration of an admitted request.
type Permit struct {
	release func()
}

// Release frees the concurrency slot. It is safe to call more than once.
func (p *Permit) Release() {
	if p == nil || p.release == nil {
		return
	}
	p.release()
	p.release = nil
}

// Decision is the outcome of Acquire. RetryAfter is in seconds.
type Decision struct {
	Allowed    bool
	RetryAfter int
	Permit     *Permit
}

// Acquire admits one request for client at now.
func (l *Limiter) Acquire(client string, now time.Time) Decision {
	if client == "" {
		client = "anonymous"
	}
	cl := l.getOrCreate(client, now)

	if l.cfg.RPS > 0 && l.cfg.Burst > 0 {
		if ok, retryAfter := cl.take(now, l.cfg.RPS, l.cfg.Burst); !ok {
			return Decision{RetryAfter: retryAfter}
		}
	}

	if l.cfg.MaxConcurrent > 0 {
		select {
		case cl.inFlight <- struct{}{}:
			return Decision{Allowed: true, Permit: &Permit{release: func() { <-cl.inFlight }}}
		default:
			return Decision{RetryAfter: 1}
		}
	}
	return Decision{Allowed: true, Permit: &Permit{}}
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) getOrCreate(client string, now time.Time) *clientLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cl, ok := l.clients[client]; ok {
		cl.lastSeen = now
		return cl
	}
	if len(l.clients) >= l.cfg.MaxEntries {
		l.evictLocked(now)
	}
	cl := &clientLimiter{
		inFlight: make(chan struct{}, max(1, l.cfg.MaxConcurrent)),
		lastSeen: now,
	}
	l.clients[client] = cl
	return cl
}

// evictLocked drops idle clients, or one arbitrary client when none is idle.
func (l *Limiter) evictLocked(now time.Time) {
	for k, v := range l.clients {
		if now.Sub(v.lastSeen) > l.cfg.EntryTTL {
			delete(l.clients, k)
		}
	}
	if len(l.clients) < l.cfg.MaxEntries {
		return
	}
	for k := range l.clients {
		delete(l.clients, k)
		return
	}
}

func (cl *clientLimiter) take(now time.Time, rps float64, burst int) (bool, int) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	capacity := float64(burst)
	b := &cl.bucket
	if !b.primed {
		b.tokens, b.last, b.primed = capacity, now, true
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed*rps)
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	retryAfter := int(math.Ceil((1 - b.tokens) / rps))
	return false, max(1, retryAfter)
}
