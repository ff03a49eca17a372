package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type sender struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter controls how frequently a caller may perform an action.
type Limiter interface {
	Allow(key string) bool
}

// keyedLimiter tracks per-identity send rates with expiration of idle
// entries.
type keyedLimiter struct {
	mu      sync.Mutex
	senders map[string]*sender
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// New constructs a per-key limiter that allows up to `events` actions per
// `window`. Entries expire after the provided ttl when no longer used.
func New(events int, window time.Duration, ttl time.Duration) Limiter {
	if events <= 0 {
		events = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &keyedLimiter{
		senders: make(map[string]*sender),
		limit:   rate.Every(window / time.Duration(events)),
		burst:   events,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	s := l.getSenderLocked(key, now)
	l.gcLocked(now)
	l.mu.Unlock()

	return s.limiter.Allow()
}

func (l *keyedLimiter) getSenderLocked(key string, now time.Time) *sender {
	if s, ok := l.senders[key]; ok {
		s.lastSeen = now
		return s
	}

	s := &sender{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.senders[key] = s
	return s
}

func (l *keyedLimiter) gcLocked(now time.Time) {
	for key, s := range l.senders {
		if now.Sub(s.lastSeen) > l.ttl {
			delete(l.senders, key)
		}
	}
}
