package token

import (
	"sync"
	"time"
)

// revocationList maps raw tokens to their expiry. Entries past expiry are
// swept because the token would fail validation anyway.
type revocationList struct {
	mu       sync.RWMutex
	tokens   map[string]time.Time
	now      func() time.Time
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

func newRevocationList(interval time.Duration) *revocationList {
	return &revocationList{
		tokens:   make(map[string]time.Time),
		now:      time.Now,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (l *revocationList) start() {
	if l.interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.prune()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *revocationList) close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *revocationList) add(raw string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[raw] = expiresAt
}

func (l *revocationList) contains(raw string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.tokens[raw]
	return ok
}

func (l *revocationList) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = make(map[string]time.Time)
}

func (l *revocationList) prune() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for raw, expiresAt := range l.tokens {
		if now.After(expiresAt) {
			delete(l.tokens, raw)
		}
	}
}

func (l *revocationList) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tokens)
}
