package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/varejo/backend/internal/domain/notification"
)

type sendWindow struct {
	count    int
	openedAt time.Time
}

// InMemorySendLimiter implements SendLimiter with a per-company counter and
// a fixed one-hour window opened by the first recorded send. Suitable for a
// single process; use the Redis limiter when schedulers scale out.
type InMemorySendLimiter struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*sendWindow
	limit   int
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemorySendLimiter creates a limiter allowing limit sends per hour
// per company. limit <= 0 falls back to the default quota.
func NewInMemorySendLimiter(limit int) *InMemorySendLimiter {
	if limit <= 0 {
		limit = notification.DefaultMaxMessagesPerHour
	}
	l := &InMemorySendLimiter{
		windows: make(map[uuid.UUID]*sendWindow),
		limit:   limit,
		ttl:     time.Hour,
		now:     time.Now,
	}
	go l.janitor()
	return l
}

// janitor periodically drops expired windows so companies that stopped
// messaging do not accumulate entries.
func (l *InMemorySendLimiter) janitor() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for range ticker.C {
		l.evictExpired()
	}
}

func (l *InMemorySendLimiter) evictExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for companyID, w := range l.windows {
		if l.expired(w) {
			delete(l.windows, companyID)
		}
	}
}

// CanSend implements notification.SendLimiter
func (l *InMemorySendLimiter) CanSend(_ context.Context, companyID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[companyID]
	if w == nil || l.expired(w) {
		return true, nil
	}
	return w.count < l.limit, nil
}

// RecordSend implements notification.SendLimiter
func (l *InMemorySendLimiter) RecordSend(_ context.Context, companyID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[companyID]
	if w == nil || l.expired(w) {
		l.windows[companyID] = &sendWindow{count: 1, openedAt: l.now()}
		return nil
	}
	w.count++
	return nil
}

func (l *InMemorySendLimiter) expired(w *sendWindow) bool {
	return l.now().Sub(w.openedAt) >= l.ttl
}

// Ensure InMemorySendLimiter implements SendLimiter
var _ notification.SendLimiter = (*InMemorySendLimiter)(nil)
