package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/varejo/backend/internal/domain/notification"
)

// RedisSendLimiter implements SendLimiter on a shared Redis counter so
// multiple scheduler instances draw from the same quota. The key's TTL is
// set when the first send opens the window and never extended, giving the
// same fixed-window semantics as the in-memory limiter.
type RedisSendLimiter struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

// NewRedisSendLimiter creates a Redis-backed limiter allowing limit sends
// per hour per company
func NewRedisSendLimiter(client *redis.Client, limit int) *RedisSendLimiter {
	if limit <= 0 {
		limit = notification.DefaultMaxMessagesPerHour
	}
	return &RedisSendLimiter{
		client: client,
		limit:  limit,
		ttl:    time.Hour,
	}
}

func (l *RedisSendLimiter) key(companyID uuid.UUID) string {
	return fmt.Sprintf("dunning:quota:%s", companyID)
}

// CanSend implements notification.SendLimiter
func (l *RedisSendLimiter) CanSend(ctx context.Context, companyID uuid.UUID) (bool, error) {
	count, err := l.client.Get(ctx, l.key(companyID)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read send quota: %w", err)
	}
	return count < l.limit, nil
}

// RecordSend implements notification.SendLimiter
func (l *RedisSendLimiter) RecordSend(ctx context.Context, companyID uuid.UUID) error {
	key := l.key(companyID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record send: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set quota window: %w", err)
		}
	}
	return nil
}

// Ensure RedisSendLimiter implements SendLimiter
var _ notification.SendLimiter = (*RedisSendLimiter)(nil)
