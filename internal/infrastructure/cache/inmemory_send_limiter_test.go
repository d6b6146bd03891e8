package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySendLimiter_QuotaEnforced(t *testing.T) {
	limiter := NewInMemorySendLimiter(50)
	ctx := context.Background()
	companyID := uuid.New()

	for i := 0; i < 50; i++ {
		ok, err := limiter.CanSend(ctx, companyID)
		require.NoError(t, err)
		require.True(t, ok, "send %d should be allowed", i+1)
		require.NoError(t, limiter.RecordSend(ctx, companyID))
	}

	ok, err := limiter.CanSend(ctx, companyID)
	require.NoError(t, err)
	assert.False(t, ok, "51st send must be rejected")
}

func TestInMemorySendLimiter_CompaniesAreIndependent(t *testing.T) {
	limiter := NewInMemorySendLimiter(1)
	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()

	require.NoError(t, limiter.RecordSend(ctx, a))

	ok, err := limiter.CanSend(ctx, a)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.CanSend(ctx, b)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemorySendLimiter_WindowResets(t *testing.T) {
	limiter := NewInMemorySendLimiter(2)
	ctx := context.Background()
	companyID := uuid.New()

	current := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	require.NoError(t, limiter.RecordSend(ctx, companyID))
	require.NoError(t, limiter.RecordSend(ctx, companyID))

	ok, err := limiter.CanSend(ctx, companyID)
	require.NoError(t, err)
	require.False(t, ok)

	// One hour after the window opened the quota is fresh again.
	current = current.Add(time.Hour)

	ok, err = limiter.CanSend(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.RecordSend(ctx, companyID))
	ok, err = limiter.CanSend(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, ok, "new window starts counting from one")
}

func TestInMemorySendLimiter_EvictsExpiredWindows(t *testing.T) {
	limiter := NewInMemorySendLimiter(50)
	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()

	current := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	require.NoError(t, limiter.RecordSend(ctx, a))
	current = current.Add(30 * time.Minute)
	require.NoError(t, limiter.RecordSend(ctx, b))

	// 70 minutes in, only the first window has run out.
	current = time.Date(2024, 3, 15, 10, 10, 0, 0, time.UTC)
	limiter.evictExpired()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.windows, a)
	assert.Contains(t, limiter.windows, b)
}

func TestInMemorySendLimiter_DefaultQuota(t *testing.T) {
	limiter := NewInMemorySendLimiter(0)
	assert.Equal(t, 50, limiter.limit)
}
