package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler() *DunningCronScheduler {
	return NewDunningCronScheduler(DunningCronSchedulerConfig{
		Enabled: true,
		Hour:    9,
		Minute:  0,
	}, nil, zap.NewNop())
}

func TestDunningCronScheduler_ShouldRun(t *testing.T) {
	day := func(hour, minute int) time.Time {
		return time.Date(2024, 3, 15, hour, minute, 0, 0, time.UTC)
	}

	t.Run("fires on the scheduled minute", func(t *testing.T) {
		s := newTestScheduler()
		assert.True(t, s.shouldRun(day(9, 0)))
	})

	t.Run("stays quiet outside the scheduled minute", func(t *testing.T) {
		s := newTestScheduler()
		assert.False(t, s.shouldRun(day(9, 1)))
		assert.False(t, s.shouldRun(day(8, 0)))
	})

	t.Run("does not fire twice on the same day", func(t *testing.T) {
		s := newTestScheduler()
		ranAt := day(9, 0)
		s.lastRunAt = &ranAt

		assert.False(t, s.shouldRun(day(9, 0)))

		nextDay := ranAt.AddDate(0, 0, 1)
		assert.True(t, s.shouldRun(nextDay))
	})

	t.Run("does not overlap an in-flight sweep", func(t *testing.T) {
		s := newTestScheduler()
		s.inFlight = true
		assert.False(t, s.shouldRun(day(9, 0)))
	})
}

func TestDunningCronScheduler_CalculateNextRunTime(t *testing.T) {
	s := newTestScheduler()

	t.Run("later today when before the scheduled time", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 7, 30, 0, 0, time.UTC)
		s.calculateNextRunTime(now)
		require.NotNil(t, s.nextRunAt)
		assert.Equal(t, time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), *s.nextRunAt)
	})

	t.Run("tomorrow when past the scheduled time", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
		s.calculateNextRunTime(now)
		require.NotNil(t, s.nextRunAt)
		assert.Equal(t, time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC), *s.nextRunAt)
	})
}

func TestDunningCronScheduler_TriggerManualRun(t *testing.T) {
	t.Run("rejects when not started", func(t *testing.T) {
		s := newTestScheduler()
		assert.Equal(t, ErrSchedulerNotRunning, s.TriggerManualRun())
	})

	t.Run("rejects when a sweep is in flight", func(t *testing.T) {
		s := newTestScheduler()
		s.isRunning = true
		s.inFlight = true
		assert.Equal(t, ErrRunInProgress, s.TriggerManualRun())
	})
}

func TestDunningCronScheduler_GetStatus(t *testing.T) {
	s := newTestScheduler()
	status := s.GetStatus()

	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, false, status["is_running"])
	assert.Equal(t, 9, status["hour"])
}
