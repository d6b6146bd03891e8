package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appnotification "github.com/varejo/backend/internal/application/notification"
	"github.com/varejo/backend/internal/domain/shared"
)

// cronTickerInterval is how often the scheduler checks whether it is time
// to run
const cronTickerInterval = 1 * time.Minute

// DunningCronSchedulerConfig holds configuration for the daily dunning sweep
type DunningCronSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// Hour is the hour (0-23) of the daily run
	Hour int
	// Minute is the minute (0-59) of the daily run
	Minute int
	// RunTimeout is the maximum time one sweep may take
	RunTimeout time.Duration
}

// DefaultDunningCronSchedulerConfig runs the sweep at 09:00 daily
func DefaultDunningCronSchedulerConfig() DunningCronSchedulerConfig {
	return DunningCronSchedulerConfig{
		Enabled:    true,
		Hour:       9,
		Minute:     0,
		RunTimeout: 30 * time.Minute,
	}
}

// DunningCronScheduler fires the daily dunning sweep at a configured
// hour:minute. A minute ticker checks the clock; an in-flight flag prevents
// overlapping sweeps and a last-run marker prevents a second sweep on the
// same calendar day (the ticker can land on the scheduled minute twice
// around clock adjustments).
type DunningCronScheduler struct {
	config  DunningCronSchedulerConfig
	dunning *appnotification.DunningService
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	inFlight  bool
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewDunningCronScheduler creates a new DunningCronScheduler
func NewDunningCronScheduler(
	config DunningCronSchedulerConfig,
	dunning *appnotification.DunningService,
	logger *zap.Logger,
) *DunningCronScheduler {
	return &DunningCronScheduler{
		config:  config,
		dunning: dunning,
		logger:  logger.Named("dunning-scheduler"),
	}
}

// Start starts the cron loop
func (s *DunningCronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime(time.Now())

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Dunning scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron loop and waits for an in-flight sweep to finish or
// the context to expire
func (s *DunningCronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Dunning scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Dunning scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *DunningCronScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(ctx, now)
				s.calculateNextRunTime(now)
			}
		}
	}
}

func (s *DunningCronScheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.config.Hour || now.Minute() != s.config.Minute {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	if s.lastRunAt != nil && shared.SameCalendarDay(*s.lastRunAt, now) {
		return false
	}
	return true
}

func (s *DunningCronScheduler) calculateNextRunTime(now time.Time) {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.Hour, s.config.Minute, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

func (s *DunningCronScheduler) runSweep(ctx context.Context, now time.Time) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.lastRunAt = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	runCtx := ctx
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	report, err := s.dunning.RunDaily(runCtx)
	if err != nil {
		s.logger.Error("Dunning sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Dunning sweep completed",
		zap.Int("companies", report.Companies),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
	)
}

// TriggerManualRun starts a sweep on demand. It uses a background context
// so the sweep survives the HTTP request that triggered it.
func (s *DunningCronScheduler) TriggerManualRun() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweep(context.Background(), time.Now())
	}()
	return nil
}

// GetStatus returns the current scheduler status
func (s *DunningCronScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"in_flight":   s.inFlight,
		"hour":        s.config.Hour,
		"minute":      s.config.Minute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}
