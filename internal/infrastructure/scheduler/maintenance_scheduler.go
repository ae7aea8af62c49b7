package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OutboxPruner deletes processed outbox entries older than a cutoff.
// Implemented by the GORM outbox repository.
type OutboxPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// JobRecordPruner deletes old scheduler job records.
type JobRecordPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// MaintenanceScheduler runs daily housekeeping: pruning sent outbox entries
// and old scheduler job records so both tables stay bounded.
type MaintenanceScheduler struct {
	outbox    OutboxPruner
	jobs      JobRecordPruner
	logger    *zap.Logger
	config    MaintenanceSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// MaintenanceSchedulerConfig holds configuration for the maintenance scheduler
type MaintenanceSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CleanupHour is the hour (0-23) when the daily cleanup runs
	CleanupHour int

	// OutboxRetention is how long sent outbox entries are kept
	OutboxRetention time.Duration

	// JobRecordRetention is how long scheduler job records are kept
	JobRecordRetention time.Duration

	// CleanupTimeout is the maximum time for a cleanup run
	CleanupTimeout time.Duration
}

// DefaultMaintenanceSchedulerConfig returns default configuration
func DefaultMaintenanceSchedulerConfig() MaintenanceSchedulerConfig {
	return MaintenanceSchedulerConfig{
		Enabled:            true,
		CleanupHour:        3, // 3 AM - cleanup old data
		OutboxRetention:    7 * 24 * time.Hour,
		JobRecordRetention: 30 * 24 * time.Hour,
		CleanupTimeout:     15 * time.Minute,
	}
}

// NewMaintenanceScheduler creates a new maintenance scheduler
func NewMaintenanceScheduler(
	outbox OutboxPruner,
	jobs JobRecordPruner,
	logger *zap.Logger,
	config MaintenanceSchedulerConfig,
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		outbox: outbox,
		jobs:   jobs,
		logger: logger,
		config: config,
	}
}

// Start starts the maintenance scheduler
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Maintenance scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runDailyCleanup(ctx)

	s.logger.Info("Maintenance scheduler started",
		zap.Int("cleanup_hour", s.config.CleanupHour),
		zap.Duration("outbox_retention", s.config.OutboxRetention),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop(ctx context.Context) error {
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

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Maintenance scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

// runDailyCleanup runs cleanup once per day at the configured hour
func (s *MaintenanceScheduler) runDailyCleanup(ctx context.Context) {
	defer s.wg.Done()

	for {
		// Calculate time until next daily run
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), s.config.CleanupHour, 0, 0, 0, now.Location())
		if now.After(nextRun) {
			// Already past today's run time, schedule for tomorrow
			nextRun = nextRun.Add(24 * time.Hour)
		}
		delay := time.Until(nextRun)

		s.logger.Info("Daily maintenance cleanup scheduled",
			zap.Time("next_run", nextRun),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			s.logger.Debug("Daily cleanup loop stopping")
			return
		case <-time.After(delay):
			s.executeCleanup(ctx)
		}
	}
}

// executeCleanup prunes the outbox and job record tables
func (s *MaintenanceScheduler) executeCleanup(ctx context.Context) {
	s.logger.Info("Starting maintenance cleanup",
		zap.Time("started_at", time.Now()),
	)

	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.CleanupTimeout)
	defer cancel()

	startTime := time.Now()

	if s.outbox != nil {
		cutoff := time.Now().Add(-s.config.OutboxRetention)
		deleted, err := s.outbox.DeleteOlderThan(cleanupCtx, cutoff)
		if err != nil {
			s.logger.Error("Outbox pruning failed", zap.Error(err))
		} else {
			s.logger.Info("Outbox pruned", zap.Int64("deleted_count", deleted))
		}
	}

	if s.jobs != nil {
		cutoff := time.Now().Add(-s.config.JobRecordRetention)
		deleted, err := s.jobs.DeleteOlderThan(cleanupCtx, cutoff)
		if err != nil {
			s.logger.Error("Job record pruning failed", zap.Error(err))
		} else {
			s.logger.Info("Job records pruned", zap.Int64("deleted_count", deleted))
		}
	}

	s.logger.Info("Maintenance cleanup completed",
		zap.Duration("duration", time.Since(startTime)),
	)
}

// TriggerImmediateCleanup triggers an immediate cleanup run
func (s *MaintenanceScheduler) TriggerImmediateCleanup(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate maintenance cleanup")

	// Run in a goroutine to not block
	go func() {
		defer s.wg.Done()
		s.executeCleanup(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
