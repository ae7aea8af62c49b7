package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronTickerInterval is the interval at which the cron scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// jobTypeRolloverSweep identifies rollover sweep runs in the job record table
const jobTypeRolloverSweep = "ROLLOVER_SWEEP"

// RolloverSweeper applies the monthly usage reset to every profile whose
// counters are stale. Implemented by the entitlement rollover service.
type RolloverSweeper interface {
	SweepOnce(ctx context.Context) (int, error)
}

// RolloverCronSchedulerConfig holds configuration for the cron-based rollover scheduler
type RolloverCronSchedulerConfig struct {
	// Enabled indicates if the cron scheduler is enabled
	Enabled bool
	// CronHour is the hour (0-23) to run the daily sweep
	CronHour int
	// CronMinute is the minute (0-59) to run the daily sweep
	CronMinute int
	// DailyCronSchedule is the cron expression (parsed to extract hour/minute)
	DailyCronSchedule string
	// SweepTimeout is the maximum time a single sweep run can take
	SweepTimeout time.Duration
}

// DefaultRolloverCronSchedulerConfig returns default cron scheduler configuration.
// Defaults to running at 0:05 daily, shortly after any month boundary.
func DefaultRolloverCronSchedulerConfig() RolloverCronSchedulerConfig {
	return RolloverCronSchedulerConfig{
		Enabled:           true,
		CronHour:          0,
		CronMinute:        5,
		DailyCronSchedule: "5 0 * * *",
		SweepTimeout:      15 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute
// Returns defaults (0:05) if parsing fails or expression is empty
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	// Default values
	hour = 0
	minute = 5

	if cronExpr == "" {
		return hour, minute, nil
	}

	// Use strings.Fields for simple whitespace splitting
	parts := strings.Fields(cronExpr)

	if len(parts) < 2 {
		return hour, minute, nil
	}

	// Parse minute
	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 5); parseErr == nil {
			minute = val
		}
	}

	// Parse hour
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 0); parseErr == nil {
			hour = val
		}
	}

	// Validate ranges
	if minute < 0 || minute > 59 {
		return 0, 5, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 0, 5, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// SchedulerJobRecord represents a record of a scheduled job execution
type SchedulerJobRecord struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	JobType       string     `gorm:"column:job_type;size:50;not null"`
	Status        string     `gorm:"column:last_run_status;size:20"`
	Error         string     `gorm:"column:last_error;type:text"`
	ProfilesSwept int        `gorm:"column:profiles_swept"`
	StartedAt     *time.Time `gorm:"column:last_run_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	NextRunAt     *time.Time `gorm:"column:next_run_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (SchedulerJobRecord) TableName() string {
	return "scheduler_jobs"
}

// SchedulerJobRepository handles persistence of scheduler job records
type SchedulerJobRepository struct {
	db *gorm.DB
}

// NewSchedulerJobRepository creates a new SchedulerJobRepository
func NewSchedulerJobRepository(db *gorm.DB) *SchedulerJobRepository {
	return &SchedulerJobRepository{db: db}
}

// RecordJobStart records the start of a job execution
func (r *SchedulerJobRepository) RecordJobStart(ctx context.Context, jobType string) (uuid.UUID, error) {
	now := time.Now()
	record := &SchedulerJobRecord{
		ID:        uuid.New(),
		JobType:   jobType,
		Status:    "RUNNING",
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordJobComplete records the completion of a job
func (r *SchedulerJobRepository) RecordJobComplete(ctx context.Context, jobID uuid.UUID, success bool, swept int, errMsg string) error {
	now := time.Now()
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	return r.db.WithContext(ctx).
		Model(&SchedulerJobRecord{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"last_run_status": status,
			"last_error":      errMsg,
			"profiles_swept":  swept,
			"completed_at":    now,
			"updated_at":      now,
		}).Error
}

// GetLastJobStatus gets the last job record for a job type
func (r *SchedulerJobRepository) GetLastJobStatus(ctx context.Context, jobType string) (*SchedulerJobRecord, error) {
	var record SchedulerJobRecord
	err := r.db.WithContext(ctx).
		Where("job_type = ?", jobType).
		Order("last_run_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteOlderThan prunes job records older than the given time
func (r *SchedulerJobRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&SchedulerJobRecord{})
	return result.RowsAffected, result.Error
}

// RolloverCronScheduler runs the monthly usage rollover sweep on a daily cron.
// The sweep is a safety net: profiles also roll over lazily on first touch
// after a month boundary, so a missed run never blocks anyone. The daily
// sweep keeps reporting queries honest for profiles nobody has touched.
type RolloverCronScheduler struct {
	config  RolloverCronSchedulerConfig
	sweeper RolloverSweeper
	jobRepo *SchedulerJobRepository
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool

	// Last execution tracking
	lastRunAt *time.Time
	nextRunAt *time.Time
	lastSwept int
}

// NewRolloverCronScheduler creates a new cron-based rollover scheduler
func NewRolloverCronScheduler(
	config RolloverCronSchedulerConfig,
	sweeper RolloverSweeper,
	jobRepo *SchedulerJobRepository,
	logger *zap.Logger,
) *RolloverCronScheduler {
	return &RolloverCronScheduler{
		config:  config,
		sweeper: sweeper,
		jobRepo: jobRepo,
		logger:  logger,
	}
}

// Start starts the cron scheduler
func (s *RolloverCronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	// Calculate next run time
	s.calculateNextRunTime()

	// Start the cron ticker
	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Rollover cron scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron scheduler
func (s *RolloverCronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	// Cancel the cron loop
	if s.cancel != nil {
		s.cancel()
	}

	// Wait for cron loop to finish
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Rollover cron scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Rollover cron scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *RolloverCronScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	// Use a ticker that checks every minute for cron execution
	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the cron should run at the given time
func (s *RolloverCronScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.config.CronHour && now.Minute() == s.config.CronMinute
}

// calculateNextRunTime calculates the next run time
func (s *RolloverCronScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())

	// If we've already passed today's run time, schedule for tomorrow
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runSweep runs a single rollover sweep, recording the outcome
func (s *RolloverCronScheduler) runSweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		s.logger.Warn("Skipping rollover sweep, previous run still in progress")
		return
	}
	s.sweeping = true
	now := time.Now()
	s.lastRunAt = &now
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	s.logger.Info("Starting rollover sweep")

	sweepCtx := ctx
	if s.config.SweepTimeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, s.config.SweepTimeout)
		defer cancel()
	}

	// Record job start
	var jobID uuid.UUID
	if s.jobRepo != nil {
		var recordErr error
		jobID, recordErr = s.jobRepo.RecordJobStart(sweepCtx, jobTypeRolloverSweep)
		if recordErr != nil {
			s.logger.Warn("Failed to record sweep start", zap.Error(recordErr))
		}
	}

	swept, err := s.sweeper.SweepOnce(sweepCtx)

	s.mu.Lock()
	s.lastSwept = swept
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Rollover sweep failed",
			zap.Int("profiles_swept", swept),
			zap.Error(err),
		)
		if s.jobRepo != nil && jobID != uuid.Nil {
			_ = s.jobRepo.RecordJobComplete(ctx, jobID, false, swept, err.Error())
		}
		return
	}

	s.logger.Info("Rollover sweep finished", zap.Int("profiles_swept", swept))
	if s.jobRepo != nil && jobID != uuid.Nil {
		_ = s.jobRepo.RecordJobComplete(ctx, jobID, true, swept, "")
	}
}

// TriggerManualRun triggers a manual sweep outside the cron schedule
// Note: Uses background context to avoid premature cancellation when HTTP request completes
func (s *RolloverCronScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.sweeping {
		s.mu.Unlock()
		return ErrSweepAlreadyRunning
	}
	s.mu.Unlock()

	// Use background context to prevent premature cancellation when HTTP request completes
	go s.runSweep(context.Background())
	return nil
}

// GetStatus returns the current status of the cron scheduler
func (s *RolloverCronScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"sweeping":    s.sweeping,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
		"last_swept":  s.lastSwept,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *RolloverCronScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *RolloverCronScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
