package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/application/billing"
	"github.com/leaseledger/backend/internal/infrastructure/joblock"
)

const rentBillingLockName = "rent-billing"

// BillingJob is the unit of work the scheduler fires once per day
type BillingJob interface {
	GenerateUnpaidTransactions(ctx context.Context, now time.Time) (*billing.RunResult, error)
}

// RentBillingSchedulerConfig holds configuration for the rent billing scheduler
type RentBillingSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// RunHourUTC is the hour (0-23, UTC) when the daily billing run fires
	RunHourUTC int

	// RunTimeout is the maximum time for one billing run
	RunTimeout time.Duration

	// LockTTL is how long the distributed job lock lives if never released
	LockTTL time.Duration
}

// DefaultRentBillingSchedulerConfig returns default configuration
func DefaultRentBillingSchedulerConfig() RentBillingSchedulerConfig {
	return RentBillingSchedulerConfig{
		Enabled:    true,
		RunHourUTC: 0,
		RunTimeout: 10 * time.Minute,
		LockTTL:    15 * time.Minute,
	}
}

// RentBillingScheduler fires the billing run once per day at the configured
// UTC hour. The job lock keeps concurrent instances from racing; the store's
// conflict handling keeps a raced or rerun batch harmless anyway.
type RentBillingScheduler struct {
	job       BillingJob
	lock      joblock.Lock
	logger    *zap.Logger
	config    RentBillingSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRentBillingScheduler creates a new rent billing scheduler
func NewRentBillingScheduler(
	job BillingJob,
	lock joblock.Lock,
	logger *zap.Logger,
	config RentBillingSchedulerConfig,
) *RentBillingScheduler {
	return &RentBillingScheduler{
		job:    job,
		lock:   lock,
		logger: logger,
		config: config,
	}
}

// Start starts the rent billing scheduler
func (s *RentBillingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Rent billing scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runDaily(ctx)

	s.logger.Info("Rent billing scheduler started",
		zap.Int("run_hour_utc", s.config.RunHourUTC),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *RentBillingScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Rent billing scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Rent billing scheduler stop timed out")
		return ctx.Err()
	}
}

// runDaily fires the billing run once per day at the configured UTC hour
func (s *RentBillingScheduler) runDaily(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := time.Now().UTC()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), s.config.RunHourUTC, 0, 0, 0, time.UTC)
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}
		delay := time.Until(nextRun)

		s.logger.Info("Daily rent billing run scheduled",
			zap.Time("next_run", nextRun),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			s.logger.Debug("Rent billing loop stopping")
			return
		case <-time.After(delay):
			s.execute(ctx)
		}
	}
}

// execute runs one billing pass under the job lock
func (s *RentBillingScheduler) execute(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx, rentBillingLockName, s.config.LockTTL)
	if err != nil {
		s.logger.Error("Failed to acquire rent billing job lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Info("Rent billing run skipped, another instance holds the lock")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx, rentBillingLockName); err != nil {
			s.logger.Warn("Failed to release rent billing job lock", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.job.GenerateUnpaidTransactions(runCtx, time.Now().UTC())
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Daily rent billing run failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Daily rent billing run finished",
		zap.Duration("duration", duration),
		zap.Int("evaluated", result.LeasesEvaluated),
		zap.Int64("inserted", result.Inserted),
		zap.Int("skipped_not_due", result.SkippedNotDue),
		zap.Int("data_errors", len(result.DataErrors)),
	)
}

// TriggerImmediateRun fires a billing run now, outside the daily schedule
func (s *RentBillingScheduler) TriggerImmediateRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate rent billing run")

	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *RentBillingScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
