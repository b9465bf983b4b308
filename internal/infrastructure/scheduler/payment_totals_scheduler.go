package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/application/billing"
)

// TotalsJob is the projection refresh the scheduler fires on a short cadence
type TotalsJob interface {
	RefreshAll(ctx context.Context) (*billing.RefreshResult, error)
}

// PaymentTotalsSchedulerConfig holds configuration for the totals scheduler
type PaymentTotalsSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is how often the projection is refreshed
	Interval time.Duration

	// RefreshTimeout is the maximum time for one refresh pass
	RefreshTimeout time.Duration
}

// DefaultPaymentTotalsSchedulerConfig returns default configuration
func DefaultPaymentTotalsSchedulerConfig() PaymentTotalsSchedulerConfig {
	return PaymentTotalsSchedulerConfig{
		Enabled:        true,
		Interval:       10 * time.Minute,
		RefreshTimeout: 2 * time.Minute,
	}
}

// PaymentTotalsScheduler refreshes the payment totals projection on a fixed
// ticker, independent of the daily billing run.
type PaymentTotalsScheduler struct {
	job       TotalsJob
	logger    *zap.Logger
	config    PaymentTotalsSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewPaymentTotalsScheduler creates a new payment totals scheduler
func NewPaymentTotalsScheduler(
	job TotalsJob,
	logger *zap.Logger,
	config PaymentTotalsSchedulerConfig,
) *PaymentTotalsScheduler {
	return &PaymentTotalsScheduler{
		job:    job,
		logger: logger,
		config: config,
	}
}

// Start starts the payment totals scheduler
func (s *PaymentTotalsScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Payment totals scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Payment totals scheduler started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *PaymentTotalsScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Payment totals scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Payment totals scheduler stop timed out")
		return ctx.Err()
	}
}

// run refreshes the projection on every tick until the context is cancelled
func (s *PaymentTotalsScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Payment totals loop stopping")
			return
		case <-ticker.C:
			s.execute(ctx)
		}
	}
}

// execute runs one refresh pass with a timeout
func (s *PaymentTotalsScheduler) execute(ctx context.Context) {
	refreshCtx, cancel := context.WithTimeout(ctx, s.config.RefreshTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.job.RefreshAll(refreshCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Payment totals refresh pass failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Payment totals refresh pass finished",
		zap.Duration("duration", duration),
		zap.Int("total_tenants", result.TotalTenants),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)
}

// IsRunning returns whether the scheduler is running
func (s *PaymentTotalsScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
