package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/domain/lease"
	"github.com/leaseledger/backend/internal/domain/ledger"
)

// RentBillingService materializes unpaid-rent ledger rows for every lease
// that has crossed its due date. It is the body of the daily batch job.
type RentBillingService struct {
	leases lease.Repository
	txns   ledger.TransactionRepository
	logger *zap.Logger
}

// NewRentBillingService creates a new RentBillingService
func NewRentBillingService(
	leases lease.Repository,
	txns ledger.TransactionRepository,
	logger *zap.Logger,
) *RentBillingService {
	return &RentBillingService{
		leases: leases,
		txns:   txns,
		logger: logger,
	}
}

// DataError identifies a lease excluded from a run because its billing
// configuration cannot be evaluated.
type DataError struct {
	LeaseID uuid.UUID `json:"lease_id"`
	Reason  string    `json:"reason"`
}

// RunResult contains statistics about one billing run
type RunResult struct {
	RunAt           time.Time   `json:"run_at"`
	LeasesEvaluated int         `json:"leases_evaluated"`
	Inserted        int64       `json:"inserted"`
	SkippedNotDue   int         `json:"skipped_not_due"`
	DataErrors      []DataError `json:"data_errors,omitempty"`
}

// GenerateUnpaidTransactions runs one billing pass.
//
// The now snapshot is captured once and stamps every comparison and every
// generated row, so a batch never mixes clocks. Leases that already carry an
// outstanding UNPAID row never come back from the billable query; leases
// whose configuration cannot be evaluated are excluded and reported, not
// silently dropped. All qualifying rows go to the store in a single bulk
// write: if that write fails the whole run fails and the next scheduled run
// retries naturally.
func (s *RentBillingService) GenerateUnpaidTransactions(ctx context.Context, now time.Time) (*RunResult, error) {
	now = now.UTC()
	result := &RunResult{RunAt: now}

	candidates, err := s.leases.FindBillable(ctx, now)
	if err != nil {
		s.logger.Error("Failed to query billable leases", zap.Error(err))
		return nil, fmt.Errorf("failed to query billable leases: %w", err)
	}
	result.LeasesEvaluated = len(candidates)

	if len(candidates) == 0 {
		s.logger.Debug("No billable leases found")
		return result, nil
	}

	s.logger.Info("Evaluating billable leases",
		zap.Int("lease_count", len(candidates)),
		zap.Time("run_at", now),
	)

	txns := make([]ledger.Transaction, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]

		due, err := c.NextDueDate(now)
		if err != nil {
			s.logger.Error("Lease excluded from billing run",
				zap.String("lease_id", c.ID.String()),
				zap.String("tenant_id", c.TenantID.String()),
				zap.String("frequency", c.PaymentFrequency.String()),
				zap.Error(err),
			)
			result.DataErrors = append(result.DataErrors, DataError{LeaseID: c.ID, Reason: err.Error()})
			continue
		}
		if due == nil || due.After(now) {
			result.SkippedNotDue++
			continue
		}

		txns = append(txns, *ledger.NewUnpaidRent(c.TenantID, c.ID, c.RentAmount, c.Description(), now))
	}

	if len(txns) == 0 {
		s.logger.Info("No leases due for billing",
			zap.Int("evaluated", result.LeasesEvaluated),
			zap.Int("data_errors", len(result.DataErrors)),
		)
		return result, nil
	}

	inserted, err := s.txns.CreateBatch(ctx, txns)
	if err != nil {
		s.logger.Error("Bulk insert of unpaid transactions failed",
			zap.Int("attempted", len(txns)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to insert unpaid transactions: %w", err)
	}
	result.Inserted = inserted

	s.logger.Info("Unpaid rent billing run completed",
		zap.Int("evaluated", result.LeasesEvaluated),
		zap.Int64("inserted", inserted),
		zap.Int("skipped_not_due", result.SkippedNotDue),
		zap.Int("data_errors", len(result.DataErrors)),
	)
	return result, nil
}

// OverdueForLease returns the informational overdue summary for one lease
func (s *RentBillingService) OverdueForLease(ctx context.Context, leaseID uuid.UUID, now time.Time) (*lease.OverdueSummary, error) {
	l, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	return l.OverdueSummary(now)
}
