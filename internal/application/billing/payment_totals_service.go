package billing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leaseledger/backend/internal/domain/lease"
	"github.com/leaseledger/backend/internal/domain/ledger"
)

// PaymentTotalsService refreshes the read-optimized payment totals
// projection. It runs on a short cadence, independently of the billing run,
// and shares no state with it.
type PaymentTotalsService struct {
	leases lease.Repository
	totals ledger.PaymentTotalsRepository
	logger *zap.Logger
}

// NewPaymentTotalsService creates a new PaymentTotalsService
func NewPaymentTotalsService(
	leases lease.Repository,
	totals ledger.PaymentTotalsRepository,
	logger *zap.Logger,
) *PaymentTotalsService {
	return &PaymentTotalsService{
		leases: leases,
		totals: totals,
		logger: logger,
	}
}

// RefreshResult contains statistics about one projection refresh pass
type RefreshResult struct {
	RefreshedAt  time.Time `json:"refreshed_at"`
	TotalTenants int       `json:"total_tenants"`
	Successful   int       `json:"successful"`
	Failed       int       `json:"failed"`
}

// RefreshAll recomputes the projection for every organization with an
// active lease. A failing organization is logged and counted but does not
// stop the pass.
func (s *PaymentTotalsService) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	now := time.Now().UTC()
	result := &RefreshResult{RefreshedAt: now}

	tenantIDs, err := s.leases.ActiveTenantIDs(ctx, now)
	if err != nil {
		s.logger.Error("Failed to list organizations for totals refresh", zap.Error(err))
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	result.TotalTenants = len(tenantIDs)

	for _, tenantID := range tenantIDs {
		if _, err := s.totals.Refresh(ctx, tenantID, now); err != nil {
			s.logger.Error("Failed to refresh payment totals",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Successful++
	}

	s.logger.Info("Payment totals refresh completed",
		zap.Int("total_tenants", result.TotalTenants),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
