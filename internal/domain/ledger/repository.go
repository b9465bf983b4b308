package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository defines persistence operations for ledger entries
type TransactionRepository interface {
	// CreateBatch inserts all rows in a single bulk write and returns the
	// number actually inserted. Rows colliding with an existing outstanding
	// UNPAID entry for the same lease are ignored rather than duplicated;
	// any other failure aborts the whole batch.
	CreateBatch(ctx context.Context, txns []Transaction) (int64, error)

	// ExistsUnpaidForLease reports whether a lease already has an
	// outstanding UNPAID row
	ExistsUnpaidForLease(ctx context.Context, leaseID uuid.UUID) (bool, error)

	// FindByLease lists ledger entries for a lease, newest first
	FindByLease(ctx context.Context, tenantID, leaseID uuid.UUID) ([]Transaction, error)

	// CountByStatus counts ledger entries in a given status for one organization
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status TransactionStatus) (int64, error)
}

// PaymentTotals is the read-optimized projection of an organization's ledger,
// refreshed on a short cadence for dashboards.
type PaymentTotals struct {
	TenantID    uuid.UUID
	TotalPaid   decimal.Decimal
	TotalUnpaid decimal.Decimal
	PaidCount   int64
	UnpaidCount int64
	RefreshedAt time.Time
}

// PaymentTotalsRepository maintains the payment totals projection
type PaymentTotalsRepository interface {
	// Refresh recomputes the projection row for one organization from the
	// ledger and upserts it
	Refresh(ctx context.Context, tenantID uuid.UUID, now time.Time) (*PaymentTotals, error)

	// Get returns the current projection row for one organization
	Get(ctx context.Context, tenantID uuid.UUID) (*PaymentTotals, error)
}
