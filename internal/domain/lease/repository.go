package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BillableLease is a lease joined with the property context needed to write
// a ledger row for it.
type BillableLease struct {
	Lease
	PropertyName      string
	UnitLabel         string
	PropertyUnitCount int
}

// Description returns the human-readable text identifying the billed
// property, including the unit only when the property has more than one.
func (b *BillableLease) Description() string {
	if b.PropertyUnitCount > 1 && b.UnitLabel != "" {
		return fmt.Sprintf("Unpaid rent - %s (Unit %s)", b.PropertyName, b.UnitLabel)
	}
	return fmt.Sprintf("Unpaid rent - %s", b.PropertyName)
}

// Repository defines persistence operations for leases.
// The billing engine only ever reads leases.
type Repository interface {
	// FindByID finds a lease by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lease, error)

	// FindByIDForTenant finds a lease by ID scoped to one organization
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Lease, error)

	// FindActiveByTenant finds all leases whose term contains now for one organization
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Lease, error)

	// FindBillable finds, across all organizations, the active leases that
	// have no outstanding UNPAID transaction, joined with property context.
	// This is the idempotency gate of the billing run: a lease with an
	// outstanding row never comes back from this query.
	FindBillable(ctx context.Context, now time.Time) ([]BillableLease, error)

	// ActiveTenantIDs lists the organizations that have at least one lease
	// active at now
	ActiveTenantIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}
