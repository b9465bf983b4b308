package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseledger/backend/internal/domain/shared"
)

// TransactionStatus represents the settlement state of a ledger row
type TransactionStatus string

const (
	StatusUnpaid TransactionStatus = "UNPAID"
	StatusPaid   TransactionStatus = "PAID"
	StatusVoid   TransactionStatus = "VOID"
)

// IsValid checks if the status is a known TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusVoid:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsOutstanding returns true while the row still drives collections
func (s TransactionStatus) IsOutstanding() bool {
	return s == StatusUnpaid
}

// TransactionType classifies the ledger entry
type TransactionType string

// TypeRevenue is the only type the billing engine writes
const TypeRevenue TransactionType = "Revenue"

// RevenueType classifies revenue entries
type RevenueType string

// RevenuePropertyRental is the revenue classification for rent billing rows
const RevenuePropertyRental RevenueType = "Property Rental"

// Transaction is a billing ledger entry. Rent billing creates UNPAID rows;
// payment recording (elsewhere) transitions them to PAID. Rows are never
// deleted by this subsystem.
type Transaction struct {
	shared.TenantEntity
	Code            string
	LeaseID         uuid.UUID
	Amount          decimal.Decimal
	Type            TransactionType
	RevenueType     RevenueType
	Status          TransactionStatus
	TransactionDate time.Time
	Description     string
}

// NewUnpaidRent builds the ledger row for one missed rent cycle. Every
// timestamp is stamped with the run's single now snapshot so one batch never
// mixes clocks.
func NewUnpaidRent(tenantID, leaseID uuid.UUID, amount decimal.Decimal, description string, now time.Time) *Transaction {
	return &Transaction{
		TenantEntity: shared.TenantEntity{
			BaseEntity: shared.BaseEntity{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			TenantID: tenantID,
		},
		Code:            NewTransactionCode(now),
		LeaseID:         leaseID,
		Amount:          amount,
		Type:            TypeRevenue,
		RevenueType:     RevenuePropertyRental,
		Status:          StatusUnpaid,
		TransactionDate: now,
		Description:     description,
	}
}

// MarkPaid transitions an outstanding row to PAID
func (t *Transaction) MarkPaid(now time.Time) error {
	if t.Status != StatusUnpaid {
		return shared.ErrInvalidState
	}
	t.Status = StatusPaid
	t.UpdatedAt = now
	return nil
}

// NewTransactionCode generates a human-traceable reconciliation code. It
// combines a second-resolution time component with 48 bits of randomness,
// which keeps the collision probability negligible at tens of thousands of
// rows per run.
func NewTransactionCode(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("TXN-%s-%x", now.UTC().Format("20060102150405"), u[:6])
}
