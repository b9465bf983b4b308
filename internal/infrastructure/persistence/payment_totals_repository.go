package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leaseledger/backend/internal/domain/ledger"
	"github.com/leaseledger/backend/internal/domain/shared"
)

// PaymentTotalsModel is the GORM model for the payment totals projection
type PaymentTotalsModel struct {
	TenantID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TotalPaid   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalUnpaid decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaidCount   int64           `gorm:"not null;default:0"`
	UnpaidCount int64           `gorm:"not null;default:0"`
	RefreshedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for the model
func (PaymentTotalsModel) TableName() string {
	return "payment_totals"
}

// ToEntity converts the model to a domain entity
func (m *PaymentTotalsModel) ToEntity() *ledger.PaymentTotals {
	return &ledger.PaymentTotals{
		TenantID:    m.TenantID,
		TotalPaid:   m.TotalPaid,
		TotalUnpaid: m.TotalUnpaid,
		PaidCount:   m.PaidCount,
		UnpaidCount: m.UnpaidCount,
		RefreshedAt: m.RefreshedAt,
	}
}

// PaymentTotalsRepository implements the ledger.PaymentTotalsRepository interface
type PaymentTotalsRepository struct {
	db *gorm.DB
}

// NewPaymentTotalsRepository creates a new payment totals repository
func NewPaymentTotalsRepository(db *gorm.DB) *PaymentTotalsRepository {
	return &PaymentTotalsRepository{db: db}
}

type totalsAggregate struct {
	TotalPaid   decimal.Decimal
	TotalUnpaid decimal.Decimal
	PaidCount   int64
	UnpaidCount int64
}

// Refresh recomputes the projection row for one organization from the ledger
// and upserts it keyed on tenant_id
func (r *PaymentTotalsRepository) Refresh(ctx context.Context, tenantID uuid.UUID, now time.Time) (*ledger.PaymentTotals, error) {
	var agg totalsAggregate
	if err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Select(`
			COALESCE(SUM(CASE WHEN status = 'PAID' THEN amount ELSE 0 END), 0) AS total_paid,
			COALESCE(SUM(CASE WHEN status = 'UNPAID' THEN amount ELSE 0 END), 0) AS total_unpaid,
			COUNT(CASE WHEN status = 'PAID' THEN 1 END) AS paid_count,
			COUNT(CASE WHEN status = 'UNPAID' THEN 1 END) AS unpaid_count`).
		Where("tenant_id = ?", tenantID).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	model := &PaymentTotalsModel{
		TenantID:    tenantID,
		TotalPaid:   agg.TotalPaid,
		TotalUnpaid: agg.TotalUnpaid,
		PaidCount:   agg.PaidCount,
		UnpaidCount: agg.UnpaidCount,
		RefreshedAt: now.UTC(),
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_paid",
			"total_unpaid",
			"paid_count",
			"unpaid_count",
			"refreshed_at",
		}),
	}).Create(model).Error; err != nil {
		return nil, err
	}

	return model.ToEntity(), nil
}

// Get returns the current projection row for one organization
func (r *PaymentTotalsRepository) Get(ctx context.Context, tenantID uuid.UUID) (*ledger.PaymentTotals, error) {
	var model PaymentTotalsModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Ensure PaymentTotalsRepository implements the interface
var _ ledger.PaymentTotalsRepository = (*PaymentTotalsRepository)(nil)
