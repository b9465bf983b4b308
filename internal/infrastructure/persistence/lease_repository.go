package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/leaseledger/backend/internal/domain/lease"
	"github.com/leaseledger/backend/internal/domain/shared"
)

// LeaseModel is the GORM model for leases
type LeaseModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	PropertyID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	UnitID              uuid.UUID       `gorm:"type:uuid;index;not null"`
	StartDate           time.Time       `gorm:"type:date;not null"`
	EndDate             time.Time       `gorm:"type:date;not null;index"`
	RentAmount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PaymentFrequency    string          `gorm:"type:varchar(20);not null"`
	CustomFrequencyDays *int
	RentDueDay          *int
	LastPaymentDate     *time.Time `gorm:"type:date"`
	CreatedAt           time.Time  `gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (LeaseModel) TableName() string {
	return "leases"
}

// ToEntity converts the model to a domain entity
func (m *LeaseModel) ToEntity() *lease.Lease {
	return &lease.Lease{
		TenantEntity: shared.TenantEntity{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		PropertyID:          m.PropertyID,
		UnitID:              m.UnitID,
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		RentAmount:          m.RentAmount,
		PaymentFrequency:    lease.PaymentFrequency(m.PaymentFrequency),
		CustomFrequencyDays: m.CustomFrequencyDays,
		RentDueDay:          m.RentDueDay,
		LastPaymentDate:     m.LastPaymentDate,
	}
}

// LeaseModelFromEntity creates a model from a domain entity
func LeaseModelFromEntity(e *lease.Lease) *LeaseModel {
	return &LeaseModel{
		ID:                  e.ID,
		TenantID:            e.TenantID,
		PropertyID:          e.PropertyID,
		UnitID:              e.UnitID,
		StartDate:           e.StartDate,
		EndDate:             e.EndDate,
		RentAmount:          e.RentAmount,
		PaymentFrequency:    e.PaymentFrequency.String(),
		CustomFrequencyDays: e.CustomFrequencyDays,
		RentDueDay:          e.RentDueDay,
		LastPaymentDate:     e.LastPaymentDate,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

// billableLeaseRow is the scan target for the billable lease query
type billableLeaseRow struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	PropertyID          uuid.UUID
	UnitID              uuid.UUID
	StartDate           time.Time
	EndDate             time.Time
	RentAmount          decimal.Decimal
	PaymentFrequency    string
	CustomFrequencyDays *int
	RentDueDay          *int
	LastPaymentDate     *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	PropertyName        string
	UnitLabel           string
	PropertyUnitCount   int
}

func (r *billableLeaseRow) toBillable() lease.BillableLease {
	model := LeaseModel{
		ID:                  r.ID,
		TenantID:            r.TenantID,
		PropertyID:          r.PropertyID,
		UnitID:              r.UnitID,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		RentAmount:          r.RentAmount,
		PaymentFrequency:    r.PaymentFrequency,
		CustomFrequencyDays: r.CustomFrequencyDays,
		RentDueDay:          r.RentDueDay,
		LastPaymentDate:     r.LastPaymentDate,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	return lease.BillableLease{
		Lease:             *model.ToEntity(),
		PropertyName:      r.PropertyName,
		UnitLabel:         r.UnitLabel,
		PropertyUnitCount: r.PropertyUnitCount,
	}
}

// LeaseRepository implements the lease.Repository interface
type LeaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// FindByID finds a lease by its ID
func (r *LeaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*lease.Lease, error) {
	var model LeaseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindByIDForTenant finds a lease by ID scoped to one organization
func (r *LeaseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*lease.Lease, error) {
	var model LeaseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// FindActiveByTenant finds all leases whose term contains now for one organization
func (r *LeaseRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]lease.Lease, error) {
	day := dateOf(now)

	var models []LeaseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND start_date <= ? AND end_date >= ?", tenantID, day, day).
		Order("start_date").
		Find(&models).Error; err != nil {
		return nil, err
	}

	leases := make([]lease.Lease, len(models))
	for i := range models {
		leases[i] = *models[i].ToEntity()
	}
	return leases, nil
}

// FindBillable finds, across all organizations, the active leases with no
// outstanding UNPAID transaction, joined with their property context. The
// anti-join is the idempotency gate of the billing run.
func (r *LeaseRepository) FindBillable(ctx context.Context, now time.Time) ([]lease.BillableLease, error) {
	day := dateOf(now)

	var rows []billableLeaseRow
	if err := r.db.WithContext(ctx).
		Table("leases AS l").
		Select(`l.id, l.tenant_id, l.property_id, l.unit_id, l.start_date, l.end_date,
			l.rent_amount, l.payment_frequency, l.custom_frequency_days, l.rent_due_day,
			l.last_payment_date, l.created_at, l.updated_at,
			p.name AS property_name, u.label AS unit_label,
			(SELECT COUNT(*) FROM units u2 WHERE u2.property_id = p.id) AS property_unit_count`).
		Joins("JOIN properties p ON p.id = l.property_id").
		Joins("JOIN units u ON u.id = l.unit_id").
		Where("l.start_date <= ? AND l.end_date >= ?", day, day).
		Where("NOT EXISTS (SELECT 1 FROM transactions t WHERE t.lease_id = l.id AND t.status = ?)", "UNPAID").
		Order("l.tenant_id, l.id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	billable := make([]lease.BillableLease, len(rows))
	for i := range rows {
		billable[i] = rows[i].toBillable()
	}
	return billable, nil
}

// ActiveTenantIDs lists the organizations with at least one lease active at now
func (r *LeaseRepository) ActiveTenantIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	day := dateOf(now)

	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&LeaseModel{}).
		Distinct("tenant_id").
		Where("start_date <= ? AND end_date >= ?", day, day).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// dateOf truncates an instant to midnight UTC for date-column comparisons
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ensure LeaseRepository implements the interface
var _ lease.Repository = (*LeaseRepository)(nil)
