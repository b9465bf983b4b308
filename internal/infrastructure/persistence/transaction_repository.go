package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leaseledger/backend/internal/domain/ledger"
	"github.com/leaseledger/backend/internal/domain/shared"
)

const defaultInsertBatch = 500

// TransactionModel is the GORM model for ledger transactions
type TransactionModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Code            string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	LeaseID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Type            string          `gorm:"type:varchar(20);not null"`
	RevenueType     string          `gorm:"type:varchar(50);not null"`
	Status          string          `gorm:"type:varchar(10);index;not null"`
	TransactionDate time.Time       `gorm:"not null"`
	Description     string          `gorm:"type:text"`
	CreatedAt       time.Time       `gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for the model
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToEntity converts the model to a domain entity
func (m *TransactionModel) ToEntity() *ledger.Transaction {
	return &ledger.Transaction{
		TenantEntity: shared.TenantEntity{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			TenantID: m.TenantID,
		},
		Code:            m.Code,
		LeaseID:         m.LeaseID,
		Amount:          m.Amount,
		Type:            ledger.TransactionType(m.Type),
		RevenueType:     ledger.RevenueType(m.RevenueType),
		Status:          ledger.TransactionStatus(m.Status),
		TransactionDate: m.TransactionDate,
		Description:     m.Description,
	}
}

// TransactionModelFromEntity creates a model from a domain entity
func TransactionModelFromEntity(e *ledger.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:              e.ID,
		TenantID:        e.TenantID,
		Code:            e.Code,
		LeaseID:         e.LeaseID,
		Amount:          e.Amount,
		Type:            string(e.Type),
		RevenueType:     string(e.RevenueType),
		Status:          e.Status.String(),
		TransactionDate: e.TransactionDate,
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// TransactionRepository implements the ledger.TransactionRepository interface
type TransactionRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewTransactionRepository creates a new transaction repository. batchSize
// caps the rows per INSERT statement within the bulk write.
func NewTransactionRepository(db *gorm.DB, batchSize int) *TransactionRepository {
	if batchSize <= 0 {
		batchSize = defaultInsertBatch
	}
	return &TransactionRepository{db: db, batchSize: batchSize}
}

// CreateBatch inserts all rows in one database transaction. The conflict
// target is the partial unique index on (lease_id) WHERE status = 'UNPAID':
// a concurrent run that already wrote an outstanding row for a lease makes
// this insert a no-op for that lease instead of a duplicate or a failure.
// The predicate is spelled literally because the target must match the
// index predicate for conflict inference on both PostgreSQL and SQLite.
func (r *TransactionRepository) CreateBatch(ctx context.Context, txns []ledger.Transaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	models := make([]*TransactionModel, len(txns))
	for i := range txns {
		models[i] = TransactionModelFromEntity(&txns[i])
	}

	var inserted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lease_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "status = 'UNPAID'"},
			}},
			DoNothing: true,
		}).CreateInBatches(models, r.batchSize)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ExistsUnpaidForLease reports whether a lease has an outstanding UNPAID row
func (r *TransactionRepository) ExistsUnpaidForLease(ctx context.Context, leaseID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("lease_id = ? AND status = ?", leaseID, ledger.StatusUnpaid.String()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByLease lists ledger entries for a lease, newest first
func (r *TransactionRepository) FindByLease(ctx context.Context, tenantID, leaseID uuid.UUID) ([]ledger.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND lease_id = ?", tenantID, leaseID).
		Order("transaction_date DESC, code DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	txns := make([]ledger.Transaction, len(models))
	for i := range models {
		txns[i] = *models[i].ToEntity()
	}
	return txns, nil
}

// CountByStatus counts ledger entries in a given status for one organization
func (r *TransactionRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status ledger.TransactionStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, status.String()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure TransactionRepository implements the interface
var _ ledger.TransactionRepository = (*TransactionRepository)(nil)
