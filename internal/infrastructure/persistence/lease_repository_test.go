package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leaseledger/backend/internal/domain/lease"
	"github.com/leaseledger/backend/internal/domain/ledger"
	"github.com/leaseledger/backend/internal/domain/shared"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// In-memory SQLite gives every connection its own database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&PropertyModel{},
		&UnitModel{},
		&LeaseModel{},
		&TransactionModel{},
		&PaymentTotalsModel{},
	)
	require.NoError(t, err)

	// The partial unique index the bulk insert's conflict target resolves
	// against. SQLite supports the same predicate form as PostgreSQL.
	err = db.Exec(`CREATE UNIQUE INDEX idx_transactions_lease_unpaid
		ON transactions (lease_id) WHERE status = 'UNPAID'`).Error
	require.NoError(t, err)

	return db
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedProperty(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name string, unitLabels ...string) (uuid.UUID, []uuid.UUID) {
	propertyID := uuid.New()
	require.NoError(t, db.Create(&PropertyModel{
		ID:       propertyID,
		TenantID: tenantID,
		Name:     name,
	}).Error)

	unitIDs := make([]uuid.UUID, len(unitLabels))
	for i, label := range unitLabels {
		unitIDs[i] = uuid.New()
		require.NoError(t, db.Create(&UnitModel{
			ID:         unitIDs[i],
			TenantID:   tenantID,
			PropertyID: propertyID,
			Label:      label,
		}).Error)
	}
	return propertyID, unitIDs
}

func seedLease(t *testing.T, db *gorm.DB, tenantID, propertyID, unitID uuid.UUID, start, end time.Time) *lease.Lease {
	l, err := lease.NewLease(
		tenantID, propertyID, unitID,
		start, end,
		decimal.NewFromInt(1200),
		lease.FrequencyMonthly,
	)
	require.NoError(t, err)
	require.NoError(t, db.Create(LeaseModelFromEntity(l)).Error)
	return l
}

func TestLeaseRepository_FindByID(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewLeaseRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	propertyID, unitIDs := seedProperty(t, db, tenantID, "Riverside Flats", "1A")
	seeded := seedLease(t, db, tenantID, propertyID, unitIDs[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	t.Run("finds existing lease", func(t *testing.T) {
		found, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, found.ID)
		assert.Equal(t, tenantID, found.TenantID)
		assert.Equal(t, lease.FrequencyMonthly, found.PaymentFrequency)
		assert.True(t, found.RentAmount.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("returns not found for unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLeaseRepository_FindByIDForTenant(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewLeaseRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	propertyID, unitIDs := seedProperty(t, db, tenantID, "Oak House", "1")
	seeded := seedLease(t, db, tenantID, propertyID, unitIDs[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	found, err := repo.FindByIDForTenant(ctx, tenantID, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	// Another organization must not see the row.
	_, err = repo.FindByIDForTenant(ctx, uuid.New(), seeded.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLeaseRepository_FindActiveByTenant(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewLeaseRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	propertyID, unitIDs := seedProperty(t, db, tenantID, "Cedar Court", "1", "2")
	active := seedLease(t, db, tenantID, propertyID, unitIDs[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))
	seedLease(t, db, tenantID, propertyID, unitIDs[1],
		testDate(2022, time.January, 1), testDate(2023, time.December, 31))

	leases, err := repo.FindActiveByTenant(ctx, tenantID, testDate(2024, time.June, 15))
	require.NoError(t, err)
	require.Len(t, leases, 1)
	assert.Equal(t, active.ID, leases[0].ID)
}

func TestLeaseRepository_FindBillable(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewLeaseRepository(db)
	ctx := context.Background()
	now := testDate(2024, time.June, 15)

	tenantID := uuid.New()
	propertyID, unitIDs := seedProperty(t, db, tenantID, "Riverside Flats", "1A", "2B")
	billable := seedLease(t, db, tenantID, propertyID, unitIDs[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))
	withUnpaid := seedLease(t, db, tenantID, propertyID, unitIDs[1],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	singleProperty, singleUnits := seedProperty(t, db, tenantID, "Oak House", "Main")
	standalone := seedLease(t, db, tenantID, singleProperty, singleUnits[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	// Expired lease must never qualify.
	expiredProperty, expiredUnits := seedProperty(t, db, tenantID, "Old Mill", "1")
	seedLease(t, db, tenantID, expiredProperty, expiredUnits[0],
		testDate(2022, time.January, 1), testDate(2023, time.December, 31))

	// An outstanding UNPAID row gates its lease out of the result.
	unpaidTxn := ledger.NewUnpaidRent(tenantID, withUnpaid.ID, decimal.NewFromInt(1200), "Unpaid rent - Riverside Flats (Unit 2B)", now)
	require.NoError(t, db.Create(TransactionModelFromEntity(unpaidTxn)).Error)

	// A PAID row does not gate.
	paidTxn := ledger.NewUnpaidRent(tenantID, billable.ID, decimal.NewFromInt(1200), "Unpaid rent - Riverside Flats (Unit 1A)", testDate(2024, time.May, 1))
	require.NoError(t, paidTxn.MarkPaid(testDate(2024, time.May, 3)))
	require.NoError(t, db.Create(TransactionModelFromEntity(paidTxn)).Error)

	rows, err := repo.FindBillable(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[uuid.UUID]lease.BillableLease{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	multi, ok := byID[billable.ID]
	require.True(t, ok)
	assert.Equal(t, "Riverside Flats", multi.PropertyName)
	assert.Equal(t, "1A", multi.UnitLabel)
	assert.Equal(t, 2, multi.PropertyUnitCount)
	assert.Equal(t, "Unpaid rent - Riverside Flats (Unit 1A)", multi.Description())

	single, ok := byID[standalone.ID]
	require.True(t, ok)
	assert.Equal(t, 1, single.PropertyUnitCount)
	assert.Equal(t, "Unpaid rent - Oak House", single.Description())
}

func TestLeaseRepository_ActiveTenantIDs(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewLeaseRepository(db)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()
	tenantExpired := uuid.New()

	propertyA, unitsA := seedProperty(t, db, tenantA, "A House", "1", "2")
	seedLease(t, db, tenantA, propertyA, unitsA[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))
	seedLease(t, db, tenantA, propertyA, unitsA[1],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	propertyB, unitsB := seedProperty(t, db, tenantB, "B House", "1")
	seedLease(t, db, tenantB, propertyB, unitsB[0],
		testDate(2024, time.January, 1), testDate(2025, time.December, 31))

	propertyC, unitsC := seedProperty(t, db, tenantExpired, "C House", "1")
	seedLease(t, db, tenantExpired, propertyC, unitsC[0],
		testDate(2022, time.January, 1), testDate(2023, time.December, 31))

	ids, err := repo.ActiveTenantIDs(ctx, testDate(2024, time.June, 15))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{tenantA, tenantB}, ids)
}
