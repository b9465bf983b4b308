package lease

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaseledger/backend/internal/domain/shared"
)

// Test helpers

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(i int) *int { return &i }

func timePtr(t time.Time) *time.Time { return &t }

func createTestLease(t *testing.T, frequency PaymentFrequency) *Lease {
	l, err := NewLease(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		date(2024, time.January, 1),
		date(2025, time.December, 31),
		decimal.NewFromInt(1500),
		frequency,
	)
	require.NoError(t, err)
	return l
}

// ============================================
// PaymentFrequency Tests
// ============================================

func TestPaymentFrequency_IsValid(t *testing.T) {
	tests := []struct {
		frequency PaymentFrequency
		isValid   bool
	}{
		{FrequencyWeekly, true},
		{FrequencyBiWeekly, true},
		{FrequencyMonthly, true},
		{FrequencyBiMonthly, true},
		{FrequencyQuarterly, true},
		{FrequencyAnnually, true},
		{FrequencyCustom, true},
		{PaymentFrequency("DAILY"), false},
		{PaymentFrequency(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.frequency.IsValid())
		})
	}
}

func TestPaymentFrequency_AlignsToDayOfMonth(t *testing.T) {
	assert.True(t, FrequencyMonthly.AlignsToDayOfMonth())
	assert.True(t, FrequencyBiMonthly.AlignsToDayOfMonth())
	assert.False(t, FrequencyWeekly.AlignsToDayOfMonth())
	assert.False(t, FrequencyQuarterly.AlignsToDayOfMonth())
	assert.False(t, FrequencyCustom.AlignsToDayOfMonth())
}

// ============================================
// Lease Validation Tests
// ============================================

func TestLease_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Lease)
		wantErr error
	}{
		{
			name:    "valid monthly lease",
			mutate:  func(l *Lease) {},
			wantErr: nil,
		},
		{
			name:    "start after end",
			mutate:  func(l *Lease) { l.StartDate = date(2026, time.January, 1) },
			wantErr: shared.ErrInvalidDateRange,
		},
		{
			name:    "zero rent",
			mutate:  func(l *Lease) { l.RentAmount = decimal.Zero },
			wantErr: shared.ErrInvalidRentAmount,
		},
		{
			name:    "negative rent",
			mutate:  func(l *Lease) { l.RentAmount = decimal.NewFromInt(-100) },
			wantErr: shared.ErrInvalidRentAmount,
		},
		{
			name:    "unknown frequency",
			mutate:  func(l *Lease) { l.PaymentFrequency = "FORTNIGHTLY" },
			wantErr: shared.ErrUnsupportedFrequency,
		},
		{
			name: "custom without day count",
			mutate: func(l *Lease) {
				l.PaymentFrequency = FrequencyCustom
				l.CustomFrequencyDays = nil
			},
			wantErr: shared.ErrMissingCustomInterval,
		},
		{
			name: "custom with non-positive day count",
			mutate: func(l *Lease) {
				l.PaymentFrequency = FrequencyCustom
				l.CustomFrequencyDays = intPtr(0)
			},
			wantErr: shared.ErrMissingCustomInterval,
		},
		{
			name:    "custom day count on monthly lease",
			mutate:  func(l *Lease) { l.CustomFrequencyDays = intPtr(10) },
			wantErr: shared.ErrInvalidInput,
		},
		{
			name:    "rent due day out of range",
			mutate:  func(l *Lease) { l.RentDueDay = intPtr(32) },
			wantErr: shared.ErrInvalidRentDueDay,
		},
		{
			name: "rent due day on weekly lease",
			mutate: func(l *Lease) {
				l.PaymentFrequency = FrequencyWeekly
				l.RentDueDay = intPtr(15)
			},
			wantErr: shared.ErrInvalidRentDueDay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createTestLease(t, FrequencyMonthly)
			tt.mutate(l)
			err := l.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLease_IsActiveAt(t *testing.T) {
	l := createTestLease(t, FrequencyMonthly)

	assert.True(t, l.IsActiveAt(date(2024, time.January, 1)))
	assert.True(t, l.IsActiveAt(date(2025, time.December, 31)))
	assert.True(t, l.IsActiveAt(date(2024, time.June, 15)))
	assert.False(t, l.IsActiveAt(date(2023, time.December, 31)))
	assert.False(t, l.IsActiveAt(date(2026, time.January, 1)))
}

// ============================================
// NextDueDate Tests
// ============================================

func TestLease_NextDueDate_Intervals(t *testing.T) {
	anchor := date(2024, time.March, 10)
	now := date(2024, time.March, 15)

	tests := []struct {
		name      string
		frequency PaymentFrequency
		custom    *int
		want      time.Time
	}{
		{"weekly", FrequencyWeekly, nil, date(2024, time.March, 17)},
		{"bi-weekly", FrequencyBiWeekly, nil, date(2024, time.March, 24)},
		{"monthly", FrequencyMonthly, nil, date(2024, time.April, 10)},
		{"bi-monthly", FrequencyBiMonthly, nil, date(2024, time.May, 10)},
		{"quarterly", FrequencyQuarterly, nil, date(2024, time.June, 10)},
		{"annually", FrequencyAnnually, nil, date(2025, time.March, 10)},
		{"custom 45 days", FrequencyCustom, intPtr(45), date(2024, time.April, 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createTestLease(t, FrequencyMonthly)
			l.PaymentFrequency = tt.frequency
			l.CustomFrequencyDays = tt.custom
			l.LastPaymentDate = timePtr(anchor)

			due, err := l.NextDueDate(now)
			require.NoError(t, err)
			require.NotNil(t, due)
			assert.Equal(t, tt.want, *due)
		})
	}
}

func TestLease_NextDueDate_Deterministic(t *testing.T) {
	l := createTestLease(t, FrequencyMonthly)
	l.LastPaymentDate = timePtr(date(2024, time.February, 15))
	now := date(2024, time.April, 1)

	first, err := l.NextDueDate(now)
	require.NoError(t, err)
	require.NotNil(t, first)

	for i := 0; i < 10; i++ {
		again, err := l.NextDueDate(now)
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, *first, *again)
	}
}

func TestLease_NextDueDate_AnchorsToStartDateWithoutPayment(t *testing.T) {
	l := createTestLease(t, FrequencyMonthly)
	l.LastPaymentDate = nil

	due, err := l.NextDueDate(date(2024, time.January, 15))
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, date(2024, time.February, 1), *due)
}

func TestLease_NextDueDate_LeaseEnded(t *testing.T) {
	l := createTestLease(t, FrequencyMonthly)

	due, err := l.NextDueDate(date(2026, time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, due)
}

func TestLease_NextDueDate_CandidateBeyondTerm(t *testing.T) {
	l := createTestLease(t, FrequencyMonthly)
	l.LastPaymentDate = timePtr(date(2025, time.December, 15))

	// Next cycle would land in January 2026, past the lease end.
	due, err := l.NextDueDate(date(2025, time.December, 20))
	require.NoError(t, err)
	assert.Nil(t, due)
}

func TestLease_NextDueDate_MonthEndClamping(t *testing.T) {
	tests := []struct {
		name   string
		anchor time.Time
		due    int
		want   time.Time
	}{
		{"jan 31 to feb 29 leap year", date(2024, time.January, 31), 31, date(2024, time.February, 29)},
		{"jan 31 to feb 28", date(2025, time.January, 31), 31, date(2025, time.February, 28)},
		{"due day 31 in april", date(2024, time.March, 31), 31, date(2024, time.April, 30)},
		{"due day 15 unaffected", date(2024, time.January, 31), 15, date(2024, time.February, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createTestLease(t, FrequencyMonthly)
			l.RentDueDay = intPtr(tt.due)
			l.LastPaymentDate = timePtr(tt.anchor)

			due, err := l.NextDueDate(tt.anchor)
			require.NoError(t, err)
			require.NotNil(t, due)
			assert.Equal(t, tt.want, *due)
		})
	}
}

func TestLease_NextDueDate_CalendarMonthAddition(t *testing.T) {
	// Without a configured due day, adding a month to Jan 31 must land on
	// the last day of February, not overflow into March.
	l := createTestLease(t, FrequencyMonthly)
	l.LastPaymentDate = timePtr(date(2024, time.January, 31))

	due, err := l.NextDueDate(date(2024, time.February, 1))
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, date(2024, time.February, 29), *due)
}

func TestLease_NextDueDate_DataErrors(t *testing.T) {
	t.Run("unsupported frequency", func(t *testing.T) {
		l := createTestLease(t, FrequencyMonthly)
		l.PaymentFrequency = "SEMESTERLY"

		due, err := l.NextDueDate(date(2024, time.June, 1))
		assert.ErrorIs(t, err, shared.ErrUnsupportedFrequency)
		assert.Nil(t, due)
	})

	t.Run("custom frequency without day count", func(t *testing.T) {
		l := createTestLease(t, FrequencyMonthly)
		l.PaymentFrequency = FrequencyCustom
		l.CustomFrequencyDays = nil

		due, err := l.NextDueDate(date(2024, time.June, 1))
		assert.ErrorIs(t, err, shared.ErrMissingCustomInterval)
		assert.Nil(t, due)
	})
}

func TestLease_NextDueDate_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+13", 13*60*60)
	l := createTestLease(t, FrequencyWeekly)
	l.LastPaymentDate = timePtr(time.Date(2024, time.March, 10, 23, 30, 0, 0, loc))

	due, err := l.NextDueDate(time.Date(2024, time.March, 15, 1, 0, 0, 0, loc))
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, time.UTC, due.Location())
	// 2024-03-10T23:30+13 is 2024-03-10T10:30 UTC, so the next week lands
	// on the 17th regardless of the zone the caller handed in.
	assert.Equal(t, date(2024, time.March, 17), *due)
}
