package lease

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leaseledger/backend/internal/domain/shared"
)

// PaymentFrequency represents the recurrence rule governing how often rent is due
type PaymentFrequency string

const (
	FrequencyWeekly    PaymentFrequency = "WEEKLY"
	FrequencyBiWeekly  PaymentFrequency = "BI_WEEKLY"
	FrequencyMonthly   PaymentFrequency = "MONTHLY"
	FrequencyBiMonthly PaymentFrequency = "BI_MONTHLY"
	FrequencyQuarterly PaymentFrequency = "QUARTERLY"
	FrequencyAnnually  PaymentFrequency = "ANNUALLY"
	FrequencyCustom    PaymentFrequency = "CUSTOM"
)

// IsValid checks if the frequency is a known PaymentFrequency
func (f PaymentFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly, FrequencyBiMonthly,
		FrequencyQuarterly, FrequencyAnnually, FrequencyCustom:
		return true
	}
	return false
}

// String returns the string representation of PaymentFrequency
func (f PaymentFrequency) String() string {
	return string(f)
}

// AlignsToDayOfMonth reports whether a rent due day applies to this frequency
func (f PaymentFrequency) AlignsToDayOfMonth() bool {
	return f == FrequencyMonthly || f == FrequencyBiMonthly
}

// Lease is a rental agreement for a unit. It is owned by the property
// subsystem and is read-only here: the billing engine never mutates a lease,
// LastPaymentDate is maintained by payment recording.
type Lease struct {
	shared.TenantEntity
	PropertyID          uuid.UUID
	UnitID              uuid.UUID
	StartDate           time.Time
	EndDate             time.Time
	RentAmount          decimal.Decimal
	PaymentFrequency    PaymentFrequency
	CustomFrequencyDays *int
	RentDueDay          *int
	LastPaymentDate     *time.Time
}

// NewLease creates a validated lease
func NewLease(
	tenantID, propertyID, unitID uuid.UUID,
	startDate, endDate time.Time,
	rentAmount decimal.Decimal,
	frequency PaymentFrequency,
) (*Lease, error) {
	l := &Lease{
		TenantEntity:     shared.NewTenantEntity(tenantID),
		PropertyID:       propertyID,
		UnitID:           unitID,
		StartDate:        toUTCDate(startDate),
		EndDate:          toUTCDate(endDate),
		RentAmount:       rentAmount,
		PaymentFrequency: frequency,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate enforces the lease billing invariants
func (l *Lease) Validate() error {
	if l.StartDate.After(l.EndDate) {
		return shared.ErrInvalidDateRange
	}
	if !l.RentAmount.IsPositive() {
		return shared.ErrInvalidRentAmount
	}
	if !l.PaymentFrequency.IsValid() {
		return shared.ErrUnsupportedFrequency
	}
	if l.PaymentFrequency == FrequencyCustom {
		if l.CustomFrequencyDays == nil || *l.CustomFrequencyDays <= 0 {
			return shared.ErrMissingCustomInterval
		}
	} else if l.CustomFrequencyDays != nil {
		return shared.ErrInvalidInput
	}
	if l.RentDueDay != nil {
		if *l.RentDueDay < 1 || *l.RentDueDay > 31 || !l.PaymentFrequency.AlignsToDayOfMonth() {
			return shared.ErrInvalidRentDueDay
		}
	}
	return nil
}

// IsActiveAt reports whether the given instant falls within the lease term
func (l *Lease) IsActiveAt(now time.Time) bool {
	d := toUTCDate(now)
	return !d.Before(toUTCDate(l.StartDate)) && !d.After(toUTCDate(l.EndDate))
}

// NextDueDate computes the next date on which rent is owed.
//
// Both return values nil means the lease has ended or the next cycle falls
// beyond its term; a non-nil error is a data error (unsupported frequency or
// missing custom interval) that callers must surface, not swallow. The
// function is pure: for a fixed lease and now it always returns the same
// result. All arithmetic uses the UTC calendar.
func (l *Lease) NextDueDate(now time.Time) (*time.Time, error) {
	nowDate := toUTCDate(now)
	endDate := toUTCDate(l.EndDate)
	if nowDate.After(endDate) {
		return nil, nil
	}

	anchor := toUTCDate(l.StartDate)
	if l.LastPaymentDate != nil {
		anchor = toUTCDate(*l.LastPaymentDate)
	}

	candidate, err := l.advance(anchor)
	if err != nil {
		return nil, err
	}
	if candidate.After(endDate) {
		return nil, nil
	}
	return &candidate, nil
}

// advance returns the due date one billing interval after anchor.
// The frequency switch is deliberately exhaustive: a new frequency must be
// handled here or the zero value falls through to the data error.
func (l *Lease) advance(anchor time.Time) (time.Time, error) {
	var candidate time.Time
	switch l.PaymentFrequency {
	case FrequencyWeekly:
		candidate = anchor.AddDate(0, 0, 7)
	case FrequencyBiWeekly:
		candidate = anchor.AddDate(0, 0, 14)
	case FrequencyMonthly:
		candidate = addMonthsClamped(anchor, 1)
	case FrequencyBiMonthly:
		candidate = addMonthsClamped(anchor, 2)
	case FrequencyQuarterly:
		candidate = addMonthsClamped(anchor, 3)
	case FrequencyAnnually:
		candidate = addMonthsClamped(anchor, 12)
	case FrequencyCustom:
		if l.CustomFrequencyDays == nil || *l.CustomFrequencyDays <= 0 {
			return time.Time{}, shared.ErrMissingCustomInterval
		}
		candidate = anchor.AddDate(0, 0, *l.CustomFrequencyDays)
	default:
		return time.Time{}, shared.ErrUnsupportedFrequency
	}

	if l.RentDueDay != nil && l.PaymentFrequency.AlignsToDayOfMonth() {
		candidate = alignToDayOfMonth(candidate, *l.RentDueDay)
	}
	return candidate, nil
}

// minIntervalDays returns a lower bound on the billing interval in days,
// used to bound the overdue scan.
func (l *Lease) minIntervalDays() int {
	switch l.PaymentFrequency {
	case FrequencyWeekly:
		return 7
	case FrequencyBiWeekly:
		return 14
	case FrequencyMonthly:
		return 28
	case FrequencyBiMonthly:
		return 56
	case FrequencyQuarterly:
		return 84
	case FrequencyAnnually:
		return 365
	case FrequencyCustom:
		if l.CustomFrequencyDays != nil && *l.CustomFrequencyDays > 0 {
			return *l.CustomFrequencyDays
		}
	}
	return 1
}

// toUTCDate truncates an instant to midnight UTC. Organizations span time
// zones; the UTC calendar is canonical for all due-date arithmetic.
func toUTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped adds calendar months, clamping the day to the last valid
// day of the target month. Jan 31 + 1 month is Feb 28 (29 in leap years),
// never an overflow into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := daysInMonth(firstOfTarget)
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}

// alignToDayOfMonth moves a date to the configured due day, clamped to the
// month's length (due day 31 in February lands on the 28th or 29th).
func alignToDayOfMonth(t time.Time, day int) time.Time {
	last := daysInMonth(t)
	if day > last {
		day = last
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
