package lease

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leaseledger/backend/internal/domain/shared"
)

// OverdueSummary reports how much rent is currently overdue on a lease.
// It is informational only; nothing is written on its behalf.
type OverdueSummary struct {
	TotalOverdue  decimal.Decimal `json:"total_overdue"`
	MissedPeriods int             `json:"missed_periods"`
	NextDueDate   *time.Time      `json:"next_due_date,omitempty"`
}

// OverdueSummary walks the lease's due dates from its current anchor up to
// now, summing one rent amount per missed period.
//
// The walk is a fold over the due-date sequence: each counted due date
// becomes the anchor for the next one, so the sequence strictly advances and
// terminates by construction. Two defenses back that up: an iteration bound
// proportional to (now - startDate) / shortest interval, and a no-progress
// check, either of which turns a logic error into an explicit failure
// instead of a spin.
func (l *Lease) OverdueSummary(now time.Time) (*OverdueSummary, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	nowDate := toUTCDate(now)
	endDate := toUTCDate(l.EndDate)

	// With no payment on record rent is owed from the very first day of the
	// term; afterwards the next due follows one interval behind the payment.
	var due time.Time
	if l.LastPaymentDate == nil {
		due = toUTCDate(l.StartDate)
	} else {
		next, err := l.advance(toUTCDate(*l.LastPaymentDate))
		if err != nil {
			return nil, err
		}
		due = next
	}

	maxIterations := int(nowDate.Sub(toUTCDate(l.StartDate)).Hours()/24)/l.minIntervalDays() + 2

	summary := &OverdueSummary{TotalOverdue: decimal.Zero}
	for i := 0; !due.After(nowDate) && !due.After(endDate); i++ {
		if i >= maxIterations {
			return nil, shared.ErrOverdueScanOutOfBounds
		}
		summary.TotalOverdue = summary.TotalOverdue.Add(l.RentAmount)
		summary.MissedPeriods++

		next, err := l.advance(due)
		if err != nil {
			return nil, err
		}
		if !next.After(due) {
			return nil, shared.ErrOverdueScanNoProgress
		}
		due = next
	}

	if !due.After(endDate) && !nowDate.After(endDate) {
		summary.NextDueDate = &due
	}
	return summary, nil
}
