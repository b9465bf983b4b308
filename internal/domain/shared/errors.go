package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// Billing data errors. A lease carrying one of these is excluded from
	// the current run and reported, never silently dropped.
	ErrUnsupportedFrequency   = NewDomainError("UNSUPPORTED_FREQUENCY", "Payment frequency is not supported")
	ErrMissingCustomInterval  = NewDomainError("MISSING_CUSTOM_INTERVAL", "Custom payment frequency requires a positive day count")
	ErrInvalidDateRange       = NewDomainError("INVALID_DATE_RANGE", "Lease start date must not be after end date")
	ErrInvalidRentAmount      = NewDomainError("INVALID_RENT_AMOUNT", "Rent amount must be positive")
	ErrInvalidRentDueDay      = NewDomainError("INVALID_RENT_DUE_DAY", "Rent due day must be between 1 and 31 on a monthly cadence")
	ErrOverdueScanNoProgress  = NewDomainError("OVERDUE_SCAN_NO_PROGRESS", "Overdue scan failed to advance its anchor")
	ErrOverdueScanOutOfBounds = NewDomainError("OVERDUE_SCAN_OUT_OF_BOUNDS", "Overdue scan exceeded its iteration bound")
)
