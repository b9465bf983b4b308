package scheduler

import "errors"

// ErrSchedulerNotRunning is returned when an operation requires a running scheduler
var ErrSchedulerNotRunning = errors.New("scheduler is not running")
