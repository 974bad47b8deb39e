package calculation

import (
	"time"

	"github.com/rpgo/wealth-optimizer/pkg/dateutil"
)

// nowFunc returns the current time (override in tests for determinism).
var nowFunc = time.Now

// SetNowFunc overrides the time provider (use only in tests).
func SetNowFunc(f func() time.Time) { nowFunc = f }

// DefaultStartDate is the first day of the current month in UTC. It is only
// consulted when a caller leaves the start date unset.
func DefaultStartDate() time.Time {
	return dateutil.BeginningOfMonth(nowFunc().UTC())
}

func resolveStart(start time.Time) time.Time {
	if start.IsZero() {
		return DefaultStartDate()
	}
	return start
}
