package clock

import (
	"time"

	"github.com/bibbank/loan-origination/internal/domain/port"
)

var _ port.Clock = SystemClock{}

// SystemClock reads wall time in the business time zone, so that calendar
// dates (due dates, days late) follow local midnight.
type SystemClock struct {
	loc *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
