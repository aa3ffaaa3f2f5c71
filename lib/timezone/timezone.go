package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// polls are dated in UK local time, servers are not, so anything that
// manipulates dates based on <time.Time>.Year()/Month()/Day() should go
// through this.
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay returns midnight (UK time) of the day t falls on.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// Date constructs midnight (UK time) on the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}
