package chrono

import (
	"pollofpolls-backend/lib/timezone"
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time, the timezone of the time will default to Europe/London.
	Now() time.Time
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct{}

// NewStandardTime is the constructor of StandardTime.
func NewStandardTime() StandardTime {
	return StandardTime{}
}

func (StandardTime) Now() time.Time {
	return timezone.Now()
}

// FixedTime is a TimeAPI that always returns the same instant.
type FixedTime struct {
	At time.Time
}

func (f FixedTime) Now() time.Time {
	return f.At.In(timezone.Location)
}
