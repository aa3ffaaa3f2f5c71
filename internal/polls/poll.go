package polls

import "time"

// Shares maps a party to its percentage, missing keys mean no value.
type Shares map[Party]float64

// Get returns the value of a party and whether it is present.
func (s Shares) Get(p Party) (float64, bool) {
	v, ok := s[p]
	return v, ok
}

// Poll is a single normalized row of a polling table.
type Poll struct {
	// Date is the start of fieldwork, midnight Europe/London.
	Date       time.Time
	Pollster   string
	SampleSize *int
	Area       *string
	Values     Shares
}

// HasValues reports whether at least one party has a value.
func (p Poll) HasValues() bool {
	return len(p.Values) > 0
}

// Aggregate is the weighted vote share of every party plus the lead.
type Aggregate struct {
	Values Shares
	// LeadParty is the display name of the party in first place, nil when
	// fewer than two parties have a value.
	LeadParty *string
	// LeadValue is the margin between first and second place.
	LeadValue *float64
}
