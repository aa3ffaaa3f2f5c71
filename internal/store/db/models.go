package db

import "database/sql"

type PollRun struct {
	ID        int64
	RunDate   string
	SourceUrl string
	Success   bool
	PollCount int64
	UpdatedAt int64
}

// PartyValues holds one nullable column per party in the order labour,
// conservative, reform, libdem, green, snp, pc, others.
type PartyValues [8]sql.NullFloat64

type Poll struct {
	ID         int64
	RunID      int64
	PollDate   string
	Pollster   string
	SampleSize sql.NullInt64
	Area       sql.NullString
	Values     PartyValues
}

type AggregateRun struct {
	AggregateDate string
	Values        PartyValues
	LeadParty     sql.NullString
	LeadValue     sql.NullFloat64
	PollCount     int64
	UpdatedAt     int64
}
