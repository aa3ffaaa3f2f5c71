package api

import (
	"pollofpolls-backend/internal/local"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/store"
	"time"
)

type partyValues struct {
	Labour       *float64 `json:"labour"`
	Conservative *float64 `json:"conservative"`
	Reform       *float64 `json:"reform"`
	LibDem       *float64 `json:"libdem"`
	Green        *float64 `json:"green"`
	SNP          *float64 `json:"snp"`
	PlaidCymru   *float64 `json:"pc"`
	Others       *float64 `json:"others"`
}

func toPartyValues(shares polls.Shares) partyValues {
	get := func(p polls.Party) *float64 {
		v, ok := shares.Get(p)
		if !ok {
			return nil
		}
		return &v
	}
	return partyValues{
		Labour:       get(polls.Labour),
		Conservative: get(polls.Conservative),
		Reform:       get(polls.Reform),
		LibDem:       get(polls.LibDem),
		Green:        get(polls.Green),
		SNP:          get(polls.SNP),
		PlaidCymru:   get(polls.PlaidCymru),
		Others:       get(polls.Others),
	}
}

type pollJSON struct {
	PollDate   string  `json:"pollDate"`
	Pollster   string  `json:"pollster"`
	SampleSize *int    `json:"sampleSize"`
	Area       *string `json:"area"`
	partyValues
}

func toPollJSON(p polls.Poll) pollJSON {
	return pollJSON{
		PollDate:    p.Date.Format(time.DateOnly),
		Pollster:    p.Pollster,
		SampleSize:  p.SampleSize,
		Area:        p.Area,
		partyValues: toPartyValues(p.Values),
	}
}

type pollsResponse struct {
	RunDate   string     `json:"runDate"`
	SourceUrl string     `json:"sourceUrl"`
	Polls     []pollJSON `json:"polls"`
}

type aggregateJSON struct {
	AggregateDate string `json:"aggregateDate"`
	partyValues
	LeadParty *string  `json:"leadParty"`
	LeadValue *float64 `json:"leadValue"`
	PollCount int      `json:"pollCount"`
}

func toAggregateJSON(record store.AggregateRecord) aggregateJSON {
	return aggregateJSON{
		AggregateDate: record.Date.Format(time.DateOnly),
		partyValues:   toPartyValues(record.Aggregate.Values),
		LeadParty:     record.Aggregate.LeadParty,
		LeadValue:     record.Aggregate.LeadValue,
		PollCount:     record.PollCount,
	}
}

type aggregatesResponse struct {
	Aggregates []aggregateJSON `json:"aggregates"`
}

type wardsResponse struct {
	AggregateDate string             `json:"aggregateDate"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	Wards         []local.Projection `json:"wards"`
}

type ladsResponse struct {
	Lads []local.LAD `json:"lads"`
}

type ladResponse struct {
	AggregateDate string `json:"aggregateDate"`
	local.Summary
	Leader string `json:"leader"`
}
