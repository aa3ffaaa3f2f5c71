package aggregate

import (
	"context"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/weights"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("pollofpolls/aggregate")

const day = 24 * time.Hour

// Aggregate computes the weighted mean vote share of every party across the
// given polls as of the given instant, plus the lead of the first party over
// the second.
func Aggregate(ctx context.Context, list []polls.Poll, asOf time.Time, table weights.Table) polls.Aggregate {
	_, span := tracer.Start(ctx, "Aggregate")
	defer span.End()

	span.SetAttributes(attribute.Int("polls", len(list)))

	totals := map[polls.Party]float64{}
	weightSums := map[polls.Party]float64{}

	for _, poll := range list {
		ageDays := max(0, asOf.Sub(poll.Date).Hours()/day.Hours())
		w := table.Weight(ageDays, poll.Pollster, poll.SampleSize)

		for party, value := range poll.Values {
			totals[party] += value * w
			weightSums[party] += w
		}
	}

	result := polls.Aggregate{Values: polls.Shares{}}
	for _, party := range polls.Parties {
		sum := weightSums[party]
		if sum == 0 {
			continue
		}
		result.Values[party] = totals[party] / sum
	}

	leadParty, leadValue, ok := Lead(result.Values)
	if ok {
		result.LeadParty = &leadParty
		result.LeadValue = &leadValue
		span.SetAttributes(
			attribute.String("lead_party", leadParty),
			attribute.Float64("lead_value", leadValue),
		)
	}

	return result
}

type entry struct {
	name  string
	value float64
}

// Lead returns the display name of the party in first place and its margin
// over second place. ok is false when fewer than two parties have a value.
func Lead(values polls.Shares) (party string, margin float64, ok bool) {
	var entries []entry
	for _, p := range polls.Parties {
		v, present := values.Get(p)
		if !present {
			continue
		}
		entries = append(entries, entry{name: p.DisplayName(), value: v})
	}
	if len(entries) < 2 {
		return "", 0, false
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		}
		return 0
	})

	return entries[0].name, entries[0].value - entries[1].value, true
}
