package aggregate

import (
	"context"
	"math"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/weights"
	"pollofpolls-backend/lib/timezone"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2026, time.March, 20, 6, 0, 0, 0, timezone.Location)

func ptr[T any](v T) *T {
	return &v
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(context.Background(), nil, asOf, weights.DefaultTable())
	require.Empty(t, result.Values)
	require.Nil(t, result.LeadParty)
	require.Nil(t, result.LeadValue)
}

func TestAggregateBlend(t *testing.T) {
	table := weights.DefaultTable()
	list := []polls.Poll{
		{
			Date:       timezone.StartOfDay(asOf),
			Pollster:   "YouGov",
			SampleSize: ptr(2000),
			Values:     polls.Shares{polls.Labour: 30, polls.Reform: 25},
		},
		{
			Date:       timezone.StartOfDay(asOf).AddDate(0, 0, -10),
			Pollster:   "Opinium",
			SampleSize: ptr(1000),
			Values:     polls.Shares{polls.Labour: 20, polls.Green: 10},
		},
	}

	w1 := 1.0 * 1.1 * math.Sqrt(2000)
	w2 := 0.75 * 1.0 * math.Sqrt(1000)

	result := Aggregate(context.Background(), list, asOf, table)

	require.InDelta(t, (30*w1+20*w2)/(w1+w2), result.Values[polls.Labour], 1e-9)
	require.InDelta(t, 25.0, result.Values[polls.Reform], 1e-9)
	require.InDelta(t, 10.0, result.Values[polls.Green], 1e-9)
	_, ok := result.Values.Get(polls.Conservative)
	require.False(t, ok)

	require.NotNil(t, result.LeadParty)
	require.Equal(t, "Labour", *result.LeadParty)
	require.InDelta(t, result.Values[polls.Labour]-25, *result.LeadValue, 1e-9)
}

func TestAggregateIdempotent(t *testing.T) {
	table := weights.DefaultTable()
	list := []polls.Poll{
		{Date: timezone.Date(2026, time.March, 1), Pollster: "Survation", Values: polls.Shares{polls.Labour: 22, polls.Conservative: 18}},
		{Date: timezone.Date(2026, time.February, 1), Pollster: "Someone", SampleSize: ptr(500), Values: polls.Shares{polls.Labour: 25, polls.Others: 8}},
	}

	first := Aggregate(context.Background(), list, asOf, table)
	second := Aggregate(context.Background(), list, asOf, table)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}

	// input order does not matter
	reversed := []polls.Poll{list[1], list[0]}
	third := Aggregate(context.Background(), reversed, asOf, table)
	for _, p := range polls.Parties {
		require.InDelta(t, first.Values[p], third.Values[p], 1e-9)
	}
}

func TestAggregateSingleParty(t *testing.T) {
	list := []polls.Poll{
		{Date: timezone.Date(2026, time.March, 18), Pollster: "YouGov", Values: polls.Shares{polls.Reform: 30}},
		{Date: timezone.Date(2026, time.March, 10), Pollster: "Opinium", Values: polls.Shares{polls.Reform: 28}},
	}

	result := Aggregate(context.Background(), list, asOf, weights.DefaultTable())
	require.Len(t, result.Values, 1)
	require.Nil(t, result.LeadParty)
	require.Nil(t, result.LeadValue)
}

func TestAggregateFuturePoll(t *testing.T) {
	// polls dated after asOf count as fresh
	list := []polls.Poll{
		{Date: timezone.Date(2026, time.March, 25), Pollster: "YouGov", Values: polls.Shares{polls.Labour: 30, polls.Green: 10}},
	}
	result := Aggregate(context.Background(), list, asOf, weights.DefaultTable())
	require.InDelta(t, 30.0, result.Values[polls.Labour], 1e-9)
	require.InDelta(t, 20.0, *result.LeadValue, 1e-9)
}

func TestLeadTie(t *testing.T) {
	party, margin, ok := Lead(polls.Shares{polls.Labour: 25, polls.Reform: 25, polls.Green: 10})
	require.True(t, ok)
	require.Contains(t, []string{"Labour", "Reform"}, party)
	require.Zero(t, margin)
}

func TestLeadNonNegative(t *testing.T) {
	_, margin, ok := Lead(polls.Shares{polls.SNP: 2, polls.Others: 9, polls.LibDem: 14})
	require.True(t, ok)
	require.Equal(t, 5.0, margin)
	require.GreaterOrEqual(t, margin, 0.0)
}
