package store

import (
	"context"
	"errors"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/testutil"
	"pollofpolls-backend/lib/timezone"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func setup(t *testing.T) (Store, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "store",
		DbSchema: Schema,
	})
	return NewStore(res.DB), cleanup
}

func TestPollRuns(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := store.LatestPolls(ctx)
	require.True(t, errors.Is(err, ErrNotFound))

	day1 := time.Date(2026, time.March, 19, 6, 0, 0, 0, timezone.Location)
	day2 := day1.AddDate(0, 0, 1)

	first := []polls.Poll{
		{
			Date:       timezone.Date(2026, time.March, 12),
			Pollster:   "YouGov",
			SampleSize: ptr(2034),
			Area:       ptr("GB"),
			Values:     polls.Shares{polls.Labour: 22, polls.Reform: 27, polls.Green: 0},
		},
		{
			Date:     timezone.Date(2026, time.March, 1),
			Pollster: "Survation",
			Values:   polls.Shares{polls.Conservative: 19.5},
		},
	}

	run, err := store.ReplacePollRun(ctx, day1, "https://example.com/polls", first)
	require.NoError(t, err)
	require.Equal(t, 2, run.PollCount)

	latest, list, err := store.LatestPolls(ctx)
	require.NoError(t, err)
	require.Equal(t, run.ID, latest.ID)
	require.True(t, timezone.Date(2026, time.March, 19).Equal(latest.Date))
	require.True(t, latest.Success)
	if diff := cmp.Diff(first, list); diff != "" {
		t.Fatal(diff)
	}

	// rerunning the same day replaces the polls of that day
	replacement := first[:1]
	rerun, err := store.ReplacePollRun(ctx, day1.Add(3*time.Hour), "https://example.com/polls", replacement)
	require.NoError(t, err)
	require.Equal(t, run.ID, rerun.ID)

	_, list, err = store.LatestPolls(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// a failed run on a later day is recorded but does not hide the last
	// successful one
	err = store.MarkRunFailed(ctx, day2, "https://example.com/polls")
	require.NoError(t, err)

	failed, err := store.Run(ctx, day2)
	require.NoError(t, err)
	require.False(t, failed.Success)
	require.Zero(t, failed.PollCount)

	latest, list, err = store.LatestPolls(ctx)
	require.NoError(t, err)
	require.Equal(t, run.ID, latest.ID)
	require.Len(t, list, 1)

	// marking an existing successful run failed keeps its row
	err = store.MarkRunFailed(ctx, day1, "https://example.com/polls")
	require.NoError(t, err)
	_, _, err = store.LatestPolls(ctx)
	require.True(t, errors.Is(err, ErrNotFound))

	runs, err := store.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.True(t, timezone.Date(2026, time.March, 20).Equal(runs[0].Date))

	_, err = store.Run(ctx, day2.AddDate(0, 0, 1))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestAggregates(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.LatestAggregate(ctx)
	require.True(t, errors.Is(err, ErrNotFound))

	base := timezone.Date(2026, time.January, 1)
	for i := 0; i < 400; i++ {
		err := store.PutAggregate(ctx, base.AddDate(0, 0, i), polls.Aggregate{
			Values: polls.Shares{polls.Labour: float64(i % 40)},
		}, 1)
		require.NoError(t, err)
	}

	series, err := store.AggregateSeries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, series, DefaultSeriesLimit)
	require.True(t, base.AddDate(0, 0, 399).Equal(series[0].Date))
	require.True(t, series[0].Date.After(series[1].Date))

	series, err = store.AggregateSeries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, series, 10)

	latestDate := base.AddDate(0, 0, 399)
	aggregate := polls.Aggregate{
		Values: polls.Shares{
			polls.Labour: 22.5,
			polls.Reform: 27.25,
		},
		LeadParty: ptr("Reform"),
		LeadValue: ptr(4.75),
	}
	// replaces the aggregate already stored for that date
	err = store.PutAggregate(ctx, latestDate.Add(5*time.Hour), aggregate, 12)
	require.NoError(t, err)

	latest, err := store.LatestAggregate(ctx)
	require.NoError(t, err)
	require.True(t, latestDate.Equal(latest.Date))
	require.Equal(t, 12, latest.PollCount)
	if diff := cmp.Diff(aggregate, latest.Aggregate); diff != "" {
		t.Fatal(diff)
	}

	series, err = store.AggregateSeries(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, series, DefaultSeriesLimit)
}

func TestAggregateWithoutLead(t *testing.T) {
	store, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()
	err := store.PutAggregate(ctx, timezone.Date(2026, time.March, 1), polls.Aggregate{Values: polls.Shares{}}, 0)
	require.NoError(t, err)

	latest, err := store.LatestAggregate(ctx)
	require.NoError(t, err)
	require.Empty(t, latest.Aggregate.Values)
	require.Nil(t, latest.Aggregate.LeadParty)
	require.Nil(t, latest.Aggregate.LeadValue)
}
