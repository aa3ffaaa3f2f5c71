package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartOfDay(t *testing.T) {
	cases := []struct {
		now    time.Time
		expect time.Time
	}{
		{
			now:    time.Date(2026, time.March, 14, 18, 30, 0, 0, Location),
			expect: time.Date(2026, time.March, 14, 0, 0, 0, 0, Location),
		},
		{
			// 23:30 UTC on 14 June is already 15 June in London (BST)
			now:    time.Date(2026, time.June, 14, 23, 30, 0, 0, time.UTC),
			expect: time.Date(2026, time.June, 15, 0, 0, 0, 0, Location),
		},
		{
			now:    time.Date(2026, time.January, 1, 0, 0, 0, 0, Location),
			expect: time.Date(2026, time.January, 1, 0, 0, 0, 0, Location),
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, StartOfDay(test.now))
	}
}

func TestDate(t *testing.T) {
	d := Date(2025, time.December, 31)
	require.Equal(t, 2025, d.Year())
	require.Equal(t, time.December, d.Month())
	require.Equal(t, 31, d.Day())
	require.Equal(t, Location, d.Location())
}
