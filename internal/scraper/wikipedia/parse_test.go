package wikipedia

import (
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateText(t *testing.T) {
	cases := []struct {
		text     string
		expected time.Time
	}{
		{text: "12 March 2026", expected: timezone.Date(2026, time.March, 12)},
		{text: "12–14 March 2026", expected: timezone.Date(2026, time.March, 12)},
		{text: "12-14 Mar 2026", expected: timezone.Date(2026, time.March, 12)},
		{text: "30 Mar – 2 Apr 2026", expected: timezone.Date(2026, time.March, 30)},
		{text: "30 Dec 2025 – 2 Jan 2026", expected: timezone.Date(2025, time.December, 30)},
		{text: "30 Dec – 2 Jan 2026", expected: timezone.Date(2025, time.December, 30)},
		{text: "14 Sept 2026", expected: timezone.Date(2026, time.September, 14)},
		{text: "12 Mar 26", expected: timezone.Date(2026, time.March, 12)},
		{text: "12–14 Mar[3]", expected: timezone.Date(2026, time.March, 12)},
		{text: "12 Mar", expected: timezone.Date(2026, time.March, 12)},
		// within a week of now stays in the current year
		{text: "25 Mar", expected: timezone.Date(2026, time.March, 25)},
		// further in the future than that belongs to last year
		{text: "30 Mar", expected: timezone.Date(2025, time.March, 30)},
		{text: "28–31 Dec", expected: timezone.Date(2025, time.December, 28)},
	}

	for _, test := range cases {
		date, err := parseDateText(test.text, testNow)
		require.NoError(t, err, test.text)
		require.True(t, test.expected.Equal(date), "%s: expected %v, got %v", test.text, test.expected, date)
	}

	for _, text := range []string{"", "General election", "31 Feb 2026", "12 Foo 2026", "–"} {
		_, err := parseDateText(text, testNow)
		require.Error(t, err, text)
	}
}

func TestParseSortValue(t *testing.T) {
	date, ok := parseSortValue("2026-03-12")
	require.True(t, ok)
	require.True(t, timezone.Date(2026, time.March, 12).Equal(date))

	date, ok = parseSortValue("000000002026-03-12-0000")
	require.True(t, ok)
	require.True(t, timezone.Date(2026, time.March, 12).Equal(date))

	_, ok = parseSortValue("March")
	require.False(t, ok)
	_, ok = parseSortValue("2026-13-01")
	require.False(t, ok)
}

func TestMatchHeader(t *testing.T) {
	cases := []struct {
		header   string
		expected role
	}{
		{header: "Dates conducted", expected: roleDate},
		{header: "Fieldwork date", expected: roleDate},
		{header: "Pollster[1]", expected: rolePollster},
		{header: "Sample  size", expected: roleSampleSize},
		{header: "Area", expected: roleArea},
		{header: "Lab", expected: roleLabour},
		{header: "Labour", expected: roleLabour},
		{header: "Con", expected: roleConservative},
		{header: "LD", expected: roleLibDem},
		{header: "Lib Dems", expected: roleLibDem},
		{header: "Ref", expected: roleReform},
		{header: "Reform UK", expected: roleReform},
		{header: "Grn", expected: roleGreen},
		{header: "SNP", expected: roleSNP},
		{header: "PC", expected: rolePlaidCymru},
		{header: "Plaid Cymru", expected: rolePlaidCymru},
		{header: "Others", expected: roleOthers},
		// area is matched after every party
		{header: "Green area", expected: roleGreen},
		{header: "Others by area", expected: roleOthers},
	}
	for _, test := range cases {
		r, ok := matchHeader(test.header)
		require.True(t, ok, test.header)
		require.Equal(t, test.expected, r, test.header)
	}

	for _, header := range []string{"", "Client", "Lead"} {
		_, ok := matchHeader(header)
		require.False(t, ok, header)
	}
}

func TestBuildColumnMap(t *testing.T) {
	columns := buildColumnMap([]string{
		"Dates conducted", "Pollster", "Client", "Sample size",
		"Lab", "Labour", "Con", "Ref", "LD", "Grn", "Lead",
	})
	require.Equal(t, 4, columns[roleLabour])
	require.Equal(t, 6, columns[roleConservative])
	require.True(t, columns.complete())

	// a table without a sample size column is rejected
	columns = buildColumnMap([]string{
		"Dates conducted", "Pollster", "Lab", "Con", "Ref", "LD", "Grn",
	})
	require.False(t, columns.complete())
}

func TestParseCells(t *testing.T) {
	value, ok := parsePercentage(" 27% ")
	require.True(t, ok)
	require.Equal(t, 27.0, value)

	value, ok = parsePercentage("4.5%[a]")
	require.True(t, ok)
	require.Equal(t, 4.5, value)

	for _, text := range []string{"", "–", "N/A", "NaN", "%"} {
		_, ok := parsePercentage(text)
		require.False(t, ok, text)
	}

	require.Equal(t, 2034, *parseSampleSize("2,034"))
	require.Equal(t, 1500, *parseSampleSize(" 1 500[3]"))
	require.Nil(t, parseSampleSize(""))
	require.Nil(t, parseSampleSize("N/A"))
}

func TestDedupeKey(t *testing.T) {
	sample := 1000
	other := 1001
	a := polls.Poll{
		Date:       timezone.Date(2026, time.March, 1),
		Pollster:   "YouGov",
		SampleSize: &sample,
		Values:     polls.Shares{polls.Labour: 20},
	}
	b := a
	b.SampleSize = &other

	require.Equal(t, dedupeKey(a), dedupeKey(a))
	require.NotEqual(t, dedupeKey(a), dedupeKey(b))

	c := a
	c.Values = polls.Shares{polls.Labour: 20, polls.Green: 0}
	require.NotEqual(t, dedupeKey(a), dedupeKey(c))
}
