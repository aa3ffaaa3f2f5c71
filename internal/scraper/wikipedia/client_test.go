package wikipedia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/weights"
	"pollofpolls-backend/lib/telemetry"
	"pollofpolls-backend/lib/timezone"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 20, 12, 0, 0, 0, timezone.Location)

func ptr[T any](v T) *T {
	return &v
}

func readFixture(t testing.TB) []byte {
	contents, err := os.ReadFile("testdata/national_polls.html")
	if err != nil {
		t.Fatal(err)
	}
	return contents
}

func newTestClient(url string) Client {
	return NewClient(Options{
		SourceUrl: url,
		Timeout:   5 * time.Second,
		Pollsters: weights.DefaultTable().Pollsters(),
		Time:      chrono.FixedTime{At: testNow},
	})
}

func sortPolls(list []polls.Poll) {
	slices.SortFunc(list, func(a, b polls.Poll) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.Pollster, b.Pollster); c != 0 {
			return c
		}
		return *a.SampleSize - *b.SampleSize
	})
}

func TestScrape(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scraper/wikipedia")
	defer cleanup()

	fixture := readFixture(t)
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write(fixture)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Scrape(context.Background(), 2)
	require.NoError(t, err)

	require.Equal(t, server.URL, result.SourceUrl)
	require.Equal(t, DefaultUserAgent, userAgent)
	require.Equal(t, 1, result.SkippedTables)
	// duplicate, event row, stale row and a row with no values
	require.Equal(t, 4, result.SkippedRows)

	for _, p := range result.Polls {
		require.True(t, p.HasValues())
		require.NotEqual(t, "Stale Polling", p.Pollster)
		require.NotEqual(t, "Norstat", p.Pollster)
	}

	// every poll except Survation reports a sample size
	var survation []polls.Poll
	var rest []polls.Poll
	for _, p := range result.Polls {
		if p.Pollster == "Survation" {
			survation = append(survation, p)
			continue
		}
		rest = append(rest, p)
	}
	require.Len(t, survation, 1)
	require.Nil(t, survation[0].SampleSize)
	require.True(t, timezone.Date(2026, time.March, 1).Equal(survation[0].Date))

	sortPolls(rest)
	gb := ptr("GB")
	expected := []polls.Poll{
		{
			Date:       timezone.Date(2026, time.January, 30),
			Pollster:   "Opinium",
			SampleSize: ptr(1500),
			Area:       ptr("UK"),
			Values: polls.Shares{
				polls.Labour:       24,
				polls.Conservative: 20,
				polls.Reform:       25,
				polls.LibDem:       12,
				polls.Green:        10,
				polls.Others:       9,
			},
		},
		{
			Date:       timezone.Date(2026, time.March, 3),
			Pollster:   "YouGov",
			SampleSize: ptr(1000),
			Area:       gb,
			Values: polls.Shares{
				polls.Labour:       21,
				polls.Conservative: 17,
				polls.Reform:       29,
				polls.LibDem:       14,
				polls.Green:        12,
				polls.SNP:          3,
				polls.PlaidCymru:   1,
				polls.Others:       3,
			},
		},
		{
			Date:       timezone.Date(2026, time.March, 12),
			Pollster:   "YouGov",
			SampleSize: ptr(2034),
			Area:       gb,
			Values: polls.Shares{
				polls.Labour:       22,
				polls.Conservative: 18,
				polls.Reform:       27,
				polls.LibDem:       13,
				polls.Green:        11,
				polls.SNP:          3,
				polls.PlaidCymru:   1,
				polls.Others:       5,
			},
		},
		{
			Date:       timezone.Date(2026, time.March, 12),
			Pollster:   "YouGov",
			SampleSize: ptr(2035),
			Area:       gb,
			Values: polls.Shares{
				polls.Labour:       22,
				polls.Conservative: 18,
				polls.Reform:       27,
				polls.LibDem:       13,
				polls.Green:        11,
				polls.SNP:          3,
				polls.PlaidCymru:   1,
				polls.Others:       5,
			},
		},
		{
			Date:       timezone.Date(2026, time.March, 16),
			Pollster:   "More in Common",
			SampleSize: ptr(2000),
			Area:       gb,
			Values: polls.Shares{
				polls.Labour:       22,
				polls.Conservative: 18,
				polls.Reform:       28,
				polls.LibDem:       12,
				polls.Green:        10,
				polls.SNP:          3,
				polls.PlaidCymru:   1,
				polls.Others:       6,
			},
		},
		// shares the date, pollster and client cells of the row above
		{
			Date:       timezone.Date(2026, time.March, 16),
			Pollster:   "More in Common",
			SampleSize: ptr(2100),
			Area:       ptr("UK"),
			Values: polls.Shares{
				polls.Labour:       23,
				polls.Conservative: 19,
				polls.Reform:       27,
				polls.LibDem:       12,
				polls.Green:        10,
				polls.SNP:          3,
				polls.PlaidCymru:   1,
				polls.Others:       5,
			},
		},
	}

	diff := cmp.Diff(expected, rest)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestScrapeMissingYearSection(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(readFixture(t))))
	require.NoError(t, err)

	result := Parse(context.Background(), doc, ParseOptions{
		Now:            time.Date(2027, time.February, 1, 9, 0, 0, 0, timezone.Location),
		LookbackMonths: 12,
	})
	require.Empty(t, result.Polls)
	require.Zero(t, result.SkippedTables)
}

func TestScrapeFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Scrape(context.Background(), 2)
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	require.Equal(t, server.URL, fetchErr.URL)
	require.Contains(t, err.Error(), server.URL)
	require.Contains(t, err.Error(), "503")
}

func TestScrapeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Scrape(context.Background(), 2)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Zero(t, fetchErr.StatusCode)
	require.NotNil(t, fetchErr.Unwrap())
}

func TestScrapeInvalidLookback(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Scrape(context.Background(), 0)
	require.Error(t, err)

	var fetchErr *FetchError
	require.False(t, errors.As(err, &fetchErr))
}
