package wikipedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/restyutil"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pollofpolls/scraper/wikipedia")

const (
	DefaultSourceUrl = "https://en.wikipedia.org/wiki/Opinion_polling_for_the_next_United_Kingdom_general_election"
	DefaultUserAgent = "pollofpolls-backend/1.0 (UK poll aggregator; daily fetch)"
	DefaultTimeout   = 30 * time.Second
)

// FetchError is returned when the source page could not be retrieved, either
// because of a network fault or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %s", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var errUnexpectedStatus = errors.New("unexpected status")

type Options struct {
	// SourceUrl defaults to DefaultSourceUrl.
	SourceUrl string
	UserAgent string
	Timeout   time.Duration
	// Pollsters are the canonical pollster names scraped names are snapped to.
	Pollsters []string
	Time      chrono.TimeAPI
	// Output receives request/response dumps in verbose mode, can be nil.
	Output restyutil.InstrumentOutput
}

type Client struct {
	http      *resty.Client
	sourceUrl string
	pollsters []string
	time      chrono.TimeAPI
}

func NewClient(opts Options) Client {
	if opts.SourceUrl == "" {
		opts.SourceUrl = DefaultSourceUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept", "text/html")
	restyutil.InstrumentClient(client, tracer, opts.Output)

	return Client{
		http:      client,
		sourceUrl: opts.SourceUrl,
		pollsters: opts.Pollsters,
		time:      opts.Time,
	}
}

func (c Client) SourceUrl() string {
	return c.sourceUrl
}

// Result is the outcome of a single scrape.
type Result struct {
	SourceUrl string
	Polls     []polls.Poll
	// number of tables in the year section that lacked a required column
	SkippedTables int
	// number of data rows that were dropped (unparseable, stale, empty or duplicate)
	SkippedRows int
}

// Scrape fetches the source page and returns every poll in the current
// year's national results published in the last lookbackMonths.
func (c Client) Scrape(ctx context.Context, lookbackMonths int) (Result, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	span.SetAttributes(
		attribute.String("url", c.sourceUrl),
		attribute.Int("lookback_months", lookbackMonths),
	)

	if lookbackMonths < 1 {
		err := fmt.Errorf("lookback months must be positive, got %d", lookbackMonths)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid lookback")
		return Result{}, err
	}

	doc, err := c.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return Result{}, err
	}

	result := Parse(ctx, doc, ParseOptions{
		Now:            c.time.Now(),
		LookbackMonths: lookbackMonths,
		Pollsters:      c.pollsters,
	})
	result.SourceUrl = c.sourceUrl

	span.SetAttributes(
		attribute.Int("polls", len(result.Polls)),
		attribute.Int("skipped_tables", result.SkippedTables),
		attribute.Int("skipped_rows", result.SkippedRows),
	)
	return result, nil
}

func (c Client) fetch(ctx context.Context) (*goquery.Document, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.sourceUrl)
	if err != nil {
		return nil, &FetchError{URL: c.sourceUrl, Err: err}
	}
	if !res.IsSuccess() {
		return nil, &FetchError{
			URL:        c.sourceUrl,
			StatusCode: res.StatusCode(),
			Status:     res.Status(),
			Err:        errUnexpectedStatus,
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
