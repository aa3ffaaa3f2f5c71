package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/store/db"
	"pollofpolls-backend/lib/timezone"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("pollofpolls/store")

// Schema must be applied to a database before it is passed to NewStore.
var Schema = db.Schema

// ErrNotFound is returned when nothing has been stored yet.
var ErrNotFound = errors.New("not found")

// DefaultSeriesLimit is the most aggregates AggregateSeries returns.
const DefaultSeriesLimit = 365

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type Run struct {
	ID        int64
	Date      time.Time
	SourceUrl string
	Success   bool
	PollCount int
	UpdatedAt time.Time
}

type AggregateRecord struct {
	Date      time.Time
	Aggregate polls.Aggregate
	PollCount int
	UpdatedAt time.Time
}

func formatDate(t time.Time) string {
	return t.In(timezone.Location).Format(time.DateOnly)
}

func parseDate(text string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, text, timezone.Location)
}

func toValues(shares polls.Shares) db.PartyValues {
	var values db.PartyValues
	for i, party := range polls.Parties {
		v, ok := shares.Get(party)
		values[i] = sql.NullFloat64{Float64: v, Valid: ok}
	}
	return values
}

func fromValues(values db.PartyValues) polls.Shares {
	shares := polls.Shares{}
	for i, party := range polls.Parties {
		if values[i].Valid {
			shares[party] = values[i].Float64
		}
	}
	return shares
}

func fail(span trace.Span, message string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	return fmt.Errorf("%s: %w", message, err)
}

// ReplacePollRun stores the polls of a run, replacing whatever was stored for
// the same run date. Either everything is written or nothing is.
func (s Store) ReplacePollRun(ctx context.Context, runDate time.Time, sourceUrl string, list []polls.Poll) (Run, error) {
	ctx, span := tracer.Start(ctx, "ReplacePollRun")
	defer span.End()

	date := formatDate(runDate)
	span.SetAttributes(
		attribute.String("run_date", date),
		attribute.Int("polls", len(list)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fail(span, "begin tx", err)
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	updatedAt := time.Now()
	runId, err := txqry.UpsertPollRun(ctx, db.UpsertPollRunParams{
		RunDate:   date,
		SourceUrl: sourceUrl,
		Success:   true,
		PollCount: int64(len(list)),
		UpdatedAt: updatedAt.Unix(),
	})
	if err != nil {
		return Run{}, fail(span, "upsert poll run", err)
	}

	err = txqry.DeleteRunPolls(ctx, runId)
	if err != nil {
		return Run{}, fail(span, "delete previous polls", err)
	}

	for _, p := range list {
		row := db.Poll{
			RunID:    runId,
			PollDate: formatDate(p.Date),
			Pollster: p.Pollster,
			Values:   toValues(p.Values),
		}
		if p.SampleSize != nil {
			row.SampleSize = sql.NullInt64{Int64: int64(*p.SampleSize), Valid: true}
		}
		if p.Area != nil {
			row.Area = sql.NullString{String: *p.Area, Valid: true}
		}
		err = txqry.CreatePoll(ctx, row)
		if err != nil {
			return Run{}, fail(span, "create poll", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return Run{}, fail(span, "commit", err)
	}

	return Run{
		ID:        runId,
		Date:      timezone.StartOfDay(runDate),
		SourceUrl: sourceUrl,
		Success:   true,
		PollCount: len(list),
		UpdatedAt: time.Unix(updatedAt.Unix(), 0),
	}, nil
}

// MarkRunFailed records that the run for the given date failed. Polls stored
// by an earlier run on the same date are kept but no longer count as the
// latest.
func (s Store) MarkRunFailed(ctx context.Context, runDate time.Time, sourceUrl string) error {
	ctx, span := tracer.Start(ctx, "MarkRunFailed")
	defer span.End()

	err := s.qry.MarkPollRunFailed(ctx, db.MarkPollRunFailedParams{
		RunDate:   formatDate(runDate),
		SourceUrl: sourceUrl,
		UpdatedAt: time.Now().Unix(),
	})
	if err != nil {
		return fail(span, "mark run failed", err)
	}
	return nil
}

func toRun(row db.PollRun) (Run, error) {
	date, err := parseDate(row.RunDate)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:        row.ID,
		Date:      date,
		SourceUrl: row.SourceUrl,
		Success:   row.Success,
		PollCount: int(row.PollCount),
		UpdatedAt: time.Unix(row.UpdatedAt, 0),
	}, nil
}

// Run returns the run stored for the given date.
func (s Store) Run(ctx context.Context, runDate time.Time) (Run, error) {
	row, err := s.qry.GetPollRun(ctx, formatDate(runDate))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get poll run: %w", err)
	}
	return toRun(row)
}

// Runs returns the most recent runs, newest first.
func (s Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 || limit > DefaultSeriesLimit {
		limit = DefaultSeriesLimit
	}
	rows, err := s.qry.GetRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run, err := toRun(r)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// LatestPolls returns the polls of the most recent successful run.
func (s Store) LatestPolls(ctx context.Context) (Run, []polls.Poll, error) {
	ctx, span := tracer.Start(ctx, "LatestPolls")
	defer span.End()

	row, err := s.qry.GetLatestSuccessfulRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, ErrNotFound
	}
	if err != nil {
		return Run{}, nil, fail(span, "get latest run", err)
	}
	run, err := toRun(row)
	if err != nil {
		return Run{}, nil, fail(span, "parse run", err)
	}

	rows, err := s.qry.GetRunPolls(ctx, run.ID)
	if err != nil {
		return Run{}, nil, fail(span, "get run polls", err)
	}

	list := make([]polls.Poll, 0, len(rows))
	for _, r := range rows {
		date, err := parseDate(r.PollDate)
		if err != nil {
			return Run{}, nil, fail(span, "parse poll date", err)
		}
		p := polls.Poll{
			Date:     date,
			Pollster: r.Pollster,
			Values:   fromValues(r.Values),
		}
		if r.SampleSize.Valid {
			n := int(r.SampleSize.Int64)
			p.SampleSize = &n
		}
		if r.Area.Valid {
			area := r.Area.String
			p.Area = &area
		}
		list = append(list, p)
	}

	span.SetAttributes(attribute.Int("polls", len(list)))
	return run, list, nil
}

// PutAggregate stores the aggregate for a date, replacing any earlier one.
func (s Store) PutAggregate(ctx context.Context, date time.Time, aggregate polls.Aggregate, pollCount int) error {
	ctx, span := tracer.Start(ctx, "PutAggregate")
	defer span.End()

	row := db.AggregateRun{
		AggregateDate: formatDate(date),
		Values:        toValues(aggregate.Values),
		PollCount:     int64(pollCount),
		UpdatedAt:     time.Now().Unix(),
	}
	if aggregate.LeadParty != nil && aggregate.LeadValue != nil {
		row.LeadParty = sql.NullString{String: *aggregate.LeadParty, Valid: true}
		row.LeadValue = sql.NullFloat64{Float64: *aggregate.LeadValue, Valid: true}
	}

	err := s.qry.UpsertAggregateRun(ctx, row)
	if err != nil {
		return fail(span, "upsert aggregate", err)
	}
	return nil
}

func toAggregateRecord(row db.AggregateRun) (AggregateRecord, error) {
	date, err := parseDate(row.AggregateDate)
	if err != nil {
		return AggregateRecord{}, err
	}
	record := AggregateRecord{
		Date: date,
		Aggregate: polls.Aggregate{
			Values: fromValues(row.Values),
		},
		PollCount: int(row.PollCount),
		UpdatedAt: time.Unix(row.UpdatedAt, 0),
	}
	if row.LeadParty.Valid && row.LeadValue.Valid {
		party := row.LeadParty.String
		value := row.LeadValue.Float64
		record.Aggregate.LeadParty = &party
		record.Aggregate.LeadValue = &value
	}
	return record, nil
}

// AggregateSeries returns up to limit aggregates, newest first. A limit that
// is not positive or exceeds DefaultSeriesLimit is treated as
// DefaultSeriesLimit.
func (s Store) AggregateSeries(ctx context.Context, limit int) ([]AggregateRecord, error) {
	ctx, span := tracer.Start(ctx, "AggregateSeries")
	defer span.End()

	if limit <= 0 || limit > DefaultSeriesLimit {
		limit = DefaultSeriesLimit
	}

	rows, err := s.qry.GetAggregateRuns(ctx, int64(limit))
	if err != nil {
		return nil, fail(span, "get aggregates", err)
	}

	records := make([]AggregateRecord, 0, len(rows))
	for _, r := range rows {
		record, err := toAggregateRecord(r)
		if err != nil {
			return nil, fail(span, "parse aggregate", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// LatestAggregate returns the most recently dated aggregate.
func (s Store) LatestAggregate(ctx context.Context) (AggregateRecord, error) {
	records, err := s.AggregateSeries(ctx, 1)
	if err != nil {
		return AggregateRecord{}, err
	}
	if len(records) == 0 {
		return AggregateRecord{}, ErrNotFound
	}
	return records[0], nil
}
