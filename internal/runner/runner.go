package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"pollofpolls-backend/internal/aggregate"
	"pollofpolls-backend/internal/alert"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/internal/scraper/wikipedia"
	"pollofpolls-backend/internal/store"
	"pollofpolls-backend/internal/weights"
	"pollofpolls-backend/lib/timezone"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pollofpolls/runner")

// ErrAlreadyRunning is returned by Run when another run has not finished yet.
var ErrAlreadyRunning = errors.New("a run is already in progress")

type Scraper interface {
	SourceUrl() string
	Scrape(ctx context.Context, lookbackMonths int) (wikipedia.Result, error)
}

type Store interface {
	ReplacePollRun(ctx context.Context, runDate time.Time, sourceUrl string, list []polls.Poll) (store.Run, error)
	MarkRunFailed(ctx context.Context, runDate time.Time, sourceUrl string) error
	PutAggregate(ctx context.Context, date time.Time, aggregate polls.Aggregate, pollCount int) error
}

// Observer is told about the outcome of each run.
type Observer interface {
	RunFinished(summary Summary, err error)
}

type Options struct {
	Scraper        Scraper
	Store          Store
	Weights        weights.Table
	Alerter        alert.Alerter
	Time           chrono.TimeAPI
	LookbackMonths int
	// Timeout bounds a single run, zero means no limit beyond the caller's context.
	Timeout  time.Duration
	Observer Observer
}

// Runner performs the daily scrape and aggregation, at most one at a time.
type Runner struct {
	opts Options
	lock *sync.Mutex
}

func NewRunner(opts Options) Runner {
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}
	if opts.Alerter == nil {
		opts.Alerter = alert.Noop{}
	}
	if opts.LookbackMonths < 1 {
		opts.LookbackMonths = 2
	}
	return Runner{
		opts: opts,
		lock: &sync.Mutex{},
	}
}

type Summary struct {
	RunDate       time.Time
	SourceUrl     string
	Polls         int
	SkippedTables int
	SkippedRows   int
	Aggregate     polls.Aggregate
}

// Run scrapes the source, stores the polls, aggregates them and stores the
// aggregate. On failure the run is recorded as failed and the alerter is
// notified.
func (r Runner) Run(ctx context.Context) (Summary, error) {
	if !r.lock.TryLock() {
		return Summary{}, ErrAlreadyRunning
	}
	defer r.lock.Unlock()

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	now := r.opts.Time.Now()
	summary := Summary{
		RunDate:   timezone.StartOfDay(now),
		SourceUrl: r.opts.Scraper.SourceUrl(),
	}
	span.SetAttributes(attribute.String("run_date", summary.RunDate.Format(time.DateOnly)))

	err := r.run(ctx, now, &summary)
	if r.opts.Observer != nil {
		r.opts.Observer.RunFinished(summary, err)
	}
	if err == nil {
		slog.InfoContext(
			ctx, "run finished",
			"run_date", summary.RunDate.Format(time.DateOnly),
			"polls", summary.Polls,
			"skipped_tables", summary.SkippedTables,
			"skipped_rows", summary.SkippedRows,
		)
		return summary, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "run failed")
	slog.ErrorContext(ctx, "run failed", "run_date", summary.RunDate.Format(time.DateOnly), "err", err)

	// ctx may be what failed, recording the failure should still happen
	cleanupCtx := context.WithoutCancel(ctx)
	markErr := r.opts.Store.MarkRunFailed(cleanupCtx, summary.RunDate, summary.SourceUrl)
	if markErr != nil {
		slog.ErrorContext(ctx, "failed to record failed run", "err", markErr)
	}
	alertErr := r.opts.Alerter.RunFailed(cleanupCtx, alert.Failure{
		RunDate:   summary.RunDate,
		SourceUrl: summary.SourceUrl,
		Err:       err,
	})
	if alertErr != nil {
		slog.ErrorContext(ctx, "failed to send alert", "err", alertErr)
	}

	return summary, errors.Join(err, markErr, alertErr)
}

func (r Runner) run(ctx context.Context, now time.Time, summary *Summary) error {
	result, err := r.opts.Scraper.Scrape(ctx, r.opts.LookbackMonths)
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}
	if result.SourceUrl != "" {
		summary.SourceUrl = result.SourceUrl
	}
	summary.Polls = len(result.Polls)
	summary.SkippedTables = result.SkippedTables
	summary.SkippedRows = result.SkippedRows

	_, err = r.opts.Store.ReplacePollRun(ctx, summary.RunDate, summary.SourceUrl, result.Polls)
	if err != nil {
		return fmt.Errorf("store polls: %w", err)
	}

	summary.Aggregate = aggregate.Aggregate(ctx, result.Polls, now, r.opts.Weights)

	err = r.opts.Store.PutAggregate(ctx, summary.RunDate, summary.Aggregate, len(result.Polls))
	if err != nil {
		return fmt.Errorf("store aggregate: %w", err)
	}
	return nil
}

// Schedule registers the runner on a cron spec. Runs that overlap a run
// still in progress are skipped.
func (r Runner) Schedule(ctx context.Context, cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		_, err := r.Run(ctx)
		if errors.Is(err, ErrAlreadyRunning) {
			slog.WarnContext(ctx, "skipping scheduled run, previous run still in progress")
		}
	})
}
