package chrono

import (
	"context"
	"fmt"
	"log/slog"
	"pollofpolls-backend/lib/timezone"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron is the constructor of StandardCron. Jobs run until Stop is called.
func NewStandardCron() StandardCron {
	cronner := cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithLocation(timezone.Location),
	)
	cronner.Start()

	return StandardCron{
		cron: cronner,
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	if err != nil {
		return fmt.Errorf("add cron %q: %w", spec, err)
	}
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s StandardCron) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append([]any{"err", err}, keysAndValues...)...)
}
