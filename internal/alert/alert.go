package alert

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pollofpolls/alert")

// Failure describes a daily run that did not complete.
type Failure struct {
	RunDate   time.Time
	SourceUrl string
	Err       error
}

// Alerter notifies an operator that a run failed.
type Alerter interface {
	RunFailed(ctx context.Context, failure Failure) error
}

type SmtpConfig struct {
	Server       string `json:"server" validate:"required"`
	Port         int    `json:"port" validate:"required,gt=0"`
	EmailAddress string `json:"email_address" validate:"required,email"`
	Password     string `json:"password"`
}

type Mailer struct {
	config     SmtpConfig
	recipients []string
}

func NewMailer(config SmtpConfig, recipients []string) Mailer {
	return Mailer{
		config:     config,
		recipients: recipients,
	}
}

func formatFailure(runId string, failure Failure) (subject, body string) {
	date := failure.RunDate.Format(time.DateOnly)
	subject = fmt.Sprintf("Poll scrape failed for %s [%s]", date, runId)

	errText := "unknown error"
	if failure.Err != nil {
		errText = failure.Err.Error()
	}
	sourceUrl := failure.SourceUrl
	if sourceUrl == "" {
		sourceUrl = "unknown"
	}

	body = fmt.Sprintf(`The daily poll scrape did not complete.

Run: %s
Date: %s
Source: %s

Error:
%s

The previous successful run is still being served.`, runId, date, sourceUrl, errText)
	return subject, body
}

func (m Mailer) RunFailed(ctx context.Context, failure Failure) error {
	ctx, span := tracer.Start(ctx, "RunFailed")
	defer span.End()

	if len(m.recipients) == 0 {
		return nil
	}

	runId, err := random.String(8)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate run id")
		return err
	}
	span.SetAttributes(attribute.String("run_id", runId))

	subject, body := formatFailure(runId, failure)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Poll of Polls <%s>", m.config.EmailAddress)
	mail.To = m.recipients
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err = mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send alert: %w", err)
	}

	slog.InfoContext(ctx, "sent run failure alert", "run_id", runId, "recipients", len(m.recipients))
	return nil
}

// Noop only logs failures, it is used when no mail server is configured.
type Noop struct{}

func (Noop) RunFailed(ctx context.Context, failure Failure) error {
	slog.WarnContext(
		ctx, "run failed (alerts disabled)",
		"run_date", failure.RunDate.Format(time.DateOnly),
		"source_url", failure.SourceUrl,
		"err", failure.Err,
	)
	return nil
}
