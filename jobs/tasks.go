package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/hibiken/asynq"

	"github.com/akademi-sis/akademi/internal/attendance"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeAttendanceRecap aggregates the day's attendance counts.
	TaskTypeAttendanceRecap = "attendance:recap"
	// TaskTypeSessionsPurge removes expired session audit rows.
	TaskTypeSessionsPurge = "sessions:purge"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// SMTPConfig carries mail delivery settings for the worker.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// NewSendEmailHandler builds the mail:send handler bound to an SMTP relay.
func NewSendEmailHandler(cfg SMTPConfig, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
			cfg.From, payload.To, payload.Subject, payload.Body)
		if err := smtp.SendMail(addr, nil, cfg.From, []string{payload.To}, []byte(msg)); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
		}
		return nil
	}
}

// RecapSource supplies the daily attendance aggregate.
type RecapSource interface {
	DailyRecap(ctx context.Context, date time.Time) (attendance.Recap, error)
}

// NewAttendanceRecapTask constructs the cron task carrying no payload;
// the handler always recaps the current day.
func NewAttendanceRecapTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAttendanceRecap, nil)
}

// NewAttendanceRecapHandler logs the day's attendance totals. The recap
// lands in the worker log where it can be shipped alongside other
// structured output.
func NewAttendanceRecapHandler(source RecapSource, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		recap, err := source.DailyRecap(ctx, today)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("attendance recap",
				slog.String("date", today.Format("2006-01-02")),
				slog.Int("total", recap.Total),
				slog.Int("present", recap.Counts["present"]),
				slog.Int("absent", recap.Counts["absent"]))
		}
		return nil
	}
}

// SessionPurger removes expired session audit rows.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// NewSessionsPurgeTask constructs the session purge cron task.
func NewSessionsPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionsPurge, nil)
}

// NewSessionsPurgeHandler deletes expired rows from the sessions table.
func NewSessionsPurgeHandler(purger SessionPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := purger.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}
		if logger != nil && purged > 0 {
			logger.Info("purged expired sessions", slog.Int64("count", purged))
		}
		return nil
	}
}
