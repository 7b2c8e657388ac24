// Package notify delivers report summaries and match events.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/jobs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/report"
)

// Notifier delivers one report over a single channel.
type Notifier interface {
	Name() string
	Recipient() string
	Notify(ctx context.Context, r *report.Report) error
}

// DeliveryLog records every delivery attempt.
type DeliveryLog interface {
	LogNotification(ctx context.Context, n jobs.Notification) error
}

var now = time.Now

// Dispatcher sends a report through every notifier. Failures are logged and
// recorded, never returned.
type Dispatcher struct {
	notifiers []Notifier
	log       DeliveryLog
	logger    *zap.Logger
}

func NewDispatcher(deliveries DeliveryLog, log *zap.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		log:       deliveries,
		logger:    logger.WithFields(log),
	}
}

// Send returns the outcome per channel: "sent" or the error text.
func (d *Dispatcher) Send(ctx context.Context, r *report.Report) map[string]string {
	results := make(map[string]string, len(d.notifiers))
	subject := Subject(r)

	for _, n := range d.notifiers {
		record := jobs.Notification{
			ReportID:  r.ID,
			Channel:   n.Name(),
			Recipient: n.Recipient(),
			Subject:   subject,
		}

		if err := n.Notify(ctx, r); err != nil {
			d.logger.Error("notification failed", zap.String("channel", n.Name()), zap.Error(err))
			results[n.Name()] = err.Error()
			record.Status = jobs.NotificationFailed
			record.Error = err.Error()
		} else {
			d.logger.Info("notification sent", zap.String("channel", n.Name()))
			results[n.Name()] = string(jobs.NotificationSent)
			sentAt := now().UTC()
			record.Status = jobs.NotificationSent
			record.SentAt = &sentAt
		}

		if r.ID == 0 || d.log == nil {
			continue
		}
		if err := d.log.LogNotification(ctx, record); err != nil {
			d.logger.Warn("logging notification failed", zap.String("channel", n.Name()), zap.Error(err))
		}
	}

	return results
}

// Subject is the title used for every report delivery.
func Subject(r *report.Report) string {
	return fmt.Sprintf("Job Match Report - %s", r.Date)
}
