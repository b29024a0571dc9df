// Package notify defines the outbound notification surface for
// appointment events. Real delivery transports (email/SMS providers) are
// external collaborators; this package owns only the interface and the
// receipts.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opencare/care-scheduler/internal/models"
)

type Event string

const (
	EventCreated   Event = "created"
	EventUpdated   Event = "updated"
	EventCancelled Event = "cancelled"
)

// Dispatcher sends notifications for an appointment event and reports
// receipts for what it delivered. Failures are the dispatcher's problem:
// callers treat the result as best-effort and never fail the parent
// operation over it.
type Dispatcher interface {
	Notify(ctx context.Context, event Event, ap *models.Appointment) []models.NotificationReceipt
}

// LogDispatcher emits structured log lines in place of a real transport
// and produces receipts for every channel that has an address on file.
type LogDispatcher struct {
	logger zerolog.Logger
	now    func() time.Time
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger, now: time.Now}
}

func (d *LogDispatcher) Notify(ctx context.Context, event Event, ap *models.Appointment) []models.NotificationReceipt {
	var receipts []models.NotificationReceipt

	sentAt := d.now().UTC()

	deliver := func(recipient, channel, address string) {
		if address == "" {
			return
		}
		d.logger.Info().
			Str("event", string(event)).
			Uint("appointment_id", ap.ID).
			Str("recipient", recipient).
			Str("channel", channel).
			Time("start_time", ap.StartTime).
			Msg("appointment notification")

		receipts = append(receipts, models.NotificationReceipt{
			AppointmentID: ap.ID,
			Event:         string(event),
			Channel:       channel,
			Recipient:     recipient,
			SentAt:        sentAt,
		})
	}

	deliver("patient", "email", ap.Patient.Email)
	deliver("patient", "sms", ap.Patient.Phone)
	deliver("provider", "email", ap.Provider.Email)
	deliver("provider", "sms", ap.Provider.Phone)

	return receipts
}

var _ Dispatcher = (*LogDispatcher)(nil)
