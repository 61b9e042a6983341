package notify

import (
	"context"
	"log/slog"
)

type Event string

const (
	EventBookingRequested   Event = "booking_requested"
	EventBookingApproved    Event = "booking_approved"
	EventBookingDeclined    Event = "booking_declined"
	EventBookingRescheduled Event = "booking_rescheduled"
)

// Payload carries the session facts a recipient needs to act on the event.
type Payload struct {
	Date             string
	Time             string
	CounterpartyName string
	Message          string
}

// Notifier delivers a fire-and-forget message to a recipient contact
// address. Callers must treat delivery failures as non-fatal: a failed
// notification never rolls back the state change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipient string, event Event, p Payload) error
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real delivery channel in development and tests.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log.With(slog.String("component", "notify"))}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient string, event Event, p Payload) error {
	n.log.Info("notification",
		slog.String("recipient", recipient),
		slog.String("event", string(event)),
		slog.String("date", p.Date),
		slog.String("time", p.Time),
		slog.String("counterparty", p.CounterpartyName),
		slog.String("message", p.Message),
	)
	return nil
}
