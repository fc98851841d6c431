package notify

import (
	"context"
	"log/slog"
)

type EventKind string

const (
	EventBooked      EventKind = "session_booked"
	EventConfirmed   EventKind = "session_confirmed"
	EventCompleted   EventKind = "session_completed"
	EventCancelled   EventKind = "session_cancelled"
	EventRescheduled EventKind = "session_rescheduled"
)

type Event struct {
	Kind      EventKind
	SessionID string
	MentorID  string
	MenteeID  string
	Topic     string
}

// Dispatcher delivers scheduling events to the participants. Delivery is
// fire-and-forget: a failed dispatch never rolls back the operation that
// produced it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// LogDispatcher writes events to the structured log. It stands in for the
// portal's real notification pipeline, which is owned elsewhere.
type LogDispatcher struct {
	log *slog.Logger
}

func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event Event) error {
	d.log.Info("Notification dispatched",
		slog.String("kind", string(event.Kind)),
		slog.String("session_id", event.SessionID),
		slog.String("mentor_id", event.MentorID),
		slog.String("mentee_id", event.MenteeID),
		slog.String("topic", event.Topic),
	)

	return nil
}
