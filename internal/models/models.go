package models

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionConfirmed, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionCompleted, SessionCancelled:
		return true
	case SessionPending, SessionConfirmed:
		return false
	}
	return false
}

// CanTransitionTo enumerates the session state machine:
// pending -> confirmed|completed|cancelled, confirmed -> completed|cancelled.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionPending:
		return next == SessionConfirmed || next == SessionCompleted || next == SessionCancelled
	case SessionConfirmed:
		return next == SessionCompleted || next == SessionCancelled
	case SessionCompleted, SessionCancelled:
		return false
	}
	return false
}

type SessionType string

const (
	SessionOneOnOne SessionType = "one_on_one"
	SessionGroup    SessionType = "group"
	SessionWorkshop SessionType = "workshop"
)

func (t SessionType) Valid() bool {
	switch t {
	case SessionOneOnOne, SessionGroup, SessionWorkshop:
		return true
	}
	return false
}

// DisplayState is derived from wall-clock time on every read and never stored.
type DisplayState string

const (
	DisplayUpcoming DisplayState = "upcoming"
	DisplayJoinable DisplayState = "joinable"
	DisplayPast     DisplayState = "past"
)

type TimeSlot struct {
	ID          string    `db:"id"`
	MentorID    string    `db:"mentor_id"`
	Start       time.Time `db:"start_at"`
	End         time.Time `db:"end_at"`
	IsAvailable bool      `db:"is_available"`
	IsBooked    bool      `db:"is_booked"`
}

// Bookable reports whether the slot can take a new session at the given
// moment. Invariant elsewhere: IsBooked implies IsAvailable.
func (s *TimeSlot) Bookable(now time.Time) bool {
	return s.IsAvailable && !s.IsBooked && s.Start.After(now)
}

type Session struct {
	ID           string        `db:"id"`
	MentorID     string        `db:"mentor_id"`
	MenteeID     string        `db:"mentee_id"`
	SlotID       string        `db:"slot_id"`
	Type         SessionType   `db:"session_type"`
	Topic        string        `db:"topic"`
	Description  *string       `db:"description"`
	Start        time.Time     `db:"start_at"`
	End          time.Time     `db:"end_at"`
	Status       SessionStatus `db:"status"`
	MeetingURL   *string       `db:"meeting_url"`
	Notes        *string       `db:"notes"`
	CancelReason *string       `db:"cancel_reason"`
	CreatedAt    time.Time     `db:"created_at"`
}

// Display classifies the session against the given moment. Cancelled and
// completed sessions are never joinable regardless of the clock.
func (s *Session) Display(now time.Time) DisplayState {
	if s.End.Before(now) {
		return DisplayPast
	}
	if !s.Start.After(now) && (s.Status == SessionPending || s.Status == SessionConfirmed) {
		return DisplayJoinable
	}
	if s.Start.After(now) {
		return DisplayUpcoming
	}
	return DisplayPast
}

// Reschedulable: pending or confirmed, and strictly in the future.
func (s *Session) Reschedulable(now time.Time) bool {
	if s.Status != SessionPending && s.Status != SessionConfirmed {
		return false
	}
	return s.Start.After(now)
}

type Milestone struct {
	Title string `db:"title"`
	Done  bool   `db:"done"`
}

type Goal struct {
	ID         string      `db:"id"`
	MentorID   string      `db:"mentor_id"`
	MenteeID   string      `db:"mentee_id"`
	Title      string      `db:"title"`
	Milestones []Milestone `db:"milestones"`
	CreatedAt  time.Time   `db:"created_at"`
}

// Completion returns the done ratio in [0, 1]. A goal without milestones
// counts as not started.
func (g *Goal) Completion() float64 {
	if len(g.Milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range g.Milestones {
		if m.Done {
			done++
		}
	}
	return float64(done) / float64(len(g.Milestones))
}
