package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mentorship-service/api"
	"mentorship-service/internal/lock"
	"mentorship-service/internal/models"
	"mentorship-service/internal/notify"
	"mentorship-service/internal/storage/memory"
	"mentorship-service/pkg/response"
)

var testNow = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

// recordingDispatcher captures dispatched events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

type failingDispatcher struct{}

func (failingDispatcher) Dispatch(context.Context, notify.Event) error {
	return errors.New("notification channel down")
}

type staticMeetings struct{}

func (staticMeetings) MeetingURL(context.Context, string) (string, error) {
	return "https://meet.example.com/room", nil
}

func newTestService(t *testing.T) (*Service, *memory.Storage) {
	t.Helper()

	store := memory.New()
	svc := NewService(store, lock.NewMemoryLock(), nil, staticMeetings{})
	svc.now = func() time.Time { return testNow }

	return svc, store
}

func seedSlot(t *testing.T, store *memory.Storage, mentorID string, start time.Time) string {
	t.Helper()

	slots := []*models.TimeSlot{{
		MentorID:    mentorID,
		Start:       start,
		End:         start.Add(30 * time.Minute),
		IsAvailable: true,
	}}
	if _, err := store.CreateSlots(context.Background(), slots); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	listed, err := store.ListSlots(context.Background(), mentorID, start, start.Add(time.Minute))
	if err != nil || len(listed) != 1 {
		t.Fatalf("seed slot lookup: %v (%d slots)", err, len(listed))
	}

	return listed[0].ID
}

func mustSlot(t *testing.T, store *memory.Storage, id string) *models.TimeSlot {
	t.Helper()

	slot, err := store.GetSlot(context.Background(), id)
	if err != nil {
		t.Fatalf("get slot %s: %v", id, err)
	}
	return slot
}

func bookReq(mentorID, slotID string) *api.BookSessionRequest {
	return &api.BookSessionRequest{
		MentorID: mentorID,
		SlotID:   slotID,
		MenteeID: "mentee-a",
		Type:     "one_on_one",
		Topic:    "Resume review",
	}
}

func TestBookSession(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if session.Status != string(models.SessionPending) {
		t.Errorf("status = %s, want pending", session.Status)
	}
	if session.Topic != "Resume review" {
		t.Errorf("topic = %q", session.Topic)
	}
	if session.DisplayState != string(models.DisplayUpcoming) {
		t.Errorf("display = %s, want upcoming", session.DisplayState)
	}
	if session.MeetingURL == nil || *session.MeetingURL == "" {
		t.Error("meeting url not provisioned")
	}

	slot := mustSlot(t, store, slotID)
	if !slot.IsBooked {
		t.Error("slot not marked booked")
	}
	if slot.IsBooked && !slot.IsAvailable {
		t.Error("invariant violated: booked slot must be available")
	}
}

func TestBookSession_AutoConfirmPolicy(t *testing.T) {
	svc, store := newTestService(t)
	svc.SetConfirmPolicy(func(_ context.Context, mentorID string) bool {
		return mentorID == "mentor-1"
	})

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if session.Status != string(models.SessionConfirmed) {
		t.Errorf("status = %s, want confirmed under auto-accept", session.Status)
	}
}

func TestBookSession_Validation(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	tests := []struct {
		name    string
		mutate  func(*api.BookSessionRequest)
		wantErr error
	}{
		{
			name:    "empty topic",
			mutate:  func(r *api.BookSessionRequest) { r.Topic = "   " },
			wantErr: response.ErrValidation,
		},
		{
			name:    "bad type",
			mutate:  func(r *api.BookSessionRequest) { r.Type = "seminar" },
			wantErr: response.ErrValidation,
		},
		{
			name:    "unknown slot",
			mutate:  func(r *api.BookSessionRequest) { r.SlotID = "nope" },
			wantErr: response.ErrNotFound,
		},
		{
			name:    "wrong mentor",
			mutate:  func(r *api.BookSessionRequest) { r.MentorID = "mentor-2" },
			wantErr: response.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookReq("mentor-1", slotID)
			tt.mutate(req)

			_, err := svc.BookSession(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}

			if slot := mustSlot(t, store, slotID); slot.IsBooked {
				t.Error("failed booking must not touch the slot")
			}
		})
	}
}

func TestBookSession_SlotInPast(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(-2*time.Hour))

	_, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if !errors.Is(err, response.ErrSlotInPast) {
		t.Errorf("err = %v, want ErrSlotInPast", err)
	}
}

func TestBookSession_SlotConflict(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	first, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}

	req := bookReq("mentor-1", slotID)
	req.MenteeID = "mentee-b"

	_, err = svc.BookSession(context.Background(), req)
	if !errors.Is(err, response.ErrSlotNotAvailable) {
		t.Errorf("second booking err = %v, want ErrSlotNotAvailable", err)
	}

	// The slot still belongs to the first session.
	got, err := svc.GetSession(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("get first session: %v", err)
	}
	if got.MenteeID != "mentee-a" || got.SlotID != slotID {
		t.Errorf("first session lost its slot: %+v", got)
	}
}

func TestBookSession_BlockedSlot(t *testing.T) {
	svc, store := newTestService(t)
	start := testNow.Add(48 * time.Hour)
	slotID := seedSlot(t, store, "mentor-1", start)

	n, err := svc.BlockAvailability(context.Background(), &api.BlockAvailabilityRequest{
		MentorID: "mentor-1",
		Start:    start.Add(-time.Hour).Format(time.RFC3339),
		End:      start.Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if n != 1 {
		t.Fatalf("blocked %d slots, want 1", n)
	}

	_, err = svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if !errors.Is(err, response.ErrSlotNotAvailable) {
		t.Errorf("err = %v, want ErrSlotNotAvailable", err)
	}
}

// Concurrent bookings race for one slot; exactly one may win.
func TestBookSession_ConcurrentOneWinner(t *testing.T) {
	store := memory.New()
	svc := NewService(store, lock.NewMemoryLock(), nil, nil)
	svc.now = func() time.Time { return testNow }

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	const attempts = 32

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, response.ErrSlotNotAvailable), errors.Is(err, response.ErrLocked):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("%d bookings succeeded, want exactly 1", wins)
	}
}

func TestCancelSession(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	reason := "schedule conflict"
	cancelled, err := svc.CancelSession(context.Background(), session.ID, &reason)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if cancelled.Status != string(models.SessionCancelled) {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != reason {
		t.Errorf("cancel reason not recorded: %v", cancelled.CancelReason)
	}

	if slot := mustSlot(t, store, slotID); slot.IsBooked {
		t.Error("cancel must free the slot")
	}

	// Freed slot is bookable again by someone else.
	req := bookReq("mentor-1", slotID)
	req.MenteeID = "mentee-b"
	if _, err := svc.BookSession(context.Background(), req); err != nil {
		t.Errorf("rebooking freed slot: %v", err)
	}
}

func TestCancelSession_Idempotent(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := svc.CancelSession(context.Background(), session.ID, nil); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	// Rebook the slot, then cancel the old session again: the second
	// cancel must be a no-op and must not steal the slot back.
	req := bookReq("mentor-1", slotID)
	req.MenteeID = "mentee-b"
	if _, err := svc.BookSession(context.Background(), req); err != nil {
		t.Fatalf("rebook: %v", err)
	}

	again, err := svc.CancelSession(context.Background(), session.ID, nil)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if again.Status != string(models.SessionCancelled) {
		t.Errorf("status = %s, want cancelled", again.Status)
	}

	if slot := mustSlot(t, store, slotID); !slot.IsBooked {
		t.Error("repeated cancel must not free a slot owned by another session")
	}
}

func TestCancelSession_Rejected(t *testing.T) {
	svc, store := newTestService(t)

	// A session whose end time is already in the past.
	pastID := seedSlot(t, store, "mentor-1", testNow.Add(-time.Hour))
	sessionID, err := store.CreateSession(context.Background(), &models.Session{
		MentorID: "mentor-1",
		MenteeID: "mentee-a",
		SlotID:   pastID,
		Type:     models.SessionOneOnOne,
		Topic:    "Mock interview",
		Status:   models.SessionConfirmed,
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if _, err := svc.CancelSession(context.Background(), sessionID, nil); !errors.Is(err, response.ErrNotCancellable) {
		t.Errorf("cancel past session err = %v, want ErrNotCancellable", err)
	}

	if _, err := svc.RescheduleSession(context.Background(), sessionID, "whatever"); !errors.Is(err, response.ErrNotReschedulable) {
		t.Errorf("reschedule past session err = %v, want ErrNotReschedulable", err)
	}

	if _, err := svc.CancelSession(context.Background(), "missing", nil); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("cancel missing session err = %v, want ErrNotFound", err)
	}
}

func TestCancelSession_CompletedRejected(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if err := store.UpdateSessionStatus(context.Background(), session.ID, models.SessionCompleted, nil); err != nil {
		t.Fatalf("force complete: %v", err)
	}

	if _, err := svc.CancelSession(context.Background(), session.ID, nil); !errors.Is(err, response.ErrNotCancellable) {
		t.Errorf("err = %v, want ErrNotCancellable", err)
	}
}

func TestRescheduleSession(t *testing.T) {
	svc, store := newTestService(t)
	oldSlotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))
	newStart := testNow.Add(7 * 24 * time.Hour)
	newSlotID := seedSlot(t, store, "mentor-1", newStart)

	booked, err := svc.BookSession(context.Background(), bookReq("mentor-1", oldSlotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.ConfirmSession(context.Background(), booked.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	moved, err := svc.RescheduleSession(context.Background(), booked.ID, newSlotID)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if moved.ID != booked.ID {
		t.Errorf("session identity changed: %s -> %s", booked.ID, moved.ID)
	}
	if moved.Topic != booked.Topic {
		t.Errorf("topic changed: %q -> %q", booked.Topic, moved.Topic)
	}
	if moved.Status != string(models.SessionConfirmed) {
		t.Errorf("status = %s, want confirmed preserved", moved.Status)
	}
	if !moved.Start.Equal(newStart) {
		t.Errorf("start = %v, want %v", moved.Start, newStart)
	}
	if moved.SlotID != newSlotID {
		t.Errorf("slot id = %s, want %s", moved.SlotID, newSlotID)
	}

	if slot := mustSlot(t, store, oldSlotID); slot.IsBooked {
		t.Error("old slot not freed")
	}
	if slot := mustSlot(t, store, newSlotID); !slot.IsBooked {
		t.Error("new slot not booked")
	}
}

func TestRescheduleSession_Failures(t *testing.T) {
	svc, store := newTestService(t)
	oldSlotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	booked, err := svc.BookSession(context.Background(), bookReq("mentor-1", oldSlotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	crossMentorSlot := seedSlot(t, store, "mentor-2", testNow.Add(72*time.Hour))
	pastSlot := seedSlot(t, store, "mentor-1", testNow.Add(-24*time.Hour))

	takenSlot := seedSlot(t, store, "mentor-1", testNow.Add(96*time.Hour))
	takenReq := bookReq("mentor-1", takenSlot)
	takenReq.MenteeID = "mentee-b"
	if _, err := svc.BookSession(context.Background(), takenReq); err != nil {
		t.Fatalf("book taken slot: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		newSlotID string
		wantErr   error
	}{
		{"missing session", "missing", takenSlot, response.ErrNotFound},
		{"missing slot", booked.ID, "missing", response.ErrNotFound},
		{"cross mentor", booked.ID, crossMentorSlot, response.ErrCrossMentorReschedule},
		{"slot in past", booked.ID, pastSlot, response.ErrSlotInPast},
		{"slot taken", booked.ID, takenSlot, response.ErrSlotNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RescheduleSession(context.Background(), tt.sessionID, tt.newSlotID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}

			// Failed reschedule leaves everything as it was.
			if slot := mustSlot(t, store, oldSlotID); !slot.IsBooked {
				t.Error("old slot released by a failed reschedule")
			}
			got, err := svc.GetSession(context.Background(), booked.ID)
			if err != nil {
				t.Fatalf("get session: %v", err)
			}
			if got.SlotID != oldSlotID {
				t.Errorf("session moved to %s by a failed reschedule", got.SlotID)
			}
		})
	}

	// Cancelled sessions cannot be rescheduled.
	if _, err := svc.CancelSession(context.Background(), booked.ID, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	freeSlot := seedSlot(t, store, "mentor-1", testNow.Add(120*time.Hour))
	if _, err := svc.RescheduleSession(context.Background(), booked.ID, freeSlot); !errors.Is(err, response.ErrNotReschedulable) {
		t.Errorf("reschedule cancelled session err = %v, want ErrNotReschedulable", err)
	}
}

func TestConfirmAndCompleteSession(t *testing.T) {
	svc, store := newTestService(t)
	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	booked, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	confirmed, err := svc.ConfirmSession(context.Background(), booked.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != string(models.SessionConfirmed) {
		t.Errorf("status = %s, want confirmed", confirmed.Status)
	}

	// Confirming twice is a state conflict.
	if _, err := svc.ConfirmSession(context.Background(), booked.ID); !errors.Is(err, response.ErrNotConfirmable) {
		t.Errorf("double confirm err = %v, want ErrNotConfirmable", err)
	}

	// Completion requires the session to have started.
	if _, err := svc.CompleteSession(context.Background(), booked.ID, nil); !errors.Is(err, response.ErrNotCompletable) {
		t.Errorf("early complete err = %v, want ErrNotCompletable", err)
	}

	svc.now = func() time.Time { return testNow.Add(49 * time.Hour) }

	notes := "covered system design basics"
	completed, err := svc.CompleteSession(context.Background(), booked.ID, &notes)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != string(models.SessionCompleted) {
		t.Errorf("status = %s, want completed", completed.Status)
	}
	if completed.Notes == nil || *completed.Notes != notes {
		t.Errorf("notes not recorded: %v", completed.Notes)
	}

	// Terminal state: no further transitions.
	if _, err := svc.CompleteSession(context.Background(), booked.ID, nil); !errors.Is(err, response.ErrNotCompletable) {
		t.Errorf("double complete err = %v, want ErrNotCompletable", err)
	}
}

func TestListSessions_Filters(t *testing.T) {
	svc, store := newTestService(t)

	pastSlot := seedSlot(t, store, "mentor-1", testNow.Add(-48*time.Hour))
	if _, err := store.CreateSession(context.Background(), &models.Session{
		MentorID: "mentor-1",
		MenteeID: "mentee-a",
		SlotID:   pastSlot,
		Type:     models.SessionOneOnOne,
		Topic:    "Old session",
		Status:   models.SessionCompleted,
	}); err != nil {
		t.Fatalf("seed past session: %v", err)
	}

	futureSlot := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))
	if _, err := svc.BookSession(context.Background(), bookReq("mentor-1", futureSlot)); err != nil {
		t.Fatalf("book future: %v", err)
	}

	upcoming, err := svc.ListSessions(context.Background(), "mentee-a", "upcoming")
	if err != nil {
		t.Fatalf("list upcoming: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Topic != "Resume review" {
		t.Errorf("upcoming = %+v, want the future session only", upcoming)
	}

	past, err := svc.ListSessions(context.Background(), "mentee-a", "past")
	if err != nil {
		t.Fatalf("list past: %v", err)
	}
	if len(past) != 1 || past[0].Topic != "Old session" {
		t.Errorf("past = %+v, want the old session only", past)
	}
	if past[0].DisplayState != string(models.DisplayPast) {
		t.Errorf("display = %s, want past", past[0].DisplayState)
	}

	all, err := svc.ListSessions(context.Background(), "mentee-a", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d sessions, want 2", len(all))
	}

	if _, err := svc.ListSessions(context.Background(), "mentee-a", "bogus"); !errors.Is(err, response.ErrValidation) {
		t.Errorf("bogus filter err = %v, want ErrValidation", err)
	}
}

func TestGetAvailability_GroupedByDate(t *testing.T) {
	svc, store := newTestService(t)

	day1 := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC)
	seedSlot(t, store, "mentor-1", day1.Add(9*time.Hour))
	seedSlot(t, store, "mentor-1", day1.Add(10*time.Hour))
	seedSlot(t, store, "mentor-1", day2.Add(9*time.Hour))
	seedSlot(t, store, "mentor-2", day1.Add(9*time.Hour))

	days, err := svc.GetAvailability(context.Background(), "mentor-1", day1, day2)
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date != "2025-03-12" || len(days[0].Slots) != 2 {
		t.Errorf("day[0] = %s with %d slots, want 2025-03-12 with 2", days[0].Date, len(days[0].Slots))
	}
	if days[1].Date != "2025-03-13" || len(days[1].Slots) != 1 {
		t.Errorf("day[1] = %s with %d slots, want 2025-03-13 with 1", days[1].Date, len(days[1].Slots))
	}
}

func TestPublishAvailability(t *testing.T) {
	svc, store := newTestService(t)

	// Mon 2025-03-10 .. Sun 2025-03-16, Mon+Wed, 09:00-11:00, 30 min.
	created, err := svc.PublishAvailability(context.Background(), &api.PublishAvailabilityRequest{
		MentorID:            "mentor-1",
		StartDate:           "2025-03-10",
		EndDate:             "2025-03-16",
		Days:                []string{"mon", "wed"},
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if created != 8 {
		t.Errorf("created %d slots, want 8 (2 days x 4)", created)
	}

	// Republish is idempotent per (mentor, start).
	again, err := svc.PublishAvailability(context.Background(), &api.PublishAvailabilityRequest{
		MentorID:            "mentor-1",
		StartDate:           "2025-03-10",
		EndDate:             "2025-03-16",
		Days:                []string{"mon", "wed"},
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if again != 0 {
		t.Errorf("republish created %d slots, want 0", again)
	}

	slots, err := store.ListSlots(context.Background(),
		"mentor-1",
		time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	for _, slot := range slots {
		if !slot.IsAvailable || slot.IsBooked {
			t.Errorf("published slot %s not free: %+v", slot.ID, slot)
		}
		if slot.End.Sub(slot.Start) != 30*time.Minute {
			t.Errorf("slot %s duration = %v", slot.ID, slot.End.Sub(slot.Start))
		}
	}
}

func TestGetCalendar_Indicators(t *testing.T) {
	svc, store := newTestService(t)

	openStart := testNow.Add(2 * 24 * time.Hour) // 2025-03-12
	seedSlot(t, store, "mentor-1", openStart)

	bookedStart := testNow.Add(5 * 24 * time.Hour) // 2025-03-15
	bookedID := seedSlot(t, store, "mentor-1", bookedStart)
	if _, err := svc.BookSession(context.Background(), bookReq("mentor-1", bookedID)); err != nil {
		t.Fatalf("book: %v", err)
	}

	grid, err := svc.GetCalendar(context.Background(), "mentor-1", 2025, time.March)
	if err != nil {
		t.Fatalf("get calendar: %v", err)
	}

	if len(grid)%7 != 0 {
		t.Errorf("grid length %d not a multiple of 7", len(grid))
	}

	byDate := make(map[string]api.CalendarDayResponse)
	for _, day := range grid {
		byDate[day.Date] = day
	}

	if !byDate["2025-03-12"].HasOpenSlot {
		t.Error("2025-03-12 should show an open slot")
	}
	if !byDate["2025-03-15"].HasSession {
		t.Error("2025-03-15 should show a session")
	}
	// A fully booked day has no open-slot indicator.
	if byDate["2025-03-15"].HasOpenSlot {
		t.Error("2025-03-15 has no free slot left")
	}
	if byDate["2025-03-09"].Selectable {
		t.Error("yesterday must not be selectable")
	}
}

func TestNotifications(t *testing.T) {
	store := memory.New()
	rec := &recordingDispatcher{}
	svc := NewService(store, lock.NewMemoryLock(), rec, nil)
	svc.now = func() time.Time { return testNow }

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.CancelSession(context.Background(), session.ID, nil); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Dispatch is asynchronous.
	deadline := time.After(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.events)
		rec.mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("got %d events, want 2", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	kinds := map[notify.EventKind]bool{}
	for _, e := range rec.events {
		kinds[e.Kind] = true
	}
	if !kinds[notify.EventBooked] || !kinds[notify.EventCancelled] {
		t.Errorf("event kinds = %v, want booked and cancelled", kinds)
	}
}

// A broken dispatcher must not fail the scheduling operation.
func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	store := memory.New()
	svc := NewService(store, lock.NewMemoryLock(), failingDispatcher{}, nil)
	svc.now = func() time.Time { return testNow }

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if slot := mustSlot(t, store, slotID); !slot.IsBooked {
		t.Error("slot not booked despite dispatcher failure")
	}
	if session.Status != string(models.SessionPending) {
		t.Errorf("status = %s, want pending", session.Status)
	}
}

func TestGoals(t *testing.T) {
	svc, _ := newTestService(t)

	goal, err := svc.CreateGoal(context.Background(), &api.GoalRequest{
		MentorID:   "mentor-1",
		MenteeID:   "mentee-a",
		Title:      "Land a backend role",
		Milestones: []string{"Update resume", "Three mock interviews", "Apply to ten companies"},
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if goal.Completion != 0 {
		t.Errorf("completion = %v, want 0", goal.Completion)
	}

	updated, err := svc.SetMilestone(context.Background(), goal.ID, 1, true)
	if err != nil {
		t.Fatalf("set milestone: %v", err)
	}
	if updated.Completion < 0.33 || updated.Completion > 0.34 {
		t.Errorf("completion = %v, want 1/3", updated.Completion)
	}
	if !updated.Milestones[1].Done {
		t.Error("milestone 1 not marked done")
	}

	goals, err := svc.ListGoals(context.Background(), "mentor-1", "mentee-a")
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 {
		t.Errorf("got %d goals, want 1", len(goals))
	}

	if _, err := svc.SetMilestone(context.Background(), goal.ID, 9, true); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("out-of-range milestone err = %v, want ErrNotFound", err)
	}
}

// raceStore delegates to the memory store and lets a test interleave a
// competing transition between the service's precondition reads and the
// store commit.
type raceStore struct {
	*memory.Storage

	beforeReschedule   func()
	beforeCancel       func()
	beforeStatusUpdate func()
}

func (r *raceStore) RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*models.Session, error) {
	if r.beforeReschedule != nil {
		r.beforeReschedule()
	}
	return r.Storage.RescheduleSession(ctx, sessionID, newSlotID)
}

func (r *raceStore) CancelSession(ctx context.Context, sessionID string, reason *string) error {
	if r.beforeCancel != nil {
		r.beforeCancel()
	}
	return r.Storage.CancelSession(ctx, sessionID, reason)
}

func (r *raceStore) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus, notes *string) error {
	if r.beforeStatusUpdate != nil {
		r.beforeStatusUpdate()
	}
	return r.Storage.UpdateSessionStatus(ctx, id, status, notes)
}

func newRaceService(t *testing.T) (*Service, *raceStore, *memory.Storage) {
	t.Helper()

	store := memory.New()
	rs := &raceStore{Storage: store}
	svc := NewService(rs, lock.NewMemoryLock(), nil, staticMeetings{})
	svc.now = func() time.Time { return testNow }

	return svc, rs, store
}

func TestRescheduleSession_CancelledBetweenCheckAndCommit(t *testing.T) {
	svc, rs, store := newRaceService(t)

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(24*time.Hour))
	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	newSlotID := seedSlot(t, store, "mentor-1", testNow.Add(48*time.Hour))

	rs.beforeReschedule = func() {
		if err := store.CancelSession(context.Background(), session.ID, nil); err != nil {
			t.Fatalf("interleaved cancel: %v", err)
		}
	}

	if _, err := svc.RescheduleSession(context.Background(), session.ID, newSlotID); !errors.Is(err, response.ErrNotReschedulable) {
		t.Fatalf("err = %v, want ErrNotReschedulable", err)
	}

	if mustSlot(t, store, newSlotID).IsBooked {
		t.Error("new slot booked for a cancelled session")
	}
	if mustSlot(t, store, slotID).IsBooked {
		t.Error("old slot still booked after cancel")
	}

	got, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != string(models.SessionCancelled) {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if got.SlotID != slotID {
		t.Errorf("slot_id = %s, want the original %s", got.SlotID, slotID)
	}
}

func TestCancelSession_CompletedBetweenCheckAndCommit(t *testing.T) {
	svc, rs, store := newRaceService(t)

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(24*time.Hour))
	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	rs.beforeCancel = func() {
		if err := store.UpdateSessionStatus(context.Background(), session.ID, models.SessionCompleted, nil); err != nil {
			t.Fatalf("interleaved complete: %v", err)
		}
	}

	if _, err := svc.CancelSession(context.Background(), session.ID, nil); !errors.Is(err, response.ErrNotCancellable) {
		t.Fatalf("err = %v, want ErrNotCancellable", err)
	}

	got, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != string(models.SessionCompleted) {
		t.Errorf("status = %s, want completed to stand", got.Status)
	}
}

func TestCancelSession_ConcurrentCancelStaysIdempotent(t *testing.T) {
	svc, rs, store := newRaceService(t)

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(24*time.Hour))
	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	reason := "mentee asked first"
	rs.beforeCancel = func() {
		if err := store.CancelSession(context.Background(), session.ID, &reason); err != nil {
			t.Fatalf("interleaved cancel: %v", err)
		}
	}

	got, err := svc.CancelSession(context.Background(), session.ID, nil)
	if err != nil {
		t.Fatalf("losing a race to another cancel must stay idempotent: %v", err)
	}
	if got.Status != string(models.SessionCancelled) {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if got.CancelReason == nil || *got.CancelReason != reason {
		t.Errorf("cancel_reason = %v, want the first cancel's reason", got.CancelReason)
	}
}

func TestConfirmSession_CancelledBetweenCheckAndCommit(t *testing.T) {
	svc, rs, store := newRaceService(t)

	slotID := seedSlot(t, store, "mentor-1", testNow.Add(24*time.Hour))
	session, err := svc.BookSession(context.Background(), bookReq("mentor-1", slotID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	rs.beforeStatusUpdate = func() {
		if err := store.CancelSession(context.Background(), session.ID, nil); err != nil {
			t.Fatalf("interleaved cancel: %v", err)
		}
	}

	if _, err := svc.ConfirmSession(context.Background(), session.ID); !errors.Is(err, response.ErrNotConfirmable) {
		t.Fatalf("err = %v, want ErrNotConfirmable", err)
	}

	got, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != string(models.SessionCancelled) {
		t.Errorf("status = %s, want cancelled to stand", got.Status)
	}
}
