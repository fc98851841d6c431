package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mentorship-service/api"
	"mentorship-service/internal/calendar"
	"mentorship-service/internal/lock"
	"mentorship-service/internal/meeting"
	"mentorship-service/internal/models"
	"mentorship-service/internal/notify"
	"mentorship-service/pkg/response"
)

// Clock supplies "now". Injected so temporal checks and display states are
// deterministic in tests.
type Clock func() time.Time

// ConfirmPolicy decides whether a mentor auto-accepts bookings: true means
// a new session starts out confirmed instead of pending.
type ConfirmPolicy func(ctx context.Context, mentorID string) bool

type Service struct {
	store    Store
	locker   lock.Locker
	notifier notify.Dispatcher
	meetings meeting.Provisioner

	now           Clock
	confirmPolicy ConfirmPolicy
}

func NewService(store Store, locker lock.Locker, notifier notify.Dispatcher, meetings meeting.Provisioner) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		notifier: notifier,
		meetings: meetings,
		now:      time.Now,
	}
}

// SetConfirmPolicy installs the auto-accept hook. Without one every booking
// starts out pending.
func (s *Service) SetConfirmPolicy(policy ConfirmPolicy) {
	s.confirmPolicy = policy
}

type Store interface {
	// Slots
	GetSlot(ctx context.Context, id string) (*models.TimeSlot, error)
	ListSlots(ctx context.Context, mentorID string, from, to time.Time) ([]*models.TimeSlot, error)
	CreateSlots(ctx context.Context, slots []*models.TimeSlot) (int, error)
	BlockSlots(ctx context.Context, mentorID string, from, to time.Time) (int, error)

	// Sessions. CreateSession, RescheduleSession and CancelSession are
	// atomic: the slot check-and-set and the session write land together
	// or not at all.
	CreateSession(ctx context.Context, session *models.Session) (string, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, userID string, from, to *time.Time) ([]*models.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus, notes *string) error
	RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*models.Session, error)
	CancelSession(ctx context.Context, sessionID string, reason *string) error

	// Goals
	CreateGoal(ctx context.Context, goal *models.Goal) (string, error)
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	ListGoals(ctx context.Context, mentorID, menteeID string) ([]*models.Goal, error)
	SetMilestoneDone(ctx context.Context, goalID string, index int, done bool) (*models.Goal, error)
}

const slotLockTTL = 10 * time.Second

// Availability

func (s *Service) GetAvailability(ctx context.Context, mentorID string, from, to time.Time) ([]*api.DayAvailabilityResponse, error) {
	const op = "service.GetAvailability"

	if to.Before(from) {
		return nil, fmt.Errorf("%s: to is before from: %w", op, response.ErrValidation)
	}

	// "to" is an inclusive date.
	slots, err := s.store.ListSlots(ctx, mentorID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var days []*api.DayAvailabilityResponse
	byDate := make(map[string]*api.DayAvailabilityResponse)

	for _, slot := range slots {
		key := slot.Start.Format(calendar.DateKey)
		day, ok := byDate[key]
		if !ok {
			day = &api.DayAvailabilityResponse{Date: key}
			byDate[key] = day
			days = append(days, day)
		}
		day.Slots = append(day.Slots, toSlotResponse(slot))
	}

	return days, nil
}

func (s *Service) GetCalendar(ctx context.Context, mentorID string, year int, month time.Month) ([]api.CalendarDayResponse, error) {
	const op = "service.GetCalendar"

	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%s: invalid month %d: %w", op, month, response.ErrValidation)
	}

	now := s.now()

	// Superset of the padded grid range; extra dates in the indicator maps
	// are harmless.
	from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -7)
	to := time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 7)

	slots, err := s.store.ListSlots(ctx, mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sessions, err := s.store.ListSessions(ctx, mentorID, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	openSlotDates := make(map[string]bool)
	for _, slot := range slots {
		if slot.Bookable(now) {
			openSlotDates[slot.Start.Format(calendar.DateKey)] = true
		}
	}

	sessionDates := make(map[string]bool)
	for _, session := range sessions {
		if session.Status == models.SessionPending || session.Status == models.SessionConfirmed {
			sessionDates[session.Start.Format(calendar.DateKey)] = true
		}
	}

	grid := calendar.MonthGrid(year, month, now, openSlotDates, sessionDates)

	result := make([]api.CalendarDayResponse, 0, len(grid))
	for _, day := range grid {
		result = append(result, api.CalendarDayResponse{
			Date:        day.Date.Format(calendar.DateKey),
			InMonth:     day.InMonth,
			Selectable:  day.Selectable,
			HasOpenSlot: day.HasOpenSlot,
			HasSession:  day.HasSession,
		})
	}

	return result, nil
}

func (s *Service) PublishAvailability(ctx context.Context, req *api.PublishAvailabilityRequest) (int, error) {
	const op = "service.PublishAvailability"

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid start_date: %w", op, response.ErrValidation)
	}

	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid end_date: %w", op, response.ErrValidation)
	}

	if endDate.Before(startDate) {
		return 0, fmt.Errorf("%s: end_date is before start_date: %w", op, response.ErrValidation)
	}

	startTime, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrValidation)
	}

	endTime, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid end_time: %w", op, response.ErrValidation)
	}

	slotDur := time.Duration(req.SlotDurationMinutes) * time.Minute
	if slotDur <= 0 {
		return 0, fmt.Errorf("%s: invalid slot duration: %w", op, response.ErrValidation)
	}

	allowed := map[time.Weekday]struct{}{}
	for _, d := range req.Days {
		wd, ok := parseWeekday(d)
		if !ok {
			return 0, fmt.Errorf("%s: invalid weekday %q: %w", op, d, response.ErrValidation)
		}
		allowed[wd] = struct{}{}
	}
	if len(allowed) == 0 {
		return 0, fmt.Errorf("%s: days is empty: %w", op, response.ErrValidation)
	}

	loc := s.now().Location()

	var slots []*models.TimeSlot
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		if _, ok := allowed[d.Weekday()]; !ok {
			continue
		}

		dayStart := time.Date(d.Year(), d.Month(), d.Day(), startTime.Hour(), startTime.Minute(), 0, 0, loc)
		dayEnd := time.Date(d.Year(), d.Month(), d.Day(), endTime.Hour(), endTime.Minute(), 0, 0, loc)

		if !dayEnd.After(dayStart) {
			continue
		}

		for cur := dayStart; !cur.Add(slotDur).After(dayEnd); cur = cur.Add(slotDur) {
			slots = append(slots, &models.TimeSlot{
				MentorID:    req.MentorID,
				Start:       cur,
				End:         cur.Add(slotDur),
				IsAvailable: true,
			})
		}
	}

	created, err := s.store.CreateSlots(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Service) BlockAvailability(ctx context.Context, req *api.BlockAvailabilityRequest) (int, error) {
	const op = "service.BlockAvailability"

	from, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid start: %w", op, response.ErrValidation)
	}

	to, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid end: %w", op, response.ErrValidation)
	}

	if !to.After(from) {
		return 0, fmt.Errorf("%s: end is not after start: %w", op, response.ErrValidation)
	}

	blocked, err := s.store.BlockSlots(ctx, req.MentorID, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return blocked, nil
}

// Sessions

func (s *Service) BookSession(ctx context.Context, req *api.BookSessionRequest) (*api.SessionResponse, error) {
	const op = "service.BookSession"

	if strings.TrimSpace(req.Topic) == "" {
		return nil, fmt.Errorf("%s: topic is empty: %w", op, response.ErrValidation)
	}

	sessionType := models.SessionType(req.Type)
	if !sessionType.Valid() {
		return nil, fmt.Errorf("%s: invalid session type %q: %w", op, req.Type, response.ErrValidation)
	}

	lockKey := fmt.Sprintf("slot:%s", req.SlotID)

	locked, err := s.locker.Lock(ctx, lockKey, slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	// Re-read the slot from the store right before committing; a cached
	// slot list on the caller's side is advisory only.
	slot, err := s.store.GetSlot(ctx, req.SlotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if slot.MentorID != req.MentorID {
		return nil, fmt.Errorf("%s: slot belongs to another mentor: %w", op, response.ErrNotFound)
	}

	now := s.now()
	if !slot.Start.After(now) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotInPast)
	}
	if !slot.IsAvailable || slot.IsBooked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	status := models.SessionPending
	if s.confirmPolicy != nil && s.confirmPolicy(ctx, req.MentorID) {
		status = models.SessionConfirmed
	}

	session := &models.Session{
		MentorID:    req.MentorID,
		MenteeID:    req.MenteeID,
		SlotID:      req.SlotID,
		Type:        sessionType,
		Topic:       strings.TrimSpace(req.Topic),
		Description: req.Description,
		Start:       slot.Start,
		End:         slot.End,
		Status:      status,
		CreatedAt:   now,
	}

	if s.meetings != nil {
		url, err := s.meetings.MeetingURL(ctx, req.SlotID)
		if err != nil {
			return nil, fmt.Errorf("%s: provision meeting url: %w", op, err)
		}
		session.MeetingURL = &url
	}

	id, err := s.store.CreateSession(ctx, session)
	if err != nil {
		if errors.Is(err, response.ErrSlotNotAvailable) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.dispatch(notify.Event{
		Kind:      notify.EventBooked,
		SessionID: id,
		MentorID:  req.MentorID,
		MenteeID:  req.MenteeID,
		Topic:     session.Topic,
	})

	return s.GetSession(ctx, id)
}

func (s *Service) GetSession(ctx context.Context, id string) (*api.SessionResponse, error) {
	const op = "service.GetSession"

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.toSessionResponse(session), nil
}

// ListSessions returns the user's sessions (as mentor or mentee). Filter is
// "upcoming", "past" or empty for everything.
func (s *Service) ListSessions(ctx context.Context, userID, filter string) ([]*api.SessionResponse, error) {
	const op = "service.ListSessions"

	now := s.now()

	var from, to *time.Time
	switch filter {
	case "":
	case "upcoming":
		from = &now
	case "past":
		to = &now
	default:
		return nil, fmt.Errorf("%s: unknown filter %q: %w", op, filter, response.ErrValidation)
	}

	sessions, err := s.store.ListSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, s.toSessionResponse(session))
	}

	return result, nil
}

// CancelSession is idempotent: cancelling an already-cancelled session
// returns the terminal state without touching the slot again.
func (s *Service) CancelSession(ctx context.Context, sessionID string, reason *string) (*api.SessionResponse, error) {
	const op = "service.CancelSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.Status == models.SessionCancelled {
		return s.toSessionResponse(session), nil
	}

	if session.Status == models.SessionCompleted {
		return nil, fmt.Errorf("%s: session completed: %w", op, response.ErrNotCancellable)
	}

	if session.End.Before(s.now()) {
		return nil, fmt.Errorf("%s: session is in the past: %w", op, response.ErrNotCancellable)
	}

	if err := s.store.CancelSession(ctx, sessionID, reason); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		if errors.Is(err, response.ErrNotCancellable) {
			// The session went terminal between our read and the store's
			// write. A concurrent cancel keeps this idempotent; anything
			// else is a real conflict.
			current, gerr := s.store.GetSession(ctx, sessionID)
			if gerr == nil && current.Status == models.SessionCancelled {
				return s.toSessionResponse(current), nil
			}
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotCancellable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.dispatch(notify.Event{
		Kind:      notify.EventCancelled,
		SessionID: session.ID,
		MentorID:  session.MentorID,
		MenteeID:  session.MenteeID,
		Topic:     session.Topic,
	})

	return s.GetSession(ctx, sessionID)
}

func (s *Service) RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*api.SessionResponse, error) {
	const op = "service.RescheduleSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if !session.Reschedulable(now) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotReschedulable)
	}

	newSlot, err := s.store.GetSlot(ctx, newSlotID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: new slot: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Moving to another mentor's slot is a new booking, not a reschedule.
	if newSlot.MentorID != session.MentorID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrCrossMentorReschedule)
	}

	if !newSlot.Start.After(now) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotInPast)
	}
	if !newSlot.IsAvailable || newSlot.IsBooked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	lockKey := fmt.Sprintf("slot:%s", newSlotID)

	locked, err := s.locker.Lock(ctx, lockKey, slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	updated, err := s.store.RescheduleSession(ctx, sessionID, newSlotID)
	if err != nil {
		if errors.Is(err, response.ErrSlotNotAvailable) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		if errors.Is(err, response.ErrNotReschedulable) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotReschedulable)
		}
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.dispatch(notify.Event{
		Kind:      notify.EventRescheduled,
		SessionID: updated.ID,
		MentorID:  updated.MentorID,
		MenteeID:  updated.MenteeID,
		Topic:     updated.Topic,
	})

	return s.toSessionResponse(updated), nil
}

func (s *Service) ConfirmSession(ctx context.Context, sessionID string) (*api.SessionResponse, error) {
	const op = "service.ConfirmSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !session.Status.CanTransitionTo(models.SessionConfirmed) {
		return nil, fmt.Errorf("%s: status %s: %w", op, session.Status, response.ErrNotConfirmable)
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, models.SessionConfirmed, nil); err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotConfirmable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.dispatch(notify.Event{
		Kind:      notify.EventConfirmed,
		SessionID: session.ID,
		MentorID:  session.MentorID,
		MenteeID:  session.MenteeID,
		Topic:     session.Topic,
	})

	return s.GetSession(ctx, sessionID)
}

// CompleteSession closes out a session that has started. Allowed from
// pending too: the pair may have met even if the mentor never pressed
// confirm.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, notes *string) (*api.SessionResponse, error) {
	const op = "service.CompleteSession"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !session.Status.CanTransitionTo(models.SessionCompleted) {
		return nil, fmt.Errorf("%s: status %s: %w", op, session.Status, response.ErrNotCompletable)
	}

	if session.Start.After(s.now()) {
		return nil, fmt.Errorf("%s: session has not started: %w", op, response.ErrNotCompletable)
	}

	if err := s.store.UpdateSessionStatus(ctx, sessionID, models.SessionCompleted, notes); err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotCompletable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.dispatch(notify.Event{
		Kind:      notify.EventCompleted,
		SessionID: session.ID,
		MentorID:  session.MentorID,
		MenteeID:  session.MenteeID,
		Topic:     session.Topic,
	})

	return s.GetSession(ctx, sessionID)
}

// Goals

func (s *Service) CreateGoal(ctx context.Context, req *api.GoalRequest) (*api.GoalResponse, error) {
	const op = "service.CreateGoal"

	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%s: title is empty: %w", op, response.ErrValidation)
	}

	goal := &models.Goal{
		MentorID:  req.MentorID,
		MenteeID:  req.MenteeID,
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: s.now(),
	}
	for _, title := range req.Milestones {
		goal.Milestones = append(goal.Milestones, models.Milestone{Title: title})
	}

	id, err := s.store.CreateGoal(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toGoalResponse(created), nil
}

func (s *Service) ListGoals(ctx context.Context, mentorID, menteeID string) ([]*api.GoalResponse, error) {
	const op = "service.ListGoals"

	goals, err := s.store.ListGoals(ctx, mentorID, menteeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.GoalResponse, 0, len(goals))
	for _, goal := range goals {
		result = append(result, toGoalResponse(goal))
	}

	return result, nil
}

func (s *Service) SetMilestone(ctx context.Context, goalID string, index int, done bool) (*api.GoalResponse, error) {
	const op = "service.SetMilestone"

	goal, err := s.store.SetMilestoneDone(ctx, goalID, index, done)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toGoalResponse(goal), nil
}

// helpers

// dispatch fires the notification in the background. A slow or failing
// dispatcher must never delay or roll back the scheduling operation.
func (s *Service) dispatch(event notify.Event) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = s.notifier.Dispatch(ctx, event)
	}()
}

func (s *Service) toSessionResponse(session *models.Session) *api.SessionResponse {
	return &api.SessionResponse{
		ID:           session.ID,
		MentorID:     session.MentorID,
		MenteeID:     session.MenteeID,
		SlotID:       session.SlotID,
		Type:         string(session.Type),
		Topic:        session.Topic,
		Description:  session.Description,
		Start:        session.Start,
		End:          session.End,
		Status:       string(session.Status),
		DisplayState: string(session.Display(s.now())),
		MeetingURL:   session.MeetingURL,
		Notes:        session.Notes,
		CancelReason: session.CancelReason,
	}
}

func toSlotResponse(slot *models.TimeSlot) api.SlotResponse {
	return api.SlotResponse{
		ID:          slot.ID,
		MentorID:    slot.MentorID,
		Start:       slot.Start,
		End:         slot.End,
		IsAvailable: slot.IsAvailable,
		IsBooked:    slot.IsBooked,
	}
}

func toGoalResponse(goal *models.Goal) *api.GoalResponse {
	resp := &api.GoalResponse{
		ID:         goal.ID,
		MentorID:   goal.MentorID,
		MenteeID:   goal.MenteeID,
		Title:      goal.Title,
		Completion: goal.Completion(),
	}
	for _, m := range goal.Milestones {
		resp.Milestones = append(resp.Milestones, api.MilestoneResponse{Title: m.Title, Done: m.Done})
	}

	return resp
}

// parseWeekday accepts names ("mon", "monday") and numbers (0=Sunday, or
// 1..7 with 7=Sunday), the formats the portal front end sends.
func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}
