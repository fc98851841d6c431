package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mentorship-service/internal/models"
	"mentorship-service/pkg/response"

	"github.com/google/uuid"
)

// Storage is a mutex-guarded in-memory store. It backs the service tests
// and DB-less local runs; every multi-step mutation happens under one lock,
// so it gives the same atomicity guarantees as the Postgres transactions.
type Storage struct {
	mu       sync.RWMutex
	slots    map[string]*models.TimeSlot
	sessions map[string]*models.Session
	goals    map[string]*models.Goal
}

func New() *Storage {
	return &Storage{
		slots:    make(map[string]*models.TimeSlot),
		sessions: make(map[string]*models.Session),
		goals:    make(map[string]*models.Goal),
	}
}

// Slots

func (s *Storage) GetSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	const op = "storage.memory.GetSlot"

	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	cp := *slot
	return &cp, nil
}

func (s *Storage) ListSlots(ctx context.Context, mentorID string, from, to time.Time) ([]*models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.TimeSlot
	for _, slot := range s.slots {
		if slot.MentorID != mentorID {
			continue
		}
		if slot.Start.Before(from) || !slot.Start.Before(to) {
			continue
		}
		cp := *slot
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})

	return result, nil
}

func (s *Storage) CreateSlots(ctx context.Context, slots []*models.TimeSlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	starts := make(map[string]bool)
	for _, existing := range s.slots {
		starts[existing.MentorID+"|"+existing.Start.UTC().Format(time.RFC3339)] = true
	}

	created := 0
	for _, slot := range slots {
		key := slot.MentorID + "|" + slot.Start.UTC().Format(time.RFC3339)
		if starts[key] {
			continue
		}
		starts[key] = true

		cp := *slot
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		s.slots[cp.ID] = &cp
		created++
	}

	return created, nil
}

func (s *Storage) BlockSlots(ctx context.Context, mentorID string, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocked := 0
	for _, slot := range s.slots {
		if slot.MentorID != mentorID || slot.IsBooked || !slot.IsAvailable {
			continue
		}
		if slot.Start.Before(to) && slot.End.After(from) {
			slot.IsAvailable = false
			blocked++
		}
	}

	return blocked, nil
}

// Sessions

// CreateSession flips the slot to booked and inserts the session as one
// step. Exactly one concurrent caller can win the slot.
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) (string, error) {
	const op = "storage.memory.CreateSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[session.SlotID]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	if !slot.IsAvailable || slot.IsBooked {
		return "", fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	slot.IsBooked = true

	cp := *session
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.Start = slot.Start
	cp.End = slot.End
	s.sessions[cp.ID] = &cp

	return cp.ID, nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.memory.GetSession"

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	cp := *session
	return &cp, nil
}

func (s *Storage) ListSessions(ctx context.Context, userID string, from, to *time.Time) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Session
	for _, session := range s.sessions {
		if session.MentorID != userID && session.MenteeID != userID {
			continue
		}
		if from != nil && session.End.Before(*from) {
			continue
		}
		if to != nil && !session.End.Before(*to) {
			continue
		}
		cp := *session
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})

	return result, nil
}

func (s *Storage) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus, notes *string) error {
	const op = "storage.memory.UpdateSessionStatus"

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	// Terminal states win whichever transition committed first.
	if session.Status.Terminal() {
		return fmt.Errorf("%s: status %s: %w", op, session.Status, response.ErrConflict)
	}

	session.Status = status
	if notes != nil {
		session.Notes = notes
	}

	return nil
}

// RescheduleSession releases the old slot, books the new one and rewrites
// the session times under a single lock. The session status is re-checked
// under the same lock; nothing changes on failure.
func (s *Storage) RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*models.Session, error) {
	const op = "storage.memory.RescheduleSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	if session.Status != models.SessionPending && session.Status != models.SessionConfirmed {
		return nil, fmt.Errorf("%s: status %s: %w", op, session.Status, response.ErrNotReschedulable)
	}

	newSlot, ok := s.slots[newSlotID]
	if !ok {
		return nil, fmt.Errorf("%s: new slot: %w", op, response.ErrNotFound)
	}
	if !newSlot.IsAvailable || newSlot.IsBooked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	if oldSlot, ok := s.slots[session.SlotID]; ok {
		oldSlot.IsBooked = false
	}

	newSlot.IsBooked = true
	session.SlotID = newSlot.ID
	session.Start = newSlot.Start
	session.End = newSlot.End

	cp := *session
	return &cp, nil
}

func (s *Storage) CancelSession(ctx context.Context, sessionID string, reason *string) error {
	const op = "storage.memory.CancelSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	if session.Status.Terminal() {
		return fmt.Errorf("%s: status %s: %w", op, session.Status, response.ErrNotCancellable)
	}

	session.Status = models.SessionCancelled
	session.CancelReason = reason

	if slot, ok := s.slots[session.SlotID]; ok {
		slot.IsBooked = false
	}

	return nil
}

// Goals

func (s *Storage) CreateGoal(ctx context.Context, goal *models.Goal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *goal
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.Milestones = append([]models.Milestone(nil), goal.Milestones...)
	s.goals[cp.ID] = &cp

	return cp.ID, nil
}

func (s *Storage) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	const op = "storage.memory.GetGoal"

	s.mu.RLock()
	defer s.mu.RUnlock()

	goal, ok := s.goals[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	cp := *goal
	cp.Milestones = append([]models.Milestone(nil), goal.Milestones...)
	return &cp, nil
}

func (s *Storage) ListGoals(ctx context.Context, mentorID, menteeID string) ([]*models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Goal
	for _, goal := range s.goals {
		if goal.MentorID != mentorID || goal.MenteeID != menteeID {
			continue
		}
		cp := *goal
		cp.Milestones = append([]models.Milestone(nil), goal.Milestones...)
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (s *Storage) SetMilestoneDone(ctx context.Context, goalID string, index int, done bool) (*models.Goal, error) {
	const op = "storage.memory.SetMilestoneDone"

	s.mu.Lock()
	defer s.mu.Unlock()

	goal, ok := s.goals[goalID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	if index < 0 || index >= len(goal.Milestones) {
		return nil, fmt.Errorf("%s: milestone %d: %w", op, index, response.ErrNotFound)
	}

	goal.Milestones[index].Done = done

	cp := *goal
	cp.Milestones = append([]models.Milestone(nil), goal.Milestones...)
	return &cp, nil
}

func (s *Storage) Close() error {
	return nil
}
