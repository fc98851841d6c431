package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentorship-service/internal/models"
	"mentorship-service/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// #### slots ####

func (s *Storage) GetSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	const op = "storage.postgres.GetSlot"

	var slot models.TimeSlot

	err := s.db.QueryRowContext(ctx,
		`SELECT id, mentor_id, start_at, end_at, is_available, is_booked
		FROM time_slots WHERE id=$1`, id).
		Scan(&slot.ID, &slot.MentorID, &slot.Start, &slot.End, &slot.IsAvailable, &slot.IsBooked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &slot, nil
}

func (s *Storage) ListSlots(ctx context.Context, mentorID string, from, to time.Time) ([]*models.TimeSlot, error) {
	const op = "storage.postgres.ListSlots"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mentor_id, start_at, end_at, is_available, is_booked
		FROM time_slots
		WHERE mentor_id=$1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at`, mentorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var slots []*models.TimeSlot
	for rows.Next() {
		var slot models.TimeSlot
		err := rows.Scan(&slot.ID, &slot.MentorID, &slot.Start, &slot.End, &slot.IsAvailable, &slot.IsBooked)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slots = append(slots, &slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func (s *Storage) CreateSlots(ctx context.Context, slots []*models.TimeSlot) (int, error) {
	const op = "storage.postgres.CreateSlots"

	if len(slots) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	created := 0
	for _, slot := range slots {
		id := slot.ID
		if id == "" {
			id = uuid.NewString()
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO time_slots (id, mentor_id, start_at, end_at, is_available, is_booked)
			VALUES ($1, $2, $3, $4, $5, false)
			ON CONFLICT (mentor_id, start_at) DO NOTHING`,
			id, slot.MentorID, slot.Start, slot.End, slot.IsAvailable)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return created, nil
}

func (s *Storage) BlockSlots(ctx context.Context, mentorID string, from, to time.Time) (int, error) {
	const op = "storage.postgres.BlockSlots"

	res, err := s.db.ExecContext(ctx,
		`UPDATE time_slots
		SET is_available=false
		WHERE mentor_id=$1 AND NOT is_booked AND is_available
			AND start_at < $2 AND end_at > $3`,
		mentorID, to, from)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return int(n), nil
}

// #### sessions ####

// CreateSession books the slot and inserts the session in one transaction.
// The slot write is conditional: zero rows affected means another request
// won the slot, and the whole transaction is rolled back.
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) (string, error) {
	const op = "storage.postgres.CreateSession"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var start, end time.Time
	err = tx.QueryRowContext(ctx,
		`UPDATE time_slots
		SET is_booked=true
		WHERE id=$1 AND is_available AND NOT is_booked
		RETURNING start_at, end_at`, session.SlotID).
		Scan(&start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := session.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions
		(id, mentor_id, mentee_id, slot_id, session_type, topic, description,
			start_at, end_at, status, meeting_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, session.MentorID, session.MenteeID, session.SlotID,
		string(session.Type), session.Topic, session.Description,
		start, end, string(session.Status), session.MeetingURL, session.Notes)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.postgres.GetSession"

	session, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT id, mentor_id, mentee_id, slot_id, session_type, topic, description,
			start_at, end_at, status, meeting_url, notes, cancel_reason, created_at
		FROM sessions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *Storage) ListSessions(ctx context.Context, userID string, from, to *time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.ListSessions"

	query := `SELECT id, mentor_id, mentee_id, slot_id, session_type, topic, description,
			start_at, end_at, status, meeting_url, notes, cancel_reason, created_at
		FROM sessions
		WHERE (mentor_id=$1 OR mentee_id=$1)`
	args := []any{userID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND end_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND end_at < $%d", len(args))
	}
	query += " ORDER BY start_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// UpdateSessionStatus is conditional on the session not being terminal, so
// a concurrent cancel or complete cannot be overwritten. Zero rows with the
// session present means the transition lost that race.
func (s *Storage) UpdateSessionStatus(ctx context.Context, id string, status models.SessionStatus, notes *string) error {
	const op = "storage.postgres.UpdateSessionStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status=$1, notes=COALESCE($2, notes)
		WHERE id=$3 AND status IN ($4, $5)`,
		string(status), notes, id,
		string(models.SessionPending), string(models.SessionConfirmed))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var current string
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM sessions WHERE id=$1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return fmt.Errorf("%s: status %s: %w", op, current, response.ErrConflict)
	}

	return nil
}

// RescheduleSession moves the session to the new slot in one transaction:
// book new, free old, rewrite times. Both the new-slot write and the
// session status are conditional; a session that went terminal since the
// caller's read rolls the whole thing back.
func (s *Storage) RescheduleSession(ctx context.Context, sessionID, newSlotID string) (*models.Session, error) {
	const op = "storage.postgres.RescheduleSession"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var oldSlotID, status string
	err = tx.QueryRowContext(ctx,
		`SELECT slot_id, status FROM sessions WHERE id=$1 FOR UPDATE`, sessionID).
		Scan(&oldSlotID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if st := models.SessionStatus(status); st != models.SessionPending && st != models.SessionConfirmed {
		return nil, fmt.Errorf("%s: status %s: %w", op, st, response.ErrNotReschedulable)
	}

	var start, end time.Time
	err = tx.QueryRowContext(ctx,
		`UPDATE time_slots
		SET is_booked=true
		WHERE id=$1 AND is_available AND NOT is_booked
		RETURNING start_at, end_at`, newSlotID).
		Scan(&start, &end)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE time_slots SET is_booked=false WHERE id=$1`, oldSlotID)
	if err != nil {
		return nil, fmt.Errorf("%s: free old slot: %w", op, err)
	}

	session, err := scanSession(tx.QueryRowContext(ctx,
		`UPDATE sessions SET slot_id=$1, start_at=$2, end_at=$3 WHERE id=$4
		RETURNING id, mentor_id, mentee_id, slot_id, session_type, topic, description,
			start_at, end_at, status, meeting_url, notes, cancel_reason, created_at`,
		newSlotID, start, end, sessionID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return session, nil
}

func (s *Storage) CancelSession(ctx context.Context, sessionID string, reason *string) error {
	const op = "storage.postgres.CancelSession"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	// Conditional write: a session that already went terminal keeps its
	// state, whichever transition got there first.
	var slotID string
	err = tx.QueryRowContext(ctx,
		`UPDATE sessions SET status=$1, cancel_reason=$2
		WHERE id=$3 AND status IN ($4, $5)
		RETURNING slot_id`,
		string(models.SessionCancelled), reason, sessionID,
		string(models.SessionPending), string(models.SessionConfirmed)).
		Scan(&slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var current string
			err := tx.QueryRowContext(ctx,
				`SELECT status FROM sessions WHERE id=$1`, sessionID).Scan(&current)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%s: %w", op, response.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			return fmt.Errorf("%s: status %s: %w", op, current, response.ErrNotCancellable)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE time_slots SET is_booked=false WHERE id=$1`, slotID)
	if err != nil {
		return fmt.Errorf("%s: free slot: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	var sessionType, status string

	err := row.Scan(
		&session.ID, &session.MentorID, &session.MenteeID, &session.SlotID,
		&sessionType, &session.Topic, &session.Description,
		&session.Start, &session.End, &status,
		&session.MeetingURL, &session.Notes, &session.CancelReason, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Type = models.SessionType(sessionType)
	session.Status = models.SessionStatus(status)

	return &session, nil
}

// #### goals ####

func (s *Storage) CreateGoal(ctx context.Context, goal *models.Goal) (string, error) {
	const op = "storage.postgres.CreateGoal"

	id := goal.ID
	if id == "" {
		id = uuid.NewString()
	}

	milestones, err := json.Marshal(goal.Milestones)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mentorship_goals (id, mentor_id, mentee_id, title, milestones)
		VALUES ($1, $2, $3, $4, $5)`,
		id, goal.MentorID, goal.MenteeID, goal.Title, milestones)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	const op = "storage.postgres.GetGoal"

	goal, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT id, mentor_id, mentee_id, title, milestones, created_at
		FROM mentorship_goals WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return goal, nil
}

func (s *Storage) ListGoals(ctx context.Context, mentorID, menteeID string) ([]*models.Goal, error) {
	const op = "storage.postgres.ListGoals"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mentor_id, mentee_id, title, milestones, created_at
		FROM mentorship_goals
		WHERE mentor_id=$1 AND mentee_id=$2
		ORDER BY created_at`, mentorID, menteeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		goals = append(goals, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return goals, nil
}

func (s *Storage) SetMilestoneDone(ctx context.Context, goalID string, index int, done bool) (*models.Goal, error) {
	const op = "storage.postgres.SetMilestoneDone"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	goal, err := scanGoal(tx.QueryRowContext(ctx,
		`SELECT id, mentor_id, mentee_id, title, milestones, created_at
		FROM mentorship_goals WHERE id=$1 FOR UPDATE`, goalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if index < 0 || index >= len(goal.Milestones) {
		return nil, fmt.Errorf("%s: milestone %d: %w", op, index, response.ErrNotFound)
	}

	goal.Milestones[index].Done = done

	milestones, err := json.Marshal(goal.Milestones)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE mentorship_goals SET milestones=$1 WHERE id=$2`, milestones, goalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return goal, nil
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	var goal models.Goal
	var milestones []byte

	err := row.Scan(&goal.ID, &goal.MentorID, &goal.MenteeID, &goal.Title, &milestones, &goal.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(milestones) > 0 {
		if err := json.Unmarshal(milestones, &goal.Milestones); err != nil {
			return nil, err
		}
	}

	return &goal, nil
}
