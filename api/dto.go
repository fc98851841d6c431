package api

import "time"

// Sessions

type BookSessionRequest struct {
	MentorID    string  `json:"mentor_id"`
	SlotID      string  `json:"slot_id"`
	MenteeID    string  `json:"mentee_id"`
	Type        string  `json:"type"`
	Topic       string  `json:"topic"`
	Description *string `json:"description,omitempty"`
}

type RescheduleSessionRequest struct {
	SessionID string `json:"session_id"`
	NewSlotID string `json:"new_slot_id"`
}

type CancelSessionRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type CompleteSessionRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type SessionResponse struct {
	ID           string    `json:"id"`
	MentorID     string    `json:"mentor_id"`
	MenteeID     string    `json:"mentee_id"`
	SlotID       string    `json:"slot_id"`
	Type         string    `json:"type"`
	Topic        string    `json:"topic"`
	Description  *string   `json:"description,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Status       string    `json:"status"`
	DisplayState string    `json:"display_state"`
	MeetingURL   *string   `json:"meeting_url,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CancelReason *string   `json:"cancel_reason,omitempty"`
}

// Availability

type SlotResponse struct {
	ID          string    `json:"id"`
	MentorID    string    `json:"mentor_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	IsAvailable bool      `json:"is_available"`
	IsBooked    bool      `json:"is_booked"`
}

type DayAvailabilityResponse struct {
	Date  string         `json:"date"`
	Slots []SlotResponse `json:"slots"`
}

type PublishAvailabilityRequest struct {
	MentorID            string   `json:"mentor_id"`
	StartDate           string   `json:"start_date"`
	EndDate             string   `json:"end_date"`
	Days                []string `json:"days"`
	StartTime           string   `json:"start_time"`
	EndTime             string   `json:"end_time"`
	SlotDurationMinutes int      `json:"slot_duration_minutes"`
}

type BlockAvailabilityRequest struct {
	MentorID string  `json:"mentor_id"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Reason   *string `json:"reason,omitempty"`
}

// Calendar

type CalendarDayResponse struct {
	Date        string `json:"date"`
	InMonth     bool   `json:"in_month"`
	Selectable  bool   `json:"selectable"`
	HasOpenSlot bool   `json:"has_open_slot"`
	HasSession  bool   `json:"has_session"`
}

// Goals

type GoalRequest struct {
	MentorID   string   `json:"mentor_id"`
	MenteeID   string   `json:"mentee_id"`
	Title      string   `json:"title"`
	Milestones []string `json:"milestones"`
}

type MilestoneResponse struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type GoalResponse struct {
	ID         string              `json:"id"`
	MentorID   string              `json:"mentor_id"`
	MenteeID   string              `json:"mentee_id"`
	Title      string              `json:"title"`
	Milestones []MilestoneResponse `json:"milestones"`
	Completion float64             `json:"completion"`
}
