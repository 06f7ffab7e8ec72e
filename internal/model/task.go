package model

import "time"

// Task statuses.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task is one actionable item in a user's 3-day window.
// Date is a calendar day ("YYYY-MM-DD"), deliberately not a timestamp:
// components compare "today" as a string in UTC and never shift across
// timezones. SortOrder positions the task within its (user, date) bucket;
// gaps are permitted and ties fall back to CreatedAt.
type Task struct {
	ID          int      `json:"id"`
	UserID      int      `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	SortOrder   int      `json:"order"`
	Archived    bool     `json:"archived"`
	Rollover    bool     `json:"rollover"`

	// Recurrence metadata, reserved for recurring tasks. Nothing in the
	// service interprets these yet.
	RecurrencePattern  string `json:"recurrence_pattern,omitempty"`
	RecurrenceInterval int    `json:"recurrence_interval,omitempty"`
	RecurrenceEndDate  string `json:"recurrence_end_date,omitempty"`
	ParentTaskID       *int   `json:"parent_task_id,omitempty"`

	// Calendar sync metadata, written by the (external) calendar pipeline.
	CalendarSync    bool   `json:"calendar_sync,omitempty"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
