package mq

import "time"

// Routing keys on the events exchange.
const (
	KeyTaskCreated    = "task.created"
	KeyTaskCompleted  = "task.completed"
	KeyTaskRolledOver = "task.rolled_over"
)

type TaskCreatedPayload struct {
	TaskID    int       `json:"task_id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskCompletedPayload struct {
	TaskID      int       `json:"task_id"`
	UserID      int       `json:"user_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

type TasksRolledOverPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Moved int64  `json:"moved"`
}
