package realtime

import (
	"time"

	"threedays/internal/model"
)

// Event types pushed to connected clients. Archive and restore are modeled
// as their own types so the client can animate them without diffing.
const (
	EventTaskCreated  = "task:created"
	EventTaskUpdated  = "task:updated"
	EventTaskDeleted  = "task:deleted"
	EventTaskArchived = "task:archived"
	EventTaskRestored = "task:restored"

	// EventRefresh tells clients to refetch the whole window, used when the
	// server cannot cheaply describe the delta (reorder, rollover).
	EventRefresh = "tasks:refresh"
)

// Event is the wire shape of a server-to-client push.
type Event struct {
	Type   string      `json:"type"`
	Task   *model.Task `json:"task,omitempty"`
	TaskID int         `json:"taskId,omitempty"`
	TS     time.Time   `json:"ts"`
}

func TaskEvent(eventType string, t *model.Task) Event {
	return Event{Type: eventType, Task: t, TS: time.Now().UTC()}
}

func DeletedEvent(taskID int) Event {
	return Event{Type: EventTaskDeleted, TaskID: taskID, TS: time.Now().UTC()}
}

func RefreshEvent() Event {
	return Event{Type: EventRefresh, TS: time.Now().UTC()}
}
