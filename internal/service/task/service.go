package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"threedays/internal/metrics"
	"threedays/internal/model"
	"threedays/internal/mq"
	"threedays/internal/realtime"
)

const (
	maxTitleLen       = 50
	maxDescriptionLen = 200
)

// Store is the task persistence surface the service runs against.
// Implemented by repository.TaskRepository; tests supply an in-memory fake.
type Store interface {
	Insert(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, userID, taskID int) (*model.Task, error)
	ListByDates(ctx context.Context, userID int, dates []string) ([]model.Task, error)
	ListArchived(ctx context.Context, userID int) ([]model.Task, error)
	MaxSortOrder(ctx context.Context, userID int, date string) (int, error)
	Update(ctx context.Context, t *model.Task) error
	SetSortOrder(ctx context.Context, userID, taskID, order int) (int64, error)
	Delete(ctx context.Context, userID, taskID int) (int64, error)
	RolloverPending(ctx context.Context, from, to string) (int64, error)
}

// Notifier pushes mutation events to the owner's connected sessions.
type Notifier interface {
	NotifyUser(userID int, ev realtime.Event)
	Broadcast(ev realtime.Event)
}

// EventPublisher emits side-effect events for the notification pipeline.
// Failures are logged and swallowed; they never fail the user action.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type Service struct {
	store     Store
	notifier  Notifier
	publisher EventPublisher
	logger    *zap.Logger

	now func() time.Time
}

func NewService(store Store, notifier Notifier, publisher EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Window is the List result: the three window dates plus tasks grouped by
// date. Every window date is present as a key even when its bucket is
// empty.
type Window struct {
	Dates Dates                   `json:"dates"`
	Tasks map[string][]model.Task `json:"tasks"`
}

// List returns the user's non-archived tasks across the rolling 3-day
// window, computed fresh from the current UTC date.
func (s *Service) List(ctx context.Context, userID int) (*Window, error) {
	dates := windowDates(s.now())
	keys := []string{dates.Today, dates.Tomorrow, dates.DayAfterTomorrow}

	tasks, err := s.store.ListByDates(ctx, userID, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	grouped := make(map[string][]model.Task, len(keys))
	for _, d := range keys {
		grouped[d] = []model.Task{}
	}
	for _, t := range tasks {
		grouped[t.Date] = append(grouped[t.Date], t)
	}

	return &Window{Dates: dates, Tasks: grouped}, nil
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

// Create validates the request and appends the task to the end of its
// (user, date) bucket: sort order max+1, or 0 for an empty bucket.
func (s *Service) Create(ctx context.Context, userID int, req CreateTaskRequest) (*model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationErr("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, validationErr("title exceeds %d characters", maxTitleLen)
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLen {
		return nil, validationErr("description exceeds %d characters", maxDescriptionLen)
	}
	if !validDate(req.Date) {
		return nil, validationErr("date must be YYYY-MM-DD")
	}

	status := req.Status
	if status == "" {
		status = model.StatusPending
	}
	if !validStatus(status) {
		return nil, validationErr("status must be Pending or Completed")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !validPriority(priority) {
		return nil, validationErr("priority must be Low, Medium or High")
	}

	maxOrder, err := s.store.MaxSortOrder(ctx, userID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	t := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: req.Description,
		Date:        req.Date,
		Status:      status,
		Priority:    priority,
		Tags:        sanitizeTags(req.Tags),
		SortOrder:   maxOrder + 1,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.CountTaskMutation("create")
	s.notifier.NotifyUser(userID, realtime.TaskEvent(realtime.EventTaskCreated, t))
	s.publishEvent(mq.KeyTaskCreated, mq.TaskCreatedPayload{
		TaskID:    t.ID,
		UserID:    userID,
		Title:     t.Title,
		Date:      t.Date,
		Priority:  t.Priority,
		CreatedAt: t.CreatedAt,
	})

	return t, nil
}

// UpdateTaskRequest is a typed patch: nil means "leave the field alone".
type UpdateTaskRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Date        *string   `json:"date"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
}

// revertOnly reports whether the patch touches nothing but status=Pending.
func (req UpdateTaskRequest) revertOnly() bool {
	return req.Status != nil && *req.Status == model.StatusPending &&
		req.Title == nil && req.Description == nil && req.Date == nil &&
		req.Priority == nil && req.Tags == nil
}

// Update applies a partial edit. A completed task accepts exactly one
// patch, the revert to Pending; an archived task accepts none (restore
// first). Each provided field is validated independently.
func (s *Service) Update(ctx context.Context, userID, taskID int, req UpdateTaskRequest) (*model.Task, error) {
	t, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if t.Archived {
		return nil, fmt.Errorf("%w: task is archived", ErrInvalidState)
	}

	if t.Status == model.StatusCompleted {
		if !req.revertOnly() {
			return nil, ErrImmutableState
		}
		t.Status = model.StatusPending
		return s.saveAndNotify(ctx, t, realtime.EventTaskUpdated, "update")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationErr("title is required")
		}
		if utf8.RuneCountInString(title) > maxTitleLen {
			return nil, validationErr("title exceeds %d characters", maxTitleLen)
		}
		t.Title = title
	}
	if req.Description != nil {
		if utf8.RuneCountInString(*req.Description) > maxDescriptionLen {
			return nil, validationErr("description exceeds %d characters", maxDescriptionLen)
		}
		t.Description = *req.Description
	}
	if req.Date != nil {
		if !validDate(*req.Date) {
			return nil, validationErr("date must be YYYY-MM-DD")
		}
		t.Date = *req.Date
	}
	completed := false
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, validationErr("status must be Pending or Completed")
		}
		completed = t.Status != model.StatusCompleted && *req.Status == model.StatusCompleted
		t.Status = *req.Status
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, validationErr("priority must be Low, Medium or High")
		}
		t.Priority = *req.Priority
	}
	if req.Tags != nil {
		t.Tags = sanitizeTags(*req.Tags)
	}

	updated, err := s.saveAndNotify(ctx, t, realtime.EventTaskUpdated, "update")
	if err != nil {
		return nil, err
	}
	if completed {
		s.publishEvent(mq.KeyTaskCompleted, mq.TaskCompletedPayload{
			TaskID:      updated.ID,
			UserID:      userID,
			Title:       updated.Title,
			CompletedAt: updated.UpdatedAt,
		})
	}
	return updated, nil
}

// Reorder overwrites the bucket ordering with the caller's id sequence:
// each task gets its positional index as sort order. Ids the caller does
// not own match zero rows and are skipped without error. There is no
// cross-row transaction; a crash mid-way leaves a bucket the next reorder
// or the createdAt tiebreak repairs.
func (s *Service) Reorder(ctx context.Context, userID int, taskIDs []int) (int, error) {
	if len(taskIDs) == 0 {
		return 0, validationErr("taskIds must not be empty")
	}

	updated := 0
	for idx, id := range taskIDs {
		n, err := s.store.SetSortOrder(ctx, userID, id, idx)
		if err != nil {
			return updated, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		updated += int(n)
	}

	metrics.CountTaskMutation("reorder")
	s.notifier.NotifyUser(userID, realtime.RefreshEvent())
	return updated, nil
}

// Archive soft-deletes. Archiving an already archived task is a no-op that
// still succeeds.
func (s *Service) Archive(ctx context.Context, userID, taskID int) (*model.Task, error) {
	t, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Archived {
		return t, nil
	}
	t.Archived = true
	return s.saveAndNotify(ctx, t, realtime.EventTaskArchived, "archive")
}

// Restore brings an archived task back into its bucket.
func (s *Service) Restore(ctx context.Context, userID, taskID int) (*model.Task, error) {
	t, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !t.Archived {
		return nil, fmt.Errorf("%w: task is not archived", ErrInvalidState)
	}
	t.Archived = false
	return s.saveAndNotify(ctx, t, realtime.EventTaskRestored, "restore")
}

// Delete hard-removes the task.
func (s *Service) Delete(ctx context.Context, userID, taskID int) error {
	n, err := s.store.Delete(ctx, userID, taskID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	metrics.CountTaskMutation("delete")
	s.notifier.NotifyUser(userID, realtime.DeletedEvent(taskID))
	return nil
}

// ListArchived returns the archive, newest first.
func (s *Service) ListArchived(ctx context.Context, userID int) ([]model.Task, error) {
	tasks, err := s.store.ListArchived(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tasks, nil
}

// RolloverAll moves every user's pending tasks from today to tomorrow in
// one bulk update. A repeat run on the same day finds nothing left to
// move. Clients get a broadcast refresh since the bulk path cannot cheaply
// enumerate affected tasks.
func (s *Service) RolloverAll(ctx context.Context) (int64, error) {
	dates := windowDates(s.now())

	moved, err := s.store.RolloverPending(ctx, dates.Today, dates.Tomorrow)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if moved == 0 {
		return 0, nil
	}

	metrics.CountRolledOver(moved)
	s.notifier.Broadcast(realtime.RefreshEvent())
	s.publishEvent(mq.KeyTaskRolledOver, mq.TasksRolledOverPayload{
		From:  dates.Today,
		To:    dates.Tomorrow,
		Moved: moved,
	})
	return moved, nil
}

func (s *Service) getOwned(ctx context.Context, userID, taskID int) (*model.Task, error) {
	t, err := s.store.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return t, nil
}

func (s *Service) saveAndNotify(ctx context.Context, t *model.Task, eventType, op string) (*model.Task, error) {
	if err := s.store.Update(ctx, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Deleted concurrently between read and write; last write loses.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	metrics.CountTaskMutation(op)
	s.notifier.NotifyUser(t.UserID, realtime.TaskEvent(eventType, t))
	return t, nil
}

func (s *Service) publishEvent(key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(key, payload); err != nil {
		s.logger.Warn("Failed to publish event, continuing",
			zap.String("routing_key", key),
			zap.Error(err),
		)
	}
}

func validStatus(s string) bool {
	return s == model.StatusPending || s == model.StatusCompleted
}

func validPriority(p string) bool {
	return p == model.PriorityLow || p == model.PriorityMedium || p == model.PriorityHigh
}

// sanitizeTags drops blank and whitespace-only entries and trims the rest.
func sanitizeTags(tags []string) []string {
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
