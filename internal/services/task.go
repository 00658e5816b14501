package services

import (
	"context"
	"strings"
	"time"

	"github.com/tasktrack/apiserver/types"
)

// TaskRepository defines persistence operations for tasks. Lookups, updates
// and deletes are always scoped to an owner; a task owned by someone else is
// reported as store.ErrNotFound.
type TaskRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]types.Task, error)
	GetByOwner(ctx context.Context, id, userID string) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
	Delete(ctx context.Context, id, userID string) error
}

// EventPublisher receives task lifecycle events after a successful write.
// Implementations must not block the request on delivery failures.
type EventPublisher interface {
	Publish(ctx context.Context, event types.TaskEvent)
}

// CreateTaskInput is the caller-supplied part of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    string
}

// TaskService encapsulates task use-cases.
type TaskService struct {
	repo   TaskRepository
	events EventPublisher
	now    func() time.Time
}

// NewTaskService constructs a TaskService. events may be nil.
func NewTaskService(repo TaskRepository, events EventPublisher) *TaskService {
	return &TaskService{repo: repo, events: events, now: time.Now}
}

// List returns every task owned by userID, newest first.
func (s *TaskService) List(ctx context.Context, userID string) ([]types.Task, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// Create validates input and stores a new Pending task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (types.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return types.Task{}, invalidf("title", "is required")
	}
	if in.Priority == "" {
		return types.Task{}, invalidf("priority", "is required")
	}
	priority, err := types.ParsePriority(in.Priority)
	if err != nil {
		return types.Task{}, &ValidationError{Field: "priority", Msg: err.Error()}
	}

	created, err := s.repo.Create(ctx, types.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		Status:      types.StatusPending,
		UserID:      userID,
	})
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, types.TaskCreated, created)
	return created, nil
}

// Update applies the present fields of patch to the task identified by
// (id, userID).
func (s *TaskService) Update(ctx context.Context, userID, id string, patch types.TaskPatch) (types.Task, error) {
	task, err := s.repo.GetByOwner(ctx, id, userID)
	if err != nil {
		return types.Task{}, err
	}

	if err := applyPatch(&task, patch); err != nil {
		return types.Task{}, err
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, types.TaskUpdated, updated)
	return updated, nil
}

// Delete permanently removes the task identified by (id, userID).
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	task, err := s.repo.GetByOwner(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.publish(ctx, types.TaskDeleted, task)
	return nil
}

// Complete marks the task identified by (id, userID) as Completed regardless
// of its current status.
func (s *TaskService) Complete(ctx context.Context, userID, id string) (types.Task, error) {
	task, err := s.repo.GetByOwner(ctx, id, userID)
	if err != nil {
		return types.Task{}, err
	}

	task.Status = types.StatusCompleted
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}

	s.publish(ctx, types.TaskCompleted, updated)
	return updated, nil
}

func applyPatch(task *types.Task, patch types.TaskPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalidf("title", "must not be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		priority, err := types.ParsePriority(*patch.Priority)
		if err != nil {
			return &ValidationError{Field: "priority", Msg: err.Error()}
		}
		task.Priority = priority
	}
	if patch.Status != nil {
		status, err := types.ParseStatus(*patch.Status)
		if err != nil {
			return &ValidationError{Field: "status", Msg: err.Error()}
		}
		task.Status = status
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, kind types.TaskEventType, task types.Task) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, types.TaskEvent{
		Type:       kind,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Status:     task.Status,
		OccurredAt: s.now().UTC(),
	})
}
