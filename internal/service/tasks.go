package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/store"
	"github.com/taskdock/taskdock/pkg/idx"
	"github.com/taskdock/taskdock/pkg/slogx"
)

const maxTaskTitleLength = 200

var (
	ErrTaskNotFound     = errors.New("task_not_found")
	ErrInvalidTaskTitle = errors.New("invalid_task_title")
)

// TaskService owns the task CRUD flows. Every operation is scoped to the
// calling account; a task belonging to someone else is indistinguishable
// from one that does not exist.
type TaskService struct {
	Store store.Store

	Now func() time.Time
}

// CreateTaskParams carries the caller-supplied fields for a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// UpdateTaskParams carries the mutable fields of a task. Nil pointers leave
// the stored value untouched.
type UpdateTaskParams struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
}

func (s *TaskService) Create(ctx context.Context, accountID string, p CreateTaskParams) (*domain.Task, error) {
	now := s.now()

	title := strings.TrimSpace(p.Title)
	if title == "" || len(title) > maxTaskTitleLength {
		return nil, ErrInvalidTaskTitle
	}

	task := domain.Task{
		ID:          idx.New().String(),
		AccountID:   accountID,
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		DueDate:     p.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Tasks().CreateTask(ctx, task); err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("task created",
		slog.String("task_id", task.ID),
		slog.String("account_id", accountID),
	)
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, accountID string, filter store.TaskFilter) ([]domain.Task, error) {
	return s.Store.Tasks().ListTasks(ctx, accountID, filter)
}

func (s *TaskService) Get(ctx context.Context, accountID, taskID string) (*domain.Task, error) {
	task, err := s.Store.Tasks().GetTaskByID(ctx, taskID, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) Update(ctx context.Context, accountID, taskID string, p UpdateTaskParams) (*domain.Task, error) {
	var updated *domain.Task

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		task, err := tx.Tasks().GetTaskByID(ctx, taskID, accountID)
		if err != nil {
			return err
		}

		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if title == "" || len(title) > maxTaskTitleLength {
				return ErrInvalidTaskTitle
			}
			task.Title = title
		}
		if p.Description != nil {
			task.Description = strings.TrimSpace(*p.Description)
		}
		if p.ClearDue {
			task.DueDate = nil
		} else if p.DueDate != nil {
			task.DueDate = p.DueDate
		}
		task.UpdatedAt = s.now()

		if err := tx.Tasks().UpdateTask(ctx, task); err != nil {
			return err
		}
		updated = &task
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return updated, nil
}

func (s *TaskService) SetCompleted(ctx context.Context, accountID, taskID string, completed bool) error {
	err := s.Store.Tasks().SetTaskCompleted(ctx, taskID, accountID, completed)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func (s *TaskService) Delete(ctx context.Context, accountID, taskID string) error {
	err := s.Store.Tasks().DeleteTask(ctx, taskID, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
