// Package task implements the task-list operations: list, create, update,
// toggle and delete, always scoped to the authenticated user.
package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// Nudger lets the use case ask the deadline notifier to re-evaluate the task
// list after a mutation, without blocking the request.
type Nudger interface {
	Nudge()
}

type UseCase struct {
	tasks  repository.TaskRepository
	nudger Nudger
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, nudger Nudger, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		nudger: nudger,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.owned(ctx, userID, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, userID, content string, deadline *time.Time) (*domain.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "content is required")
	}

	task := &domain.Task{
		UserID:   userID,
		Content:  content,
		Deadline: deadline,
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.nudge()
	return created, nil
}

// UpdateTask replaces content, deadline and completed. Moving the deadline or
// reopening a completed task clears the notified state so the reminder can
// fire for the new deadline.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id, content string, deadline *time.Time, completed bool) (*domain.Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "content is required")
	}

	task, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if deadlineChanged(task.Deadline, deadline) || (task.Completed && !completed) {
		task.NotifiedAt = nil
	}
	task.Content = content
	task.Deadline = deadline
	task.Completed = completed

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.nudge()
	return task, nil
}

// ToggleTask flips the completed flag.
func (uc *UseCase) ToggleTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if task.Completed {
		// Reopened tasks become eligible for a reminder again.
		task.NotifiedAt = nil
	}
	task.Completed = !task.Completed

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	uc.nudge()
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if err := uc.tasks.Delete(ctx, id, userID); err != nil {
		return err
	}
	uc.nudge()
	return nil
}

func (uc *UseCase) owned(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		// Hide other users' tasks entirely.
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) nudge() {
	if uc.nudger != nil {
		uc.nudger.Nudge()
	}
}

func deadlineChanged(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}
