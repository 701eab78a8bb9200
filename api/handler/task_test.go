package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
	taskUC "github.com/tasknest/backend/usecase/task"
)

type stubTaskRepo struct {
	byID map[string]*domain.Task
}

func (r *stubTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *stubTaskRepo) List(_ context.Context, _ repository.TaskFilter) ([]domain.Task, error) {
	return nil, nil
}

func (r *stubTaskRepo) ListDue(_ context.Context, _ time.Time, _ time.Duration) ([]domain.Task, error) {
	return nil, nil
}

func (r *stubTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.byID[task.ID] = task
	return task, nil
}

func (r *stubTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.byID[task.ID] = task
	return nil
}

func (r *stubTaskRepo) ClaimNotification(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string, userID string) error {
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func newDeleteCtx(userID, taskID string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodDelete)
	ctx.Request.SetRequestURI("/api/v1/tasks/" + taskID)
	ctx.Request.Header.Set("X-User-ID", userID)
	ctx.SetUserValue("id", taskID)
	return ctx
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	repo := &stubTaskRepo{byID: map[string]*domain.Task{
		"t1": {ID: "t1", UserID: "u1", Content: "ship it"},
	}}
	h := NewTaskHandler(taskUC.New(repo, nil, nil), nil, nil)

	t.Run("responds 204 with no body", func(t *testing.T) {
		ctx := newDeleteCtx("u1", "t1")
		h.DeleteTask(ctx)

		assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
		assert.Empty(t, ctx.Response.Body())

		_, err := repo.GetByID(context.Background(), "t1")
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("unknown task is a 404 envelope", func(t *testing.T) {
		ctx := newDeleteCtx("u1", "missing")
		h.DeleteTask(ctx)

		assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
		assert.NotEmpty(t, ctx.Response.Body())
	})
}
