package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/token"
)

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
	getErr   error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (r *fakeSessionRepo) Save(_ context.Context, s *domain.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func newRequestCtx(authHeader string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI("/api/v1/tasks")
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	return ctx
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	tokens, err := token.NewManager("test-secret", "tasknest", time.Hour)
	require.NoError(t, err)

	var gotUserID string
	next := func(ctx *fasthttp.RequestCtx) {
		gotUserID = string(ctx.Request.Header.Peek("X-User-ID"))
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
	handler := BearerAuth(tokens, nil, nil)(next)

	t.Run("valid token passes user id through", func(t *testing.T) {
		signed, _, err := tokens.Issue("user-42", time.Now())
		require.NoError(t, err)

		ctx := newRequestCtx("Bearer " + signed)
		handler(ctx)

		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		assert.Equal(t, "user-42", gotUserID)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		ctx := newRequestCtx("")
		handler(ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		ctx := newRequestCtx("Bearer not.a.jwt")
		handler(ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		signed, _, err := tokens.Issue("user-42", time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		ctx := newRequestCtx("Bearer " + signed)
		handler(ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("client-supplied user id header is overwritten", func(t *testing.T) {
		signed, _, err := tokens.Issue("user-42", time.Now())
		require.NoError(t, err)

		ctx := newRequestCtx("Bearer " + signed)
		ctx.Request.Header.Set("X-User-ID", "someone-else")
		handler(ctx)

		assert.Equal(t, "user-42", gotUserID)
	})
}

func TestBearerAuth_SessionRevocation(t *testing.T) {
	t.Parallel()

	tokens, err := token.NewManager("test-secret", "tasknest", time.Hour)
	require.NoError(t, err)

	sessions := newFakeSessionRepo()
	next := func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
	}
	handler := BearerAuth(tokens, sessions, nil)(next)

	issue := func(t *testing.T) (string, string) {
		t.Helper()
		signed, tokenID, err := tokens.Issue("user-42", time.Now())
		require.NoError(t, err)
		require.NoError(t, sessions.Save(context.Background(), &domain.Session{
			ID:        tokenID,
			UserID:    "user-42",
			ExpiresAt: time.Now().Add(time.Hour),
		}))
		return signed, tokenID
	}

	t.Run("live session passes", func(t *testing.T) {
		signed, _ := issue(t)
		ctx := newRequestCtx("Bearer " + signed)
		handler(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	})

	t.Run("deleted session revokes a still-valid token", func(t *testing.T) {
		signed, tokenID := issue(t)
		require.NoError(t, sessions.Delete(context.Background(), tokenID))

		ctx := newRequestCtx("Bearer " + signed)
		handler(ctx)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	})

	t.Run("session store outage does not lock users out", func(t *testing.T) {
		signed, _ := issue(t)
		sessions.getErr = assert.AnError
		defer func() { sessions.getErr = nil }()

		ctx := newRequestCtx("Bearer " + signed)
		handler(ctx)
		assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	})

	t.Run("token id header is forwarded", func(t *testing.T) {
		signed, tokenID := issue(t)

		var gotTokenID string
		capture := BearerAuth(tokens, sessions, nil)(func(ctx *fasthttp.RequestCtx) {
			gotTokenID = string(ctx.Request.Header.Peek("X-Token-ID"))
		})

		ctx := newRequestCtx("Bearer " + signed)
		ctx.Request.Header.Set("X-Token-ID", "forged")
		capture(ctx)
		assert.Equal(t, tokenID, gotTokenID)
	})
}
