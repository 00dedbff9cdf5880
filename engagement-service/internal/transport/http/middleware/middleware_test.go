package middleware

// Тесты HTTP-мидлваров: request id, идентичность, таймаут, перехват паник.

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
)

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-Id")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, seen, 32)
	require.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	t.Parallel()

	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "upstream-id", rec.Header().Get("X-Request-Id"))
}

func TestIdentity_ParsesHeaders(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	var actor service.Actor
	h := Identity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", userID.String())
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, userID, actor.UserID)
	require.Equal(t, service.RoleUser, actor.Role)

	req.Header.Set("X-User-Role", "admin")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, service.RoleAdmin, actor.Role)
}

// Битый X-User-Id даёт анонимного актора, а не ошибку.
func TestIdentity_InvalidUserID_AnonymousActor(t *testing.T) {
	t.Parallel()

	var actor service.Actor
	h := Identity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	req.Header.Set("X-User-Role", "admin")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, uuid.Nil, actor.UserID)
	require.Empty(t, actor.Role)
}

func TestActorFrom_EmptyContext(t *testing.T) {
	t.Parallel()

	actor := ActorFrom(context.Background())
	require.Equal(t, uuid.Nil, actor.UserID)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	t.Parallel()

	var deadlineSet bool
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadlineSet = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, deadlineSet)
}

func TestTimeout_RespectsExistingDeadline(t *testing.T) {
	t.Parallel()

	want := time.Now().Add(10 * time.Second)

	var got time.Time
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Deadline()
	}))

	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	require.WithinDuration(t, want, got, time.Millisecond)
}

func TestRecover_PanicTo500(t *testing.T) {
	t.Parallel()

	h := Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Детали паники не утекают на клиент.
	require.NotContains(t, rec.Body.String(), "boom")
}
