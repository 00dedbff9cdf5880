package apierrors

// Тесты маппинга сервисных ошибок в HTTP-статусы и формат ответа.

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid_argument", service.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not_found", service.ErrNotFound, http.StatusNotFound, "not_found"},
		{"invalid_state", service.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{"conflict", service.ErrConflict, http.StatusServiceUnavailable, "conflict"},
		{"internal", service.ErrInternal, http.StatusInternalServerError, "internal"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"nil", nil, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

// Обёрнутые ошибки (op-контекст сервисного слоя) распознаются через errors.Is.
func TestToHTTP_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("service/comments/CreateComment: %w", service.ErrNotFound)
	status, resp := ToHTTP(err)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "not_found", resp.Error.Code)
}

func TestWriteError_JSONBodyAndRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/stories/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()

	WriteError(rec, req, service.ErrForbidden)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "forbidden", body.Error.Code)
	require.Equal(t, "req-123", body.Error.RequestID)
}

// Conflict ретраябелен: клиент получает Retry-After.
func TestWriteError_Conflict_SetsRetryAfter(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/stories/x/like", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, service.ErrConflict)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}
