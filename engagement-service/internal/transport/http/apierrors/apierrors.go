// apierrors стандартизирует ответы об ошибках HTTP-слоя engagement-сервиса.
// На вход — сервисная ошибка (sentinel из internal/service), на выход —
// корректный HTTP-статус и краткое безопасное message без утечки деталей.
package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует сервисную ошибку в HTTP-статус и унифицированный ответ.
//
// Маппинг:
//   - ErrInvalidArgument -> 400 (границы, формат, глубина, диапазон оценки)
//   - ErrForbidden       -> 403
//   - ErrNotFound        -> 404
//   - ErrInvalidState    -> 409 (недопустимый переход машины состояний)
//   - ErrConflict        -> 503 retryable (исчерпаны CAS-повторы; клиенту
//     имеет смысл повторить операцию целиком)
//   - прочее (включая nil) -> 500/internal, чтобы не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, newResponse("internal", "internal error")
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, newResponse("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, newResponse("forbidden", "forbidden")
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, newResponse("not_found", "not found")
	case errors.Is(err, service.ErrInvalidState):
		return http.StatusConflict, newResponse("invalid_state", "operation not allowed in current state")
	case errors.Is(err, service.ErrConflict):
		return http.StatusServiceUnavailable, newResponse("conflict", "concurrent update, retry the operation")
	default:
		return http.StatusInternalServerError, newResponse("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров: пишет корректный статус/тело,
// добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func newResponse(code, msg string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg}}
}
