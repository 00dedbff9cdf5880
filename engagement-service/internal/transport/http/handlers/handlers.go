// handlers — REST-обработчики engagement-сервиса поверх сервисного слоя.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
)

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc *service.Service
}

// New создаёт набор обработчиков.
func New(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — локальная ошибка парсинга входа -> 400.
func errInvalidArgument() error {
	return fmt.Errorf("parse request: %w", service.ErrInvalidArgument)
}
