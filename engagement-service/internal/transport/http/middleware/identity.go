package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
)

type actorKey struct{}

// Identity извлекает идентичность вызывающего из доверенных заголовков
// X-User-Id / X-User-Role (их выставляет внешний identity-провайдер/gateway,
// сервис роли не вычисляет) и кладёт service.Actor в контекст.
// Битый или отсутствующий X-User-Id даёт пустого актора: решение «можно ли
// анонимно» принимает конкретная операция.
func Identity() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var actor service.Actor

			if raw := r.Header.Get("X-User-Id"); raw != "" {
				if id, err := uuid.Parse(raw); err == nil {
					actor.UserID = id
					actor.Role = service.RoleUser
					if r.Header.Get("X-User-Role") == string(service.RoleAdmin) {
						actor.Role = service.RoleAdmin
					}
				}
			}

			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFrom достаёт актора из контекста (или пустого анонимного).
func ActorFrom(ctx context.Context) service.Actor {
	if v := ctx.Value(actorKey{}); v != nil {
		if a, ok := v.(service.Actor); ok {
			return a
		}
	}

	return service.Actor{}
}
