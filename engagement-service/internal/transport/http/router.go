package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/service"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/handlers"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Identity(),           // вынимаем X-User-Id/X-User-Role в контекст
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// stories
	r.Post("/stories", h.CreateStory)
	r.Get("/stories/{story_id}", h.GetStory)
	r.Post("/stories/{story_id}/publish", h.PublishStory)
	r.Delete("/stories/{story_id}", h.DeleteStory)

	// engagement
	r.Post("/stories/{story_id}/like", h.ToggleLike)
	r.Post("/stories/{story_id}/reading-list", h.ToggleReadingList)
	r.Post("/stories/{story_id}/rating", h.SubmitRating)

	// comments
	r.Post("/stories/{story_id}/comments", h.CreateComment)
	r.Get("/stories/{story_id}/comments", h.ListComments)
	r.Get("/stories/{story_id}/comments/flagged", h.ListFlaggedComments)
	r.Patch("/comments/{id}", h.EditComment)
	r.Delete("/comments/{id}", h.DeleteComment)
	r.Post("/comments/{id}/like", h.ToggleCommentLike)
	r.Post("/comments/{id}/report", h.ReportComment)
	r.Post("/comments/{id}/moderate", h.ModerateComment)
	r.Post("/comments/{id}/pin", h.PinComment)
	r.Delete("/comments/{id}/pin", h.UnpinComment)

	// pages
	r.Post("/stories/{story_id}/pages", h.AddPage)
	r.Get("/stories/{story_id}/pages/{page}", h.GetPage)
	r.Put("/stories/{story_id}/pages/{page}", h.UpdatePage)
	r.Delete("/stories/{story_id}/pages/{page}", h.DeletePage)
	r.Post("/stories/{story_id}/pages/{page}/view", h.TrackPageView)

	// reading progress
	r.Put("/stories/{story_id}/progress", h.UpdateReadingProgress)
	r.Get("/stories/{story_id}/progress", h.GetReadingProgress)
}
