// service содержит бизнес-логику engagement-сервиса: счётчики вовлечённости,
// модерацию комментариев, страницы и прогресс чтения, расчёт engagement score.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/config"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/storage"
)

var (
	// ErrNotFound — история/комментарий/страница отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrForbidden — у действующего пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument — неверные входные параметры (границы длины, диапазон
	// оценки, глубина ветки и т.п.).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState — операция не разрешена из текущего состояния
	// (недопустимый переход машины состояний комментария).
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict — конкурентные обновления исчерпали CAS-повторы;
	// вызывающий может повторить операцию целиком.
	ErrConflict = errors.New("conflict")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст и т.д.).
	ErrInternal = errors.New("internal")
)

// Role — роль действующего пользователя, выдаётся внешним identity-провайдером.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor — идентичность вызывающего. Сервис не вычисляет роли,
// он только применяет переданные факты.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin сообщает, обладает ли актор модераторскими правами.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Service — бизнес-логика engagement-сервиса поверх storage.Storage.
type Service struct {
	storage storage.Storage
	cfg     config.Config
	score   ScoreFunc
}

// Option — необязательная настройка Service.
type Option func(*Service)

// WithScoreFunc подменяет формулу engagement score (по умолчанию —
// взвешенная сумма из конфигурации).
func WithScoreFunc(f ScoreFunc) Option {
	return func(s *Service) {
		if f != nil {
			s.score = f
		}
	}
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		cfg:     cfg,
		score:   WeightedScore(cfg.Scoring),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// storErr переводит ошибку стораджа/мутации в сервисную и пишет лог.
// Сервисные sentinel-ошибки, пронесённые mutate-колбэком сквозь сторадж,
// возвращаются как есть.
func storErr(op string, lg *slog.Logger, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrConflict):
		lg.Warn("domain error", "err", err)
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("not found")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrConflict):
		lg.Warn("conflict: cas retries exhausted")
		return fmt.Errorf("%s: %w", op, ErrConflict)
	case errors.Is(err, storage.ErrAlreadyExists):
		lg.Warn("already exists")
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		lg.Error("storage error", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}
