package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — конфликт уникальности идентификатора при создании.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict — исчерпаны повторы optimistic CAS при конкурентном обновлении.
	ErrConflict = errors.New("conflict")
)

// MutateStoryFunc — мутация агрегата истории. Выполняется стораджем
// под сериализацией по id агрегата (single-writer либо CAS-повторы).
// Возврат ошибки отменяет запись; ошибка возвращается вызывающему как есть,
// без обёртки — так сервисный слой проносит свои sentinel-ошибки сквозь сторадж.
type MutateStoryFunc func(*models.Story) error

// MutateCommentFunc — аналогичная мутация агрегата комментария.
type MutateCommentFunc func(*models.Comment) error

// Storage описывает операции над агрегатами историй и комментариев.
//
// Контракт атомарности:
//   - UpdateStory/UpdateComment — единственный способ мутировать агрегат.
//     Сторадж обязан исполнить mutate над актуальной копией и записать её так,
//     чтобы конкурентные мутации одного id не теряли обновлений
//     (per-id блокировка или CAS по Version с ограниченным числом повторов).
//   - Читающие методы не блокируют и могут отдавать слегка устаревшие данные.
type Storage interface {
	// CreateStory сохраняет новую историю. ID должен быть заполнен вызывающим.
	// Возможные ошибки: ErrAlreadyExists.
	CreateStory(ctx context.Context, story models.Story) (*models.Story, error)

	// StoryByID возвращает историю. Если записи нет — ErrNotFound.
	StoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// UpdateStory атомарно применяет mutate к истории и возвращает её
	// итоговое состояние. Ошибки: ErrNotFound, ErrConflict, ошибка mutate как есть.
	UpdateStory(ctx context.Context, id uuid.UUID, mutate MutateStoryFunc) (*models.Story, error)

	// DeleteStory удаляет историю вместе со всеми её комментариями.
	// Если записи нет — ErrNotFound.
	DeleteStory(ctx context.Context, id uuid.UUID) error

	// CreateComment сохраняет комментарий. Пустой ID заполняется стораджем.
	// Возможные ошибки: ErrAlreadyExists.
	CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// CommentByID возвращает комментарий (включая удалённые: фильтрация
	// по статусу — ответственность сервисного слоя). Если записи нет — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// UpdateComment атомарно применяет mutate к комментарию.
	// Ошибки: ErrNotFound, ErrConflict, ошибка mutate как есть.
	UpdateComment(ctx context.Context, id string, mutate MutateCommentFunc) (*models.Comment, error)

	// CommentsByStory возвращает все комментарии истории без фильтрации
	// по статусу, в порядке создания.
	CommentsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Comment, error)

	// ChildrenOf возвращает прямых детей комментария (любой статус),
	// в порядке создания. Это индекс parent -> children, которым каскадное
	// удаление обходит дерево итеративно.
	ChildrenOf(ctx context.Context, parentID string) ([]models.Comment, error)

	// Close закрывает соединения/ресурсы хранилища.
	Close(ctx context.Context) error
}
