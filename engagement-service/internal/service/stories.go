package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/pkg/log"
)

// Жизненный цикл истории: создание с первой страницей, публикация,
// полное чтение (инкремент views) и удаление с каскадом на комментарии.

// CreateStoryInput — создание истории. История рождается минимум с одной
// страницей; Collaborators — опциональные соавторы с правом правки контента.
type CreateStoryInput struct {
	AuthorID         uuid.UUID
	Title            string
	FirstPageContent string
	Collaborators    []uuid.UUID
}

// CreateStory — создание новой истории с первой страницей.
//
// Валидация:
//   - AuthorID обязателен; Title после TrimSpace непуст;
//   - контент первой страницы в границах длины.
//
// Ошибки: ErrInvalidArgument, ErrConflict, ErrInternal.
func (s *Service) CreateStory(ctx context.Context, in CreateStoryInput) (*models.Story, error) {
	const op = "service/stories/CreateStory"

	lg := log.From(ctx).With("op", op, "author_id", in.AuthorID.String())

	if in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty author_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		lg.Warn("invalid argument: empty title")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content, err := s.validatePageContent(in.FirstPageContent)
	if err != nil {
		lg.Warn("invalid argument: first page content out of bounds")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	now := time.Now().UTC()

	collab := make(map[uuid.UUID]struct{}, len(in.Collaborators))
	for _, id := range in.Collaborators {
		if id != uuid.Nil && id != in.AuthorID {
			collab[id] = struct{}{}
		}
	}

	story := models.Story{
		ID:              uuid.New(),
		AuthorID:        in.AuthorID,
		Collaborators:   collab,
		Title:           in.Title,
		Pages:           []models.Page{s.buildPage(1, content, now)},
		LikedBy:         make(map[uuid.UUID]struct{}),
		InReadingLists:  make(map[uuid.UUID]struct{}),
		Ratings:         make(map[uuid.UUID]int32),
		ReadingProgress: make(map[uuid.UUID]models.ReadingProgress),
		Stats: models.StoryStats{
			PageViews: make(map[int32]int64),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	recalcPageTotals(&story)

	created, err := s.storage.CreateStory(ctx, story)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	lg.Info("story created", "story_id", created.ID.String())

	return created, nil
}

// PublishStory — перевод истории из черновика в опубликованные (только автор).
// Повторная публикация — no-op.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) PublishStory(ctx context.Context, storyID uuid.UUID, actor Actor) (*models.Story, error) {
	const op = "service/stories/PublishStory"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "actor_id", actor.UserID.String())

	if storyID == uuid.Nil || actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	updated, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if st.AuthorID != actor.UserID {
			return ErrForbidden
		}

		st.IsPublished = true
		st.UpdatedAt = time.Now().UTC()

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return updated, nil
}

// GetStory — полное чтение истории. Черновик доступен только
// автору/соавтору. Успешное чтение опубликованной истории инкрементирует
// views и пересчитывает engagement score в той же мутации.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) GetStory(ctx context.Context, storyID uuid.UUID, actor Actor) (*models.Story, error) {
	const op = "service/stories/GetStory"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String())

	if storyID == uuid.Nil {
		lg.Warn("invalid argument: empty story_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	st, err := s.storage.StoryByID(ctx, storyID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	if !st.IsPublished {
		if !st.IsCollaborator(actor.UserID) {
			lg.Warn("forbidden: story is not published")
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}

		// Черновые чтения автора не считаются просмотрами.
		return st, nil
	}

	updated, err := s.storage.UpdateStory(ctx, storyID, func(cur *models.Story) error {
		cur.Stats.Views++
		cur.Stats.EngagementScore = s.score(cur.Stats)

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return updated, nil
}

// DeleteStory — удаление истории автором или админом; комментарии истории
// удаляются каскадно на уровне стораджа.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrInternal.
func (s *Service) DeleteStory(ctx context.Context, storyID uuid.UUID, actor Actor) error {
	const op = "service/stories/DeleteStory"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "actor_id", actor.UserID.String())

	if storyID == uuid.Nil || actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	st, err := s.storage.StoryByID(ctx, storyID)
	if err != nil {
		return storErr(op, lg, err)
	}

	if st.AuthorID != actor.UserID && !actor.IsAdmin() {
		lg.Warn("forbidden: story author or admin required")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.storage.DeleteStory(ctx, storyID); err != nil {
		return storErr(op, lg, err)
	}

	lg.Info("story deleted")

	return nil
}
