package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/pkg/log"
)

// Счётчики вовлечённости истории: лайки, списки чтения, оценки.
//
// Общее правило: счётчик никогда не инкрементируется сам по себе —
// внутри той же атомарной мутации, что изменила backing-множество,
// он пересчитывается из размера множества. Это исключает дрейф
// при конкурентных переключателях одного и того же лайка.

// ToggleLike — идемпотентное переключение лайка истории.
//
// Валидация:
//   - storyID и userID обязательны (uuid.Nil -> ErrInvalidArgument).
//
// Поведение/ошибки:
//   - ErrNotFound — история не найдена;
//   - ErrConflict — исчерпаны CAS-повторы;
//   - ErrInternal — прочие ошибки стораджа.
//
// Ответ отражает именно эту мутацию: собственный лайк вызывающего
// виден в результате немедленно.
func (s *Service) ToggleLike(ctx context.Context, storyID, userID uuid.UUID) (*models.ToggleResult, error) {
	const op = "service/engagement/ToggleLike"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "user_id", userID.String())

	if storyID == uuid.Nil || userID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var res models.ToggleResult

	_, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if st.LikedBy == nil {
			st.LikedBy = make(map[uuid.UUID]struct{})
		}

		if _, ok := st.LikedBy[userID]; ok {
			delete(st.LikedBy, userID)
		} else {
			st.LikedBy[userID] = struct{}{}
		}

		// Счётчик всегда выводится из множества, в той же мутации.
		st.Stats.LikesCount = int32(len(st.LikedBy))
		st.Stats.EngagementScore = s.score(st.Stats)
		st.UpdatedAt = time.Now().UTC()

		_, res.Active = st.LikedBy[userID]
		res.Count = st.Stats.LikesCount

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &res, nil
}

// ToggleReadingList — идемпотентное переключение членства истории
// в списке чтения пользователя. Тот же паттерн, что и ToggleLike.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) ToggleReadingList(ctx context.Context, storyID, userID uuid.UUID) (*models.ToggleResult, error) {
	const op = "service/engagement/ToggleReadingList"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "user_id", userID.String())

	if storyID == uuid.Nil || userID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var res models.ToggleResult

	_, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if st.InReadingLists == nil {
			st.InReadingLists = make(map[uuid.UUID]struct{})
		}

		if _, ok := st.InReadingLists[userID]; ok {
			delete(st.InReadingLists, userID)
		} else {
			st.InReadingLists[userID] = struct{}{}
		}

		st.Stats.ReadingListCount = int32(len(st.InReadingLists))
		st.UpdatedAt = time.Now().UTC()

		_, res.Active = st.InReadingLists[userID]
		res.Count = st.Stats.ReadingListCount

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &res, nil
}

// SubmitRating — выставление оценки истории (одна оценка на пользователя,
// повторная отправка заменяет прежнюю).
//
// Валидация:
//   - storyID и userID обязательны;
//   - rating в диапазоне [1, 5], иначе ErrInvalidArgument.
//
// RatingCount и AverageRating пересчитываются из полной карты оценок
// в той же мутации.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) SubmitRating(ctx context.Context, storyID, userID uuid.UUID, rating int32) (*models.RatingResult, error) {
	const op = "service/engagement/SubmitRating"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "user_id", userID.String(), "rating", rating)

	if storyID == uuid.Nil || userID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if rating < 1 || rating > 5 {
		lg.Warn("invalid argument: rating out of range")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var res models.RatingResult

	_, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if st.Ratings == nil {
			st.Ratings = make(map[uuid.UUID]int32)
		}

		st.Ratings[userID] = rating

		var sum int64
		for _, r := range st.Ratings {
			sum += int64(r)
		}

		st.Stats.RatingCount = int32(len(st.Ratings))
		st.Stats.AverageRating = float64(sum) / float64(len(st.Ratings))
		st.Stats.EngagementScore = s.score(st.Stats)
		st.UpdatedAt = time.Now().UTC()

		res.RatingCount = st.Stats.RatingCount
		res.AverageRating = st.Stats.AverageRating

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &res, nil
}
