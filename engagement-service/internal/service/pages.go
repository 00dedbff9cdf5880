package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/pkg/log"
)

// Страницы историй и прогресс чтения.
//
// Страницы нумеруются подряд с 1; удаление перенумеровывает хвост.
// Пострничные счётчики просмотров независимы от views всей истории.

// AddPageInput — добавление страницы к истории.
// Position == nil — страница добавляется в конец; иначе вставка на позицию
// в диапазоне [1, pageCount+1] со сдвигом последующих страниц.
type AddPageInput struct {
	StoryID  uuid.UUID
	Actor    Actor
	Content  string
	Position *int32
}

// UpdateReadingProgressInput — обновление прогресса чтения.
type UpdateReadingProgressInput struct {
	StoryID          uuid.UUID
	UserID           uuid.UUID
	CurrentPage      int32
	TimeSpentDeltaSec int64
}

// validatePageContent нормализует контент страницы и проверяет границы длины (в рунах).
func (s *Service) validatePageContent(content string) (string, error) {
	content = strings.TrimSpace(content)

	n := utf8.RuneCountInString(content)
	if n < s.cfg.Limits.PageMinLen || n > s.cfg.Limits.PageMaxLen {
		return "", ErrInvalidArgument
	}

	return content, nil
}

// buildPage считает word_count (по whitespace-токенам) и время чтения
// readingTimeMinutes = ceil(words / WPM).
func (s *Service) buildPage(number int32, content string, now time.Time) models.Page {
	words := int32(len(strings.Fields(content)))
	wpm := s.cfg.Reading.WordsPerMinute

	return models.Page{
		Number:             number,
		Content:            content,
		WordCount:          words,
		ReadingTimeMinutes: (words + wpm - 1) / wpm,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// recalcPageTotals пересчитывает постраничные агрегаты истории.
func recalcPageTotals(st *models.Story) {
	var words, minutes int32
	for i := range st.Pages {
		words += st.Pages[i].WordCount
		minutes += st.Pages[i].ReadingTimeMinutes
	}

	st.Stats.PageCount = int32(len(st.Pages))
	st.Stats.TotalWordCount = words
	st.Stats.TotalReadingTime = minutes
}

// AddPage — добавление страницы автором или соавтором.
//
// Валидация:
//   - контент в границах длины (ErrInvalidArgument);
//   - позиция, если задана, в [1, pageCount+1] (ErrInvalidArgument).
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) AddPage(ctx context.Context, in AddPageInput) (*models.Page, error) {
	const op = "service/pages/AddPage"

	lg := log.From(ctx).With("op", op, "story_id", in.StoryID.String(), "actor_id", in.Actor.UserID.String())

	if in.StoryID == uuid.Nil || in.Actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content, err := s.validatePageContent(in.Content)
	if err != nil {
		lg.Warn("invalid argument: content out of bounds")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var created models.Page

	_, err = s.storage.UpdateStory(ctx, in.StoryID, func(st *models.Story) error {
		if !st.IsCollaborator(in.Actor.UserID) {
			return ErrForbidden
		}

		now := time.Now().UTC()
		pos := int32(len(st.Pages)) + 1
		if in.Position != nil {
			pos = *in.Position
			if pos < 1 || pos > int32(len(st.Pages))+1 {
				return ErrInvalidArgument
			}
		}

		page := s.buildPage(pos, content, now)

		// Вставка со сдвигом хвоста; нумерация остаётся сплошной с 1.
		st.Pages = append(st.Pages, models.Page{})
		copy(st.Pages[pos:], st.Pages[pos-1:])
		st.Pages[pos-1] = page
		for i := range st.Pages {
			st.Pages[i].Number = int32(i) + 1
		}

		recalcPageTotals(st)
		st.UpdatedAt = now

		created = st.Pages[pos-1]

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &created, nil
}

// UpdatePage — замена контента страницы (автор/соавтор), с пересчётом
// word_count, времени чтения и агрегатов истории.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) UpdatePage(ctx context.Context, storyID uuid.UUID, pageNumber int32, actor Actor, newContent string) (*models.Page, error) {
	const op = "service/pages/UpdatePage"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "page", pageNumber, "actor_id", actor.UserID.String())

	if storyID == uuid.Nil || actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content, err := s.validatePageContent(newContent)
	if err != nil {
		lg.Warn("invalid argument: content out of bounds")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var updated models.Page

	_, err = s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if !st.IsCollaborator(actor.UserID) {
			return ErrForbidden
		}

		idx := st.PageByNumber(pageNumber)
		if idx < 0 {
			return ErrNotFound
		}

		now := time.Now().UTC()
		page := s.buildPage(pageNumber, content, now)
		page.CreatedAt = st.Pages[idx].CreatedAt
		st.Pages[idx] = page

		recalcPageTotals(st)
		st.UpdatedAt = now

		updated = st.Pages[idx]

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &updated, nil
}

// DeletePage — удаление страницы с перенумерацией хвоста (сплошная нумерация
// с 1 сохраняется). Удаление единственной страницы запрещено.
// Постраничные счётчики просмотров сдвигаются вслед за перенумерацией.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) DeletePage(ctx context.Context, storyID uuid.UUID, pageNumber int32, actor Actor) error {
	const op = "service/pages/DeletePage"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "page", pageNumber, "actor_id", actor.UserID.String())

	if storyID == uuid.Nil || actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	_, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if !st.IsCollaborator(actor.UserID) {
			return ErrForbidden
		}

		if len(st.Pages) <= 1 {
			return ErrInvalidArgument
		}

		idx := st.PageByNumber(pageNumber)
		if idx < 0 {
			return ErrNotFound
		}

		st.Pages = append(st.Pages[:idx], st.Pages[idx+1:]...)
		for i := range st.Pages {
			st.Pages[i].Number = int32(i) + 1
		}

		// Сдвигаем счётчики просмотров выше удалённой страницы.
		if st.Stats.PageViews != nil {
			delete(st.Stats.PageViews, pageNumber)
			shifted := make(map[int32]int64, len(st.Stats.PageViews))
			for n, v := range st.Stats.PageViews {
				if n > pageNumber {
					shifted[n-1] = v
				} else {
					shifted[n] = v
				}
			}
			st.Stats.PageViews = shifted
		}

		recalcPageTotals(st)
		st.UpdatedAt = time.Now().UTC()

		return nil
	})
	if err != nil {
		return storErr(op, lg, err)
	}

	return nil
}

// GetPage — чтение страницы с навигационными флагами.
//
// Авторизация: опубликованная история доступна всем; черновик — только
// автору/соавтору (ErrForbidden). Успешное чтение фиксирует просмотр
// страницы через TrackPageView.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrInternal.
func (s *Service) GetPage(ctx context.Context, storyID uuid.UUID, pageNumber int32, actor Actor) (*models.PageView, error) {
	const op = "service/pages/GetPage"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "page", pageNumber)

	if storyID == uuid.Nil {
		lg.Warn("invalid argument: empty story_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	st, err := s.storage.StoryByID(ctx, storyID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	if !st.IsPublished && !st.IsCollaborator(actor.UserID) {
		lg.Warn("forbidden: story is not published")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	idx := st.PageByNumber(pageNumber)
	if idx < 0 {
		lg.Warn("page not found")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := s.TrackPageView(ctx, storyID, pageNumber); err != nil {
		// Потеря одного инкремента просмотров не должна ломать чтение.
		lg.Warn("page view tracking failed", "err", err)
	}

	return &models.PageView{
		Page:        st.Pages[idx],
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < int32(len(st.Pages)),
		PageCount:   int32(len(st.Pages)),
	}, nil
}

// TrackPageView — инкремент счётчика просмотров страницы. Независим от
// views всей истории (тот растёт при полном чтении истории, см. GetStory).
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) TrackPageView(ctx context.Context, storyID uuid.UUID, pageNumber int32) error {
	const op = "service/pages/TrackPageView"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "page", pageNumber)

	if storyID == uuid.Nil {
		lg.Warn("invalid argument: empty story_id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	_, err := s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		if st.PageByNumber(pageNumber) < 0 {
			return ErrNotFound
		}

		if st.Stats.PageViews == nil {
			st.Stats.PageViews = make(map[int32]int64)
		}

		st.Stats.PageViews[pageNumber]++

		return nil
	})
	if err != nil {
		return storErr(op, lg, err)
	}

	return nil
}

// UpdateReadingProgress — upsert прогресса чтения пользователя.
//
// Валидация:
//   - CurrentPage в [1, pageCount] (ErrInvalidArgument);
//   - отрицательная дельта времени запрещена: накопленное время монотонно.
//
// Completed выставляется при достижении последней страницы и дальше
// не сбрасывается.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) UpdateReadingProgress(ctx context.Context, in UpdateReadingProgressInput) (*models.ReadingProgress, error) {
	const op = "service/pages/UpdateReadingProgress"

	lg := log.From(ctx).With("op", op, "story_id", in.StoryID.String(), "user_id", in.UserID.String())

	if in.StoryID == uuid.Nil || in.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.TimeSpentDeltaSec < 0 {
		lg.Warn("invalid argument: negative time delta")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var res models.ReadingProgress

	_, err := s.storage.UpdateStory(ctx, in.StoryID, func(st *models.Story) error {
		if in.CurrentPage < 1 || in.CurrentPage > int32(len(st.Pages)) {
			return ErrInvalidArgument
		}

		if st.ReadingProgress == nil {
			st.ReadingProgress = make(map[uuid.UUID]models.ReadingProgress)
		}

		rp := st.ReadingProgress[in.UserID]
		rp.CurrentPage = in.CurrentPage
		rp.TimeSpentSeconds += in.TimeSpentDeltaSec
		rp.LastReadAt = time.Now().UTC()
		if in.CurrentPage == int32(len(st.Pages)) {
			rp.Completed = true
		}

		st.ReadingProgress[in.UserID] = rp
		res = rp

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &res, nil
}

// GetReadingProgress — прогресс чтения пользователя; при отсутствии записи
// возвращается дефолт {CurrentPage: 1, Completed: false, TimeSpentSeconds: 0}.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrInternal.
func (s *Service) GetReadingProgress(ctx context.Context, storyID, userID uuid.UUID) (*models.ReadingProgress, error) {
	const op = "service/pages/GetReadingProgress"

	lg := log.From(ctx).With("op", op, "story_id", storyID.String(), "user_id", userID.String())

	if storyID == uuid.Nil || userID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	st, err := s.storage.StoryByID(ctx, storyID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	if rp, ok := st.ReadingProgress[userID]; ok {
		out := rp
		return &out, nil
	}

	return &models.ReadingProgress{CurrentPage: 1}, nil
}
