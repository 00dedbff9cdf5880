package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/storage"
	"github.com/VelvetQuill/velvetquill-backend/pkg/log"
)

// Модерация комментариев: жизненный цикл, жалобы, пин, каскадное удаление.
//
// Машина состояний описана у models.CommentStatus. Кросс-агрегатные каскады
// (replies_count родителя, comment_count истории) применяются отдельной
// атомарной мутацией на каждый затронутый агрегат; сами счётчики при этом
// пересчитываются из индексов, а не инкрементируются вслепую.

// Входные структуры сервисного слоя.

// CreateCommentInput — создание корневого комментария или ответа.
// Если ParentID не пуст, создаётся ответ; родитель обязан принадлежать той же
// истории, быть неудалённым и сам быть корневым (глубина дерева <= 1).
type CreateCommentInput struct {
	StoryID  uuid.UUID
	AuthorID uuid.UUID
	ParentID string
	Content  string
}

// ListCommentsInput — параметры публичной выдачи комментариев истории.
type ListCommentsInput struct {
	StoryID  uuid.UUID
	Page     int32
	PageSize int32
	Sort     models.CommentSort
}

// ListFlaggedInput — параметры модераторской очереди flagged-комментариев.
type ListFlaggedInput struct {
	StoryID  uuid.UUID
	Actor    Actor
	Page     int32
	PageSize int32
}

// validateCommentContent нормализует контент и проверяет границы длины (в рунах).
func (s *Service) validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)

	n := utf8.RuneCountInString(content)
	if n < s.cfg.Limits.CommentMinLen || n > s.cfg.Limits.CommentMaxLen {
		return "", ErrInvalidArgument
	}

	return content, nil
}

// CreateComment — бизнес-операция создания комментария.
//
// Валидация:
//   - StoryID и AuthorID обязательны (uuid.Nil -> ErrInvalidArgument);
//   - Content нормализуется (TrimSpace) и обязан попадать в границы длины;
//   - при ParentID: родитель существует и не удалён (иначе ErrNotFound),
//     принадлежит той же истории и является корневым (иначе ErrInvalidArgument).
//
// Каскад: у родителя пересчитывается replies_count, у истории — comment_count
// и engagement score.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInternal.
func (s *Service) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	const op = "service/comments/CreateComment"

	lg := log.From(ctx).With(
		"op", op,
		"story_id", in.StoryID.String(),
		"author_id", in.AuthorID.String(),
		"parent_id", in.ParentID,
	)

	if in.StoryID == uuid.Nil || in.AuthorID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content, err := s.validateCommentContent(in.Content)
	if err != nil {
		lg.Warn("invalid argument: content out of bounds")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, err := s.storage.StoryByID(ctx, in.StoryID); err != nil {
		return nil, storErr(op, lg, err)
	}

	in.ParentID = strings.TrimSpace(in.ParentID)
	if in.ParentID != "" {
		parent, err := s.storage.CommentByID(ctx, in.ParentID)
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		if parent.Status == models.CommentDeleted {
			lg.Warn("parent is deleted")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		if parent.StoryID != in.StoryID {
			lg.Warn("parent belongs to another story")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		// Глубина дерева <= 1: отвечать можно только на корневой комментарий.
		if parent.ParentID != "" {
			lg.Warn("max reply depth exceeded")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
	}

	now := time.Now().UTC()
	comm := models.Comment{
		StoryID:  in.StoryID,
		ParentID: in.ParentID,
		AuthorID: in.AuthorID,
		Content:  content,
		Status:   models.CommentActive,
		Engagement: models.CommentEngagement{
			LikedBy: make(map[uuid.UUID]struct{}),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.storage.CreateComment(ctx, comm)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	if created.ParentID != "" {
		if _, err := s.syncRepliesCount(ctx, created.ParentID); err != nil {
			return nil, storErr(op, lg, err)
		}
	}

	if _, err := s.syncStoryCommentCount(ctx, created.StoryID); err != nil {
		return nil, storErr(op, lg, err)
	}

	return created, nil
}

// ToggleCommentLike — идемпотентное переключение лайка комментария.
// Лайки удалённых комментариев запрещены (ErrInvalidState).
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrInvalidState, ErrConflict, ErrInternal.
func (s *Service) ToggleCommentLike(ctx context.Context, commentID string, userID uuid.UUID) (*models.ToggleResult, error) {
	const op = "service/comments/ToggleCommentLike"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID, "user_id", userID.String())

	if commentID == "" || userID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	var res models.ToggleResult

	_, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
		if c.Status == models.CommentDeleted {
			return ErrInvalidState
		}

		if c.Engagement.LikedBy == nil {
			c.Engagement.LikedBy = make(map[uuid.UUID]struct{})
		}

		if _, ok := c.Engagement.LikedBy[userID]; ok {
			delete(c.Engagement.LikedBy, userID)
		} else {
			c.Engagement.LikedBy[userID] = struct{}{}
		}

		c.Engagement.LikesCount = int32(len(c.Engagement.LikedBy))
		c.UpdatedAt = time.Now().UTC()

		_, res.Active = c.Engagement.LikedBy[userID]
		res.Count = c.Engagement.LikesCount

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return &res, nil
}

// ReportComment — жалоба на комментарий.
//
// Поведение:
//   - повторная жалоба того же пользователя — no-op (не ошибка);
//   - report_count выводится из множества жалоб в той же мутации;
//   - при достижении порога AutoFlagThreshold активный комментарий
//     автоматически переводится в flagged c auto_flagged=true.
//
// Ошибки: ErrInvalidArgument, ErrNotFound (включая удалённый), ErrConflict, ErrInternal.
func (s *Service) ReportComment(ctx context.Context, commentID string, reporterID uuid.UUID, reason string) (*models.Comment, error) {
	const op = "service/comments/ReportComment"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID, "reporter_id", reporterID.String())

	if commentID == "" || reporterID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		lg.Warn("invalid argument: empty reason")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	updated, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
		if c.Status == models.CommentDeleted {
			return ErrNotFound
		}

		if c.ReportedBy(reporterID) {
			// Идемпотентность: вторая жалоба того же пользователя ничего не меняет.
			return nil
		}

		c.Engagement.ReportedBy = append(c.Engagement.ReportedBy, models.Report{
			UserID:    reporterID,
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
		})
		c.Engagement.ReportCount = int32(len(c.Engagement.ReportedBy))

		if c.Status == models.CommentActive && c.Engagement.ReportCount >= s.cfg.Moderation.AutoFlagThreshold {
			c.Status = models.CommentFlagged
			c.AutoFlagged = true
			lg.Info("comment auto-flagged", "report_count", c.Engagement.ReportCount)
		}

		c.UpdatedAt = time.Now().UTC()

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return updated, nil
}

// ModerateComment — модераторское действие над комментарием (только админ).
//
// Разрешённые переходы:
//   - approve: flagged|hidden -> active (множество жалоб очищается);
//   - hide:    active|flagged -> hidden;
//   - delete:  любой неудалённый -> deleted (каскад на потомков).
//
// Действие над уже удалённым комментарием — ErrNotFound; недопустимый
// переход — ErrInvalidState.
func (s *Service) ModerateComment(ctx context.Context, commentID string, moderator Actor, action models.ModerationAction, reason string) (*models.Comment, error) {
	const op = "service/comments/ModerateComment"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With(
		"op", op,
		"comment_id", commentID,
		"moderator_id", moderator.UserID.String(),
		"action", string(action),
	)

	if commentID == "" || moderator.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if !moderator.IsAdmin() {
		lg.Warn("forbidden: moderator role required")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	switch action {
	case models.ActionApprove:
		updated, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
			switch c.Status {
			case models.CommentDeleted:
				return ErrNotFound
			case models.CommentFlagged, models.CommentHidden:
				c.Status = models.CommentActive
				c.AutoFlagged = false
				c.Engagement.ReportedBy = nil
				c.Engagement.ReportCount = 0
				c.UpdatedAt = time.Now().UTC()
				return nil
			default:
				return ErrInvalidState
			}
		})
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		lg.Info("comment approved", "reason", reason)
		return updated, nil

	case models.ActionHide:
		updated, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
			switch c.Status {
			case models.CommentDeleted:
				return ErrNotFound
			case models.CommentActive, models.CommentFlagged:
				c.Status = models.CommentHidden
				c.UpdatedAt = time.Now().UTC()
				return nil
			default:
				return ErrInvalidState
			}
		})
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		lg.Info("comment hidden", "reason", reason)
		return updated, nil

	case models.ActionDelete:
		comm, err := s.storage.CommentByID(ctx, commentID)
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		if comm.Status == models.CommentDeleted {
			lg.Warn("comment already deleted")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		deleted, err := s.cascadeDelete(ctx, comm)
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		lg.Info("comment deleted by moderator", "reason", reason, "removed", deleted)

		out, err := s.storage.CommentByID(ctx, commentID)
		if err != nil {
			return nil, storErr(op, lg, err)
		}

		return out, nil

	default:
		lg.Warn("invalid argument: unknown action")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}
}

// PinComment закрепляет комментарий. Право есть у автора истории и у админа.
// Закрепление удалённого комментария — ErrInvalidState.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrForbidden, ErrInvalidState,
// ErrConflict, ErrInternal.
func (s *Service) PinComment(ctx context.Context, commentID string, requester Actor) (*models.Comment, error) {
	return s.setPinned(ctx, "service/comments/PinComment", commentID, requester, true)
}

// UnpinComment снимает закрепление; авторизация и ошибки как у PinComment.
func (s *Service) UnpinComment(ctx context.Context, commentID string, requester Actor) (*models.Comment, error) {
	return s.setPinned(ctx, "service/comments/UnpinComment", commentID, requester, false)
}

func (s *Service) setPinned(ctx context.Context, op, commentID string, requester Actor, pinned bool) (*models.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID, "requester_id", requester.UserID.String())

	if commentID == "" || requester.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comm, err := s.storage.CommentByID(ctx, commentID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	story, err := s.storage.StoryByID(ctx, comm.StoryID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	if story.AuthorID != requester.UserID && !requester.IsAdmin() {
		lg.Warn("forbidden: story author or admin required")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	updated, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
		if c.Status == models.CommentDeleted {
			return ErrInvalidState
		}

		c.IsPinned = pinned
		if pinned {
			uid := requester.UserID
			c.PinnedBy = &uid
		} else {
			c.PinnedBy = nil
		}
		c.UpdatedAt = time.Now().UTC()

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return updated, nil
}

// EditComment — редактирование комментария его автором.
// Прежний контент уходит в append-only историю редакций (глубина ограничена
// конфигурацией: старейшие снимки вытесняются).
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrForbidden, ErrConflict, ErrInternal.
func (s *Service) EditComment(ctx context.Context, commentID string, authorID uuid.UUID, newContent string) (*models.Comment, error) {
	const op = "service/comments/EditComment"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID, "author_id", authorID.String())

	if commentID == "" || authorID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	content, err := s.validateCommentContent(newContent)
	if err != nil {
		lg.Warn("invalid argument: content out of bounds")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	updated, err := s.storage.UpdateComment(ctx, commentID, func(c *models.Comment) error {
		if c.Status == models.CommentDeleted {
			return ErrNotFound
		}

		if c.AuthorID != authorID {
			return ErrForbidden
		}

		now := time.Now().UTC()
		c.EditHistory = append(c.EditHistory, models.EditSnapshot{
			Content:  c.Content,
			EditedAt: now,
		})
		if max := s.cfg.Limits.EditHistoryDepth; len(c.EditHistory) > max {
			c.EditHistory = c.EditHistory[len(c.EditHistory)-max:]
		}

		c.Content = content
		c.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	return updated, nil
}

// DeleteComment — удаление комментария автором или админом, с каскадом
// на всех потомков. Повторное удаление — ErrNotFound.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrForbidden, ErrConflict, ErrInternal.
func (s *Service) DeleteComment(ctx context.Context, commentID string, requester Actor) error {
	const op = "service/comments/DeleteComment"

	commentID = strings.TrimSpace(commentID)
	lg := log.From(ctx).With("op", op, "comment_id", commentID, "requester_id", requester.UserID.String())

	if commentID == "" || requester.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comm, err := s.storage.CommentByID(ctx, commentID)
	if err != nil {
		return storErr(op, lg, err)
	}

	if comm.Status == models.CommentDeleted {
		lg.Warn("comment already deleted")
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if comm.AuthorID != requester.UserID && !requester.IsAdmin() {
		lg.Warn("forbidden: comment author or admin required")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	removed, err := s.cascadeDelete(ctx, comm)
	if err != nil {
		return storErr(op, lg, err)
	}

	lg.Info("comment deleted", "removed", removed)

	return nil
}

// cascadeDelete удаляет комментарий и всех его потомков.
//
// Обход — итеративный BFS по индексу parent -> children (никакой рекурсии:
// память ограничена шириной очереди независимо от формы дерева). Для каждого
// снятого живого комментария история теряет ровно единицу comment_count —
// после каскада счётчик пересчитывается из полного множества комментариев,
// что даёт ровно N+1 при N живых потомках. У выжившего родителя
// пересчитывается replies_count.
func (s *Service) cascadeDelete(ctx context.Context, root *models.Comment) (int, error) {
	// Фаза 1: собрать подлежащие удалению id обходом в ширину.
	ids := make([]string, 0, 8)
	queue := []string{root.ID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ids = append(ids, id)

		children, err := s.storage.ChildrenOf(ctx, id)
		if err != nil {
			return 0, err
		}

		for i := range children {
			queue = append(queue, children[i].ID)
		}
	}

	// Фаза 2: пометить каждый узел удалённым (идемпотентно; уже удалённые
	// потомки пропускаются). Удаление снимает закрепление.
	removed := 0
	for _, id := range ids {
		skipped := false

		_, err := s.storage.UpdateComment(ctx, id, func(c *models.Comment) error {
			if c.Status == models.CommentDeleted {
				skipped = true
				return nil
			}

			c.Status = models.CommentDeleted
			c.IsPinned = false
			c.PinnedBy = nil
			c.UpdatedAt = time.Now().UTC()

			return nil
		})
		if err != nil {
			return removed, err
		}

		if !skipped {
			removed++
		}
	}

	// Фаза 3: каскадные поправки счётчиков на затронутых агрегатах.
	if root.ParentID != "" {
		parent, err := s.storage.CommentByID(ctx, root.ParentID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			// Родителя уже нет — пересчитывать нечего.
		case err != nil:
			return removed, err
		case parent.Status != models.CommentDeleted:
			if _, err := s.syncRepliesCount(ctx, root.ParentID); err != nil {
				return removed, err
			}
		}
	}

	if _, err := s.syncStoryCommentCount(ctx, root.StoryID); err != nil {
		return removed, err
	}

	return removed, nil
}

// syncRepliesCount пересчитывает replies_count родителя из индекса детей
// внутри атомарной мутации самого родителя.
func (s *Service) syncRepliesCount(ctx context.Context, parentID string) (*models.Comment, error) {
	return s.storage.UpdateComment(ctx, parentID, func(c *models.Comment) error {
		children, err := s.storage.ChildrenOf(ctx, parentID)
		if err != nil {
			return err
		}

		var live int32
		for i := range children {
			if children[i].Status != models.CommentDeleted {
				live++
			}
		}

		c.Engagement.RepliesCount = live
		c.UpdatedAt = time.Now().UTC()

		return nil
	})
}

// syncStoryCommentCount пересчитывает comment_count истории из полного
// множества её неудалённых комментариев и обновляет engagement score.
func (s *Service) syncStoryCommentCount(ctx context.Context, storyID uuid.UUID) (*models.Story, error) {
	return s.storage.UpdateStory(ctx, storyID, func(st *models.Story) error {
		all, err := s.storage.CommentsByStory(ctx, storyID)
		if err != nil {
			return err
		}

		var live int32
		for i := range all {
			if all[i].Status != models.CommentDeleted {
				live++
			}
		}

		st.Stats.CommentCount = live
		st.Stats.EngagementScore = s.score(st.Stats)
		st.UpdatedAt = time.Now().UTC()

		return nil
	})
}

// ListComments — публичная постраничная выдача комментариев истории:
// только корневые active-комментарии, закреплённые первыми, далее по ключу
// сортировки; у каждого корня — его прямые active-ответы в хронологическом
// порядке. Flagged/hidden/deleted в выдачу не попадают.
//
// Ошибки: ErrInvalidArgument, ErrNotFound, ErrInternal.
func (s *Service) ListComments(ctx context.Context, in ListCommentsInput) (*models.CommentPage, error) {
	const op = "service/comments/ListComments"

	lg := log.From(ctx).With("op", op, "story_id", in.StoryID.String())

	if in.StoryID == uuid.Nil {
		lg.Warn("invalid argument: empty story_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if _, ok := models.ParseCommentSort(string(in.Sort)); !ok {
		lg.Warn("invalid argument: unknown sort key")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if in.Sort == "" {
		in.Sort = models.SortNewest
	}

	page, size := s.normalizePage(in.Page, in.PageSize)

	if _, err := s.storage.StoryByID(ctx, in.StoryID); err != nil {
		return nil, storErr(op, lg, err)
	}

	all, err := s.storage.CommentsByStory(ctx, in.StoryID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	roots := make([]models.Comment, 0, len(all))
	repliesByParent := make(map[string][]models.Comment)

	for i := range all {
		c := all[i]
		if c.Status != models.CommentActive {
			continue
		}

		if c.ParentID == "" {
			roots = append(roots, c)
		} else {
			repliesByParent[c.ParentID] = append(repliesByParent[c.ParentID], c)
		}
	}

	sortRoots(roots, in.Sort)

	total := int32(len(roots))
	start, end := pageBounds(page, size, len(roots))

	threads := make([]models.CommentThread, 0, end-start)
	for _, root := range roots[start:end] {
		replies := repliesByParent[root.ID]
		sort.SliceStable(replies, func(i, j int) bool {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		})

		threads = append(threads, models.CommentThread{
			Comment: root,
			Replies: replies,
		})
	}

	return &models.CommentPage{
		Threads:    threads,
		Page:       page,
		PageSize:   size,
		TotalRoots: total,
	}, nil
}

// ListFlaggedComments — модераторская очередь flagged-комментариев истории
// (только админ), самые обжалованные первыми.
//
// Ошибки: ErrInvalidArgument, ErrForbidden, ErrNotFound, ErrInternal.
func (s *Service) ListFlaggedComments(ctx context.Context, in ListFlaggedInput) ([]models.Comment, error) {
	const op = "service/comments/ListFlaggedComments"

	lg := log.From(ctx).With("op", op, "story_id", in.StoryID.String(), "actor_id", in.Actor.UserID.String())

	if in.StoryID == uuid.Nil || in.Actor.UserID == uuid.Nil {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if !in.Actor.IsAdmin() {
		lg.Warn("forbidden: moderator role required")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	page, size := s.normalizePage(in.Page, in.PageSize)

	if _, err := s.storage.StoryByID(ctx, in.StoryID); err != nil {
		return nil, storErr(op, lg, err)
	}

	all, err := s.storage.CommentsByStory(ctx, in.StoryID)
	if err != nil {
		return nil, storErr(op, lg, err)
	}

	flagged := make([]models.Comment, 0)
	for i := range all {
		if all[i].Status == models.CommentFlagged {
			flagged = append(flagged, all[i])
		}
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Engagement.ReportCount != flagged[j].Engagement.ReportCount {
			return flagged[i].Engagement.ReportCount > flagged[j].Engagement.ReportCount
		}
		return flagged[i].CreatedAt.Before(flagged[j].CreatedAt)
	})

	start, end := pageBounds(page, size, len(flagged))

	return flagged[start:end], nil
}

// normalizePage приводит страницу/размер к допустимым границам.
func (s *Service) normalizePage(page, size int32) (int32, int32) {
	if page < 1 {
		page = 1
	}

	if size <= 0 {
		size = s.cfg.Limits.Default
	}

	if size > s.cfg.Limits.Max {
		size = s.cfg.Limits.Max
	}

	return page, size
}

// pageBounds возвращает границы среза [start:end] для страницы page размера
// size при total элементах. Смещение считается в int64: page*size за пределами
// int32 даёт пустую страницу, а не переполнение.
func pageBounds(page, size int32, total int) (int, int) {
	start := int64(page-1) * int64(size)
	if start > int64(total) {
		start = int64(total)
	}

	end := start + int64(size)
	if end > int64(total) {
		end = int64(total)
	}

	return int(start), int(end)
}

// sortRoots упорядочивает корневые комментарии: закреплённые первыми,
// внутри групп — по ключу сортировки.
func sortRoots(roots []models.Comment, key models.CommentSort) {
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].IsPinned != roots[j].IsPinned {
			return roots[i].IsPinned
		}

		switch key {
		case models.SortOldest:
			return roots[i].CreatedAt.Before(roots[j].CreatedAt)
		case models.SortPopular:
			if roots[i].Engagement.LikesCount != roots[j].Engagement.LikesCount {
				return roots[i].Engagement.LikesCount > roots[j].Engagement.LikesCount
			}
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		default: // SortNewest
			return roots[i].CreatedAt.After(roots[j].CreatedAt)
		}
	})
}
