package models

import (
	"time"

	"github.com/google/uuid"
)

// CommentStatus — статус жизненного цикла комментария.
// Машина состояний (начальное active, терминальное deleted):
//
//	active  -> flagged          (автофлаг по порогу жалоб)
//	active  -> hidden|deleted   (модератор)
//	flagged -> active           (approve: жалобы очищаются)
//	flagged -> hidden|deleted   (модератор)
//	hidden  -> active|deleted   (модератор)
//	*       -> deleted          (терминально, обратного ребра нет)
type CommentStatus string

const (
	CommentActive  CommentStatus = "active"
	CommentFlagged CommentStatus = "flagged"
	CommentHidden  CommentStatus = "hidden"
	CommentDeleted CommentStatus = "deleted"
)

// ModerationAction — закрытый набор модераторских действий.
// Диспетчеризация по нему всегда исчерпывающая (switch с default-ошибкой),
// свободные строки сюда не попадают.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionHide    ModerationAction = "hide"
	ActionDelete  ModerationAction = "delete"
)

// ParseModerationAction валидирует внешнюю строку действия.
func ParseModerationAction(s string) (ModerationAction, bool) {
	switch ModerationAction(s) {
	case ActionApprove, ActionHide, ActionDelete:
		return ModerationAction(s), true
	default:
		return "", false
	}
}

// Report — одна жалоба на комментарий. Уникальность — по UserID:
// повторная жалоба того же пользователя является no-op.
type Report struct {
	UserID    uuid.UUID
	Reason    string
	CreatedAt time.Time
}

// EditSnapshot — снимок контента до очередного редактирования
// (append-only история).
type EditSnapshot struct {
	Content  string
	EditedAt time.Time
}

// CommentEngagement — счётчики вовлечённости комментария.
// Инварианты: LikesCount == |LikedBy|, ReportCount == |ReportedBy|,
// RepliesCount == числу прямых неудалённых детей.
type CommentEngagement struct {
	LikedBy      map[uuid.UUID]struct{}
	LikesCount   int32
	ReportedBy   []Report
	ReportCount  int32
	RepliesCount int32
}

// Comment — внутренняя доменная модель комментария.
// Важно:
//   - ID — непрозрачная строка, назначается стораджем.
//   - ParentID — ID родителя; пусто для корневого. Глубина дерева <= 1:
//     ответ на ответ запрещён.
//   - IsPinned ортогонален статусу; IsPinned => PinnedBy != nil.
//   - Version — монотонный счётчик для optimistic CAS в mongo-сторадже.
type Comment struct {
	ID          string
	StoryID     uuid.UUID
	ParentID    string
	AuthorID    uuid.UUID
	Content     string
	Status      CommentStatus
	AutoFlagged bool
	Engagement  CommentEngagement
	IsPinned    bool
	PinnedBy    *uuid.UUID
	EditHistory []EditSnapshot
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// ReportedBy сообщает, жаловался ли userID на комментарий.
func (c *Comment) ReportedBy(userID uuid.UUID) bool {
	for i := range c.Engagement.ReportedBy {
		if c.Engagement.ReportedBy[i].UserID == userID {
			return true
		}
	}

	return false
}

// CommentSort — ключ сортировки публичной выдачи комментариев.
type CommentSort string

const (
	SortNewest  CommentSort = "newest"
	SortOldest  CommentSort = "oldest"
	SortPopular CommentSort = "popular"
)

// ParseCommentSort валидирует внешний ключ сортировки; пустая строка — newest.
func ParseCommentSort(s string) (CommentSort, bool) {
	switch CommentSort(s) {
	case "":
		return SortNewest, true
	case SortNewest, SortOldest, SortPopular:
		return CommentSort(s), true
	default:
		return "", false
	}
}

// CommentThread — корневой комментарий с прямыми активными ответами
// в хронологическом порядке.
type CommentThread struct {
	Comment Comment
	Replies []Comment
}

// CommentPage — страница выдачи ListComments.
type CommentPage struct {
	Threads    []CommentThread
	Page       int32
	PageSize   int32
	TotalRoots int32
}
