// Package models содержит доменные сущности engagement-сервиса.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Story — агрегат многостраничной истории.
// Важно:
//   - Story мутируется только целиком, через атомарный read-modify-write
//     слоя storage: счётчики в Stats всегда пересчитываются из backing-множеств
//     (LikedBy/InReadingLists/Ratings) внутри той же мутации, отдельных
//     инкрементов нет — иначе при конкурентных вызовах они расходятся.
//   - Pages упорядочены и нумеруются подряд с 1.
//   - CommentCount живёт в Stats, но им управляет модерационный каскад
//     комментариев (см. service/comments).
//   - Version — монотонный счётчик для optimistic CAS в mongo-сторадже.
type Story struct {
	ID            uuid.UUID
	AuthorID      uuid.UUID
	Collaborators map[uuid.UUID]struct{}
	Title         string
	Pages         []Page
	Stats         StoryStats
	LikedBy       map[uuid.UUID]struct{}
	InReadingLists map[uuid.UUID]struct{}
	// Ratings — оценка 1..5 на пользователя; повторная отправка заменяет прежнюю.
	Ratings         map[uuid.UUID]int32
	ReadingProgress map[uuid.UUID]ReadingProgress
	IsPublished     bool
	IsFeatured      bool
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Page — одна страница истории.
type Page struct {
	Number             int32
	Content            string
	WordCount          int32
	ReadingTimeMinutes int32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StoryStats — денормализованные счётчики и производные метрики истории.
// Инварианты (поддерживаются сервисным слоем):
//   - LikesCount == |LikedBy|, ReadingListCount == |InReadingLists|,
//     RatingCount == |Ratings|, AverageRating == mean(Ratings);
//   - CommentCount == число неудалённых комментариев истории;
//   - EngagementScore пересчитывается в той же мутации, что изменила вход.
type StoryStats struct {
	Views            int64
	LikesCount       int32
	RatingCount      int32
	AverageRating    float64
	CommentCount     int32
	ReadingListCount int32
	EngagementScore  float64
	// PageViews — просмотры по страницам; независим от Views всей истории.
	PageViews        map[int32]int64
	PageCount        int32
	TotalWordCount   int32
	TotalReadingTime int32
}

// ReadingProgress — прогресс чтения истории одним пользователем.
// TimeSpentSeconds монотонно накапливается и никогда не уменьшается.
type ReadingProgress struct {
	CurrentPage      int32
	Completed        bool
	LastReadAt       time.Time
	TimeSpentSeconds int64
}

// IsCollaborator сообщает, может ли userID править контент истории
// (автор или соавтор).
func (s *Story) IsCollaborator(userID uuid.UUID) bool {
	if s.AuthorID == userID {
		return true
	}

	_, ok := s.Collaborators[userID]
	return ok
}

// PageByNumber возвращает индекс страницы в Pages или -1.
func (s *Story) PageByNumber(n int32) int {
	for i := range s.Pages {
		if s.Pages[i].Number == n {
			return i
		}
	}

	return -1
}

// ToggleResult — результат идемпотентного переключения членства
// (лайк, список чтения).
type ToggleResult struct {
	Active bool
	Count  int32
}

// RatingResult — итог SubmitRating: счётчик и среднее после пересчёта.
type RatingResult struct {
	RatingCount   int32
	AverageRating float64
}

// PageView — страница плюс навигационные флаги для читалки.
type PageView struct {
	Page        Page
	HasPrevious bool
	HasNext     bool
	PageCount   int32
}
