package service

// Тесты страниц и прогресса чтения: нумерация, word count и время чтения,
// постраничные просмотры, монотонный прогресс.

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func int32p(v int32) *int32 { return &v }

func TestAddPage_AppendAndInsert(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	// Без позиции — в конец.
	p, err := svc.AddPage(context.Background(), AddPageInput{
		StoryID: st.ID,
		Actor:   actor,
		Content: pageText(100),
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, p.Number)

	// Вставка в начало сдвигает остальные.
	p, err = svc.AddPage(context.Background(), AddPageInput{
		StoryID:  st.ID,
		Actor:    actor,
		Content:  pageText(80),
		Position: int32p(1),
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, p.Number)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.Len(t, cur.Pages, 3)
	for i := range cur.Pages {
		require.EqualValues(t, i+1, cur.Pages[i].Number)
	}
	require.EqualValues(t, 80, cur.Pages[0].WordCount)
	require.EqualValues(t, 60, cur.Pages[1].WordCount)
	require.EqualValues(t, 100, cur.Pages[2].WordCount)
	require.EqualValues(t, 3, cur.Stats.PageCount)
	require.EqualValues(t, 240, cur.Stats.TotalWordCount)
}

func TestAddPage_InvalidPosition(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	for _, pos := range []int32{0, -1, 3, 100} {
		_, err := svc.AddPage(context.Background(), AddPageInput{
			StoryID:  st.ID,
			Actor:    actor,
			Content:  pageText(60),
			Position: int32p(pos),
		})
		require.ErrorIs(t, err, ErrInvalidArgument, "position=%d", pos)
	}
}

func TestAddPage_Authorization(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	collab := uuid.New()

	st, err := svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         author,
		Title:            "t",
		FirstPageContent: pageText(60),
		Collaborators:    []uuid.UUID{collab},
	})
	require.NoError(t, err)

	// Посторонний — Forbidden.
	_, err = svc.AddPage(context.Background(), AddPageInput{
		StoryID: st.ID,
		Actor:   Actor{UserID: uuid.New(), Role: RoleUser},
		Content: pageText(60),
	})
	require.ErrorIs(t, err, ErrForbidden)

	// Соавтор может.
	_, err = svc.AddPage(context.Background(), AddPageInput{
		StoryID: st.ID,
		Actor:   Actor{UserID: collab, Role: RoleUser},
		Content: pageText(60),
	})
	require.NoError(t, err)
}

// readingTimeMinutes = ceil(words / WPM): 1200 слов при 200 wpm — 6 минут;
// две такие страницы дают totalReadingTime = 12.
func TestReadingTime_CeilAndTotals(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	author := uuid.New()
	actor := Actor{UserID: author, Role: RoleUser}

	st, err := svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         author,
		Title:            "t",
		FirstPageContent: pageText(1200),
	})
	require.NoError(t, err)
	require.EqualValues(t, 6, st.Pages[0].ReadingTimeMinutes)

	_, err = svc.AddPage(context.Background(), AddPageInput{StoryID: st.ID, Actor: actor, Content: pageText(1200)})
	require.NoError(t, err)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2400, cur.Stats.TotalWordCount)
	require.EqualValues(t, 12, cur.Stats.TotalReadingTime)

	// Неполная минута округляется вверх: 201 слово -> 2 минуты.
	p, err := svc.AddPage(context.Background(), AddPageInput{StoryID: st.ID, Actor: actor, Content: pageText(201)})
	require.NoError(t, err)
	require.EqualValues(t, 2, p.ReadingTimeMinutes)
}

func TestUpdatePage_RecalcsAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	orig := st.Pages[0]

	p, err := svc.UpdatePage(context.Background(), st.ID, 1, actor, pageText(400))
	require.NoError(t, err)
	require.EqualValues(t, 400, p.WordCount)
	require.EqualValues(t, 2, p.ReadingTimeMinutes)
	require.Equal(t, orig.CreatedAt, p.CreatedAt)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, 400, cur.Stats.TotalWordCount)

	// Несуществующая страница.
	_, err = svc.UpdatePage(context.Background(), st.ID, 7, actor, pageText(400))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePage_RefusesLast_RenumbersAndShiftsViews(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	// Единственная страница не удаляется.
	err := svc.DeletePage(context.Background(), st.ID, 1, actor)
	require.ErrorIs(t, err, ErrInvalidArgument)

	for i := 0; i < 2; i++ {
		_, err = svc.AddPage(context.Background(), AddPageInput{StoryID: st.ID, Actor: actor, Content: pageText(60)})
		require.NoError(t, err)
	}

	// Накручиваем просмотры страниц 1..3.
	_, err = svc.PublishStory(context.Background(), st.ID, actor)
	require.NoError(t, err)
	for page := int32(1); page <= 3; page++ {
		for i := int32(0); i < page; i++ {
			require.NoError(t, svc.TrackPageView(context.Background(), st.ID, page))
		}
	}

	// Удаляем вторую: третья становится второй вместе со счётчиком.
	require.NoError(t, svc.DeletePage(context.Background(), st.ID, 2, actor))

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.Len(t, cur.Pages, 2)
	require.EqualValues(t, 1, cur.Pages[0].Number)
	require.EqualValues(t, 2, cur.Pages[1].Number)
	require.EqualValues(t, 1, cur.Stats.PageViews[1])
	require.EqualValues(t, 3, cur.Stats.PageViews[2])
	require.NotContains(t, cur.Stats.PageViews, int32(3))
}

func TestGetPage_AuthorizationAndNavigation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	_, err := svc.AddPage(context.Background(), AddPageInput{StoryID: st.ID, Actor: actor, Content: pageText(60)})
	require.NoError(t, err)

	// Черновик посторонним не читается.
	_, err = svc.GetPage(context.Background(), st.ID, 1, Actor{UserID: uuid.New(), Role: RoleUser})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.PublishStory(context.Background(), st.ID, actor)
	require.NoError(t, err)

	view, err := svc.GetPage(context.Background(), st.ID, 1, Actor{UserID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)
	require.False(t, view.HasPrevious)
	require.True(t, view.HasNext)
	require.EqualValues(t, 2, view.PageCount)

	view, err = svc.GetPage(context.Background(), st.ID, 2, Actor{UserID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)
	require.True(t, view.HasPrevious)
	require.False(t, view.HasNext)

	_, err = svc.GetPage(context.Background(), st.ID, 3, Actor{UserID: uuid.New(), Role: RoleUser})
	require.ErrorIs(t, err, ErrNotFound)
}

// Чтение страницы фиксирует постраничный просмотр, не трогая views истории.
func TestGetPage_TracksPageView(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	_, err := svc.GetPage(context.Background(), st.ID, 1, Actor{UserID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)
	_, err = svc.GetPage(context.Background(), st.ID, 1, Actor{UserID: uuid.New(), Role: RoleUser})
	require.NoError(t, err)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, cur.Stats.PageViews[1])
	require.EqualValues(t, 0, cur.Stats.Views)
}

func TestTrackPageView_MissingPage_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	err := svc.TrackPageView(context.Background(), st.ID, 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReadingProgress_AccumulatesTime(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	rp, err := svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
		StoryID:           st.ID,
		UserID:            user,
		CurrentPage:       1,
		TimeSpentDeltaSec: 30,
	})
	require.NoError(t, err)
	require.EqualValues(t, 30, rp.TimeSpentSeconds)

	rp, err = svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
		StoryID:           st.ID,
		UserID:            user,
		CurrentPage:       1,
		TimeSpentDeltaSec: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 50, rp.TimeSpentSeconds)
	require.False(t, rp.Completed)
	require.False(t, rp.LastReadAt.IsZero())
}

func TestUpdateReadingProgress_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	// Отрицательная дельта.
	_, err := svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
		StoryID:           st.ID,
		UserID:            user,
		CurrentPage:       1,
		TimeSpentDeltaSec: -5,
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Страница вне диапазона.
	for _, page := range []int32{0, 2, 100} {
		_, err = svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
			StoryID:     st.ID,
			UserID:      user,
			CurrentPage: page,
		})
		require.ErrorIs(t, err, ErrInvalidArgument, "page=%d", page)
	}
}

// Completed выставляется на последней странице и не сбрасывается
// при возврате назад.
func TestUpdateReadingProgress_CompletedSticky(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)
	actor := Actor{UserID: author, Role: RoleUser}

	_, err := svc.AddPage(context.Background(), AddPageInput{StoryID: st.ID, Actor: actor, Content: pageText(60)})
	require.NoError(t, err)
	_, err = svc.PublishStory(context.Background(), st.ID, actor)
	require.NoError(t, err)

	user := uuid.New()

	rp, err := svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
		StoryID:     st.ID,
		UserID:      user,
		CurrentPage: 2,
	})
	require.NoError(t, err)
	require.True(t, rp.Completed)

	rp, err = svc.UpdateReadingProgress(context.Background(), UpdateReadingProgressInput{
		StoryID:     st.ID,
		UserID:      user,
		CurrentPage: 1,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, rp.CurrentPage)
	require.True(t, rp.Completed)
}

func TestGetReadingProgress_DefaultWhenMissing(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	rp, err := svc.GetReadingProgress(context.Background(), st.ID, uuid.New())
	require.NoError(t, err)
	require.EqualValues(t, 1, rp.CurrentPage)
	require.False(t, rp.Completed)
	require.EqualValues(t, 0, rp.TimeSpentSeconds)
}
