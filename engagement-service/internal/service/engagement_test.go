package service

// Тесты счётчиков вовлечённости: лайки, списки чтения, оценки.
//
// Ключевой инвариант: счётчик всегда равен мощности backing-множества,
// в том числе под конкурентными переключениями.

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_OnOff(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	res, err := svc.ToggleLike(context.Background(), st.ID, user)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.EqualValues(t, 1, res.Count)

	// Повторный вызов снимает лайк.
	res, err = svc.ToggleLike(context.Background(), st.ID, user)
	require.NoError(t, err)
	require.False(t, res.Active)
	require.EqualValues(t, 0, res.Count)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, len(cur.LikedBy), cur.Stats.LikesCount)
}

func TestToggleLike_UpdatesEngagementScore(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	res, err := svc.ToggleLike(context.Background(), st.ID, uuid.New())
	require.NoError(t, err)
	require.True(t, res.Active)

	cur, err := svc.storage.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	// score = likes*5 при прочих нулях.
	require.Equal(t, float64(5), cur.Stats.EngagementScore)
}

// Инвариант likesCount == |likedBy| под конкурентными переключениями
// разных пользователей.
func TestToggleLike_Concurrent_CountMatchesSet(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	const n = 32

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.ToggleLike(context.Background(), st.ID, uuid.New())
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, n, cur.Stats.LikesCount)
	require.EqualValues(t, len(cur.LikedBy), cur.Stats.LikesCount)
}

// Конкурентные переключения одного пользователя: чётное число вызовов
// возвращает множество в исходное состояние без дрейфа счётчика.
func TestToggleLike_Concurrent_SameUser_NoDrift(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	const n = 16 // чётное

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.ToggleLike(context.Background(), st.ID, user)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, len(cur.LikedBy), cur.Stats.LikesCount)
	require.EqualValues(t, 0, cur.Stats.LikesCount)
}

func TestToggleLike_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.ToggleLike(context.Background(), uuid.Nil, uuid.New())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ToggleLike(context.Background(), uuid.New(), uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.ToggleLike(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleReadingList_OnOff(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	res, err := svc.ToggleReadingList(context.Background(), st.ID, user)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.EqualValues(t, 1, res.Count)

	res, err = svc.ToggleReadingList(context.Background(), st.ID, user)
	require.NoError(t, err)
	require.False(t, res.Active)
	require.EqualValues(t, 0, res.Count)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	require.EqualValues(t, len(cur.InReadingLists), cur.Stats.ReadingListCount)
}

func TestSubmitRating_OutOfRange(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	for _, rating := range []int32{0, -1, 6, 100} {
		_, err := svc.SubmitRating(context.Background(), st.ID, uuid.New(), rating)
		require.ErrorIs(t, err, ErrInvalidArgument, "rating=%d", rating)
	}
}

func TestSubmitRating_AverageAndCount(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	res, err := svc.SubmitRating(context.Background(), st.ID, uuid.New(), 3)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.RatingCount)
	require.Equal(t, 3.0, res.AverageRating)

	res, err = svc.SubmitRating(context.Background(), st.ID, uuid.New(), 5)
	require.NoError(t, err)
	require.EqualValues(t, 2, res.RatingCount)
	require.Equal(t, 4.0, res.AverageRating)
}

// Повторная оценка того же пользователя заменяет прежнюю, а не добавляет.
func TestSubmitRating_Resubmit_Replaces(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())
	user := uuid.New()

	_, err := svc.SubmitRating(context.Background(), st.ID, user, 2)
	require.NoError(t, err)

	res, err := svc.SubmitRating(context.Background(), st.ID, user, 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.RatingCount)
	require.Equal(t, 5.0, res.AverageRating)
}

func TestSubmitRating_UpdatesEngagementScore(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	_, err := svc.SubmitRating(context.Background(), st.ID, uuid.New(), 4)
	require.NoError(t, err)

	cur, err := store.StoryByID(context.Background(), st.ID)
	require.NoError(t, err)
	// score = ratingCount*2 + avg*10 = 1*2 + 4*10 = 42.
	require.Equal(t, 42.0, cur.Stats.EngagementScore)
}
