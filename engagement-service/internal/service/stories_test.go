package service

// Тесты жизненного цикла истории: создание, публикация, чтение с учётом
// просмотров, удаление с каскадом на комментарии.

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateStory_OK(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()

	st, err := svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         author,
		Title:            "  Хроники туманного города  ",
		FirstPageContent: pageText(60),
		Collaborators:    []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, st.ID)
	require.Equal(t, author, st.AuthorID)
	require.Equal(t, "Хроники туманного города", st.Title)
	require.False(t, st.IsPublished)
	require.Len(t, st.Pages, 1)
	require.EqualValues(t, 1, st.Pages[0].Number)
	require.EqualValues(t, 60, st.Pages[0].WordCount)
	require.EqualValues(t, 1, st.Stats.PageCount)
	require.EqualValues(t, 60, st.Stats.TotalWordCount)
	require.Len(t, st.Collaborators, 1)
}

func TestCreateStory_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	// Пустой автор.
	_, err := svc.CreateStory(context.Background(), CreateStoryInput{
		Title:            "t",
		FirstPageContent: pageText(60),
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Пустой заголовок.
	_, err = svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         uuid.New(),
		Title:            "   ",
		FirstPageContent: pageText(60),
	})
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Слишком короткая первая страница.
	_, err = svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         uuid.New(),
		Title:            "t",
		FirstPageContent: "мало",
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Автор не попадает в собственный список соавторов, но остаётся
// коллаборатором по определению.
func TestCreateStory_AuthorNotDuplicatedInCollaborators(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()

	st, err := svc.CreateStory(context.Background(), CreateStoryInput{
		AuthorID:         author,
		Title:            "t",
		FirstPageContent: pageText(60),
		Collaborators:    []uuid.UUID{author, uuid.Nil},
	})
	require.NoError(t, err)

	require.Empty(t, st.Collaborators)
	require.True(t, st.IsCollaborator(author))
}

func TestPublishStory_OK_AndIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)

	out, err := svc.PublishStory(context.Background(), st.ID, Actor{UserID: author, Role: RoleUser})
	require.NoError(t, err)
	require.True(t, out.IsPublished)

	// Повторная публикация — no-op.
	out, err = svc.PublishStory(context.Background(), st.ID, Actor{UserID: author, Role: RoleUser})
	require.NoError(t, err)
	require.True(t, out.IsPublished)
}

func TestPublishStory_NonAuthor_Forbidden(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustStory(t, svc, uuid.New())

	_, err := svc.PublishStory(context.Background(), st.ID, Actor{UserID: uuid.New(), Role: RoleUser})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGetStory_Draft_OnlyCollaborators(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	author := uuid.New()
	st := mustStory(t, svc, author)

	// Посторонний не видит черновик.
	_, err := svc.GetStory(context.Background(), st.ID, Actor{UserID: uuid.New(), Role: RoleUser})
	require.ErrorIs(t, err, ErrForbidden)

	// Автор видит; черновые чтения не считаются просмотрами.
	out, err := svc.GetStory(context.Background(), st.ID, Actor{UserID: author, Role: RoleUser})
	require.NoError(t, err)
	require.EqualValues(t, 0, out.Stats.Views)
}

func TestGetStory_Published_IncrementsViewsAndScore(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustPublishedStory(t, svc, uuid.New())

	reader := Actor{UserID: uuid.New(), Role: RoleUser}

	out, err := svc.GetStory(context.Background(), st.ID, reader)
	require.NoError(t, err)
	require.EqualValues(t, 1, out.Stats.Views)
	// score = views*1 при прочих нулях.
	require.Equal(t, float64(1), out.Stats.EngagementScore)

	out, err = svc.GetStory(context.Background(), st.ID, reader)
	require.NoError(t, err)
	require.EqualValues(t, 2, out.Stats.Views)
	require.Equal(t, float64(2), out.Stats.EngagementScore)
}

func TestGetStory_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.GetStory(context.Background(), uuid.New(), Actor{UserID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteStory_AuthorOK_CascadesComments(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	author := uuid.New()
	st := mustPublishedStory(t, svc, author)

	c := mustComment(t, svc, st.ID, uuid.New(), "")
	mustComment(t, svc, st.ID, uuid.New(), c.ID)

	require.NoError(t, svc.DeleteStory(context.Background(), st.ID, Actor{UserID: author, Role: RoleUser}))

	// История и её комментарии исчезли из стораджа.
	_, err := store.StoryByID(context.Background(), st.ID)
	require.Error(t, err)

	all, err := store.CommentsByStory(context.Background(), st.ID)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestDeleteStory_Stranger_Forbidden_AdminOK(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	st := mustStory(t, svc, uuid.New())

	err := svc.DeleteStory(context.Background(), st.ID, Actor{UserID: uuid.New(), Role: RoleUser})
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteStory(context.Background(), st.ID, Actor{UserID: uuid.New(), Role: RoleAdmin})
	require.NoError(t, err)

	// Повторное удаление — NotFound.
	err = svc.DeleteStory(context.Background(), st.ID, Actor{UserID: uuid.New(), Role: RoleAdmin})
	require.ErrorIs(t, err, ErrNotFound)
}
