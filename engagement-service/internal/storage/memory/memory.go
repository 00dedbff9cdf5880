// memory — эталонная реализация storage.Storage в памяти.
//
// Используется в юнит-тестах сервисного слоя и как референс семантики
// атомарного read-modify-write: мутации одного агрегата сериализуются
// per-id мьютексом (single-writer), читатели получают глубокие копии.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/storage"
)

// Store — потокобезопасное хранилище агрегатов в памяти.
type Store struct {
	mu       sync.RWMutex
	stories  map[uuid.UUID]*models.Story
	comments map[string]*models.Comment
	// byParent — индекс parent_id -> id детей; им пользуется ChildrenOf.
	byParent map[string][]string
	// byStory — индекс story_id -> id комментариев в порядке создания.
	byStory map[uuid.UUID][]string

	// locks — per-id мьютексы мутаций. Ключ — строковое представление id
	// агрегата; записи не удаляются, набор агрегатов в тестовых сценариях мал.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		stories:  make(map[uuid.UUID]*models.Story),
		comments: make(map[string]*models.Comment),
		byParent: make(map[string][]string),
		byStory:  make(map[uuid.UUID][]string),
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor возвращает (создавая при необходимости) мьютекс агрегата.
func (s *Store) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}

	return l
}

// CreateStory сохраняет новую историю.
func (s *Store) CreateStory(ctx context.Context, story models.Story) (*models.Story, error) {
	const op = "storage/memory/CreateStory"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[story.ID]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	cp := cloneStory(&story)
	s.stories[story.ID] = cp

	out := cloneStory(cp)
	return out, nil
}

// StoryByID возвращает копию истории.
func (s *Store) StoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	const op = "storage/memory/StoryByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stories[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneStory(st), nil
}

// UpdateStory атомарно применяет mutate к истории.
// Мутации одного id сериализуются per-id мьютексом; mutate работает
// над глубокой копией, так что ошибка mutate не оставляет частичных правок.
func (s *Store) UpdateStory(ctx context.Context, id uuid.UUID, mutate storage.MutateStoryFunc) (*models.Story, error) {
	const op = "storage/memory/UpdateStory"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l := s.lockFor("story:" + id.String())
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	cur, ok := s.stories[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	next := cloneStory(cur)
	if err := mutate(next); err != nil {
		// Ошибка мутации возвращается как есть — см. контракт Storage.
		return nil, err
	}

	next.Version = cur.Version + 1

	s.mu.Lock()
	s.stories[id] = next
	s.mu.Unlock()

	return cloneStory(next), nil
}

// DeleteStory удаляет историю и все её комментарии.
func (s *Store) DeleteStory(ctx context.Context, id uuid.UUID) error {
	const op = "storage/memory/DeleteStory"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	l := s.lockFor("story:" + id.String())
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.stories[id]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	delete(s.stories, id)

	for _, cid := range s.byStory[id] {
		if c, ok := s.comments[cid]; ok {
			delete(s.byParent, c.ID)
			delete(s.comments, cid)
		}
	}
	delete(s.byStory, id)

	return nil
}

// CreateComment сохраняет комментарий; пустой ID заполняется новым UUID.
func (s *Store) CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "storage/memory/CreateComment"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[comment.ID]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}

	cp := cloneComment(&comment)
	s.comments[cp.ID] = cp
	s.byStory[cp.StoryID] = append(s.byStory[cp.StoryID], cp.ID)
	if cp.ParentID != "" {
		s.byParent[cp.ParentID] = append(s.byParent[cp.ParentID], cp.ID)
	}

	return cloneComment(cp), nil
}

// CommentByID возвращает копию комментария.
func (s *Store) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/memory/CommentByID"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return cloneComment(c), nil
}

// UpdateComment атомарно применяет mutate к комментарию.
func (s *Store) UpdateComment(ctx context.Context, id string, mutate storage.MutateCommentFunc) (*models.Comment, error) {
	const op = "storage/memory/UpdateComment"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	l := s.lockFor("comment:" + id)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	cur, ok := s.comments[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	next := cloneComment(cur)
	if err := mutate(next); err != nil {
		return nil, err
	}

	next.Version = cur.Version + 1

	s.mu.Lock()
	s.comments[id] = next
	s.mu.Unlock()

	return cloneComment(next), nil
}

// CommentsByStory возвращает все комментарии истории в порядке создания.
func (s *Store) CommentsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Comment, error) {
	const op = "storage/memory/CommentsByStory"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byStory[storyID]
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, *cloneComment(c))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

// ChildrenOf возвращает прямых детей комментария в порядке создания.
func (s *Store) ChildrenOf(ctx context.Context, parentID string) ([]models.Comment, error) {
	const op = "storage/memory/ChildrenOf"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byParent[parentID]
	out := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			out = append(out, *cloneComment(c))
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

// Close — no-op для памяти.
func (s *Store) Close(_ context.Context) error { return nil }

// cloneStory — глубокая копия агрегата истории.
func cloneStory(in *models.Story) *models.Story {
	out := *in

	out.Collaborators = cloneSet(in.Collaborators)
	out.LikedBy = cloneSet(in.LikedBy)
	out.InReadingLists = cloneSet(in.InReadingLists)

	if in.Ratings != nil {
		out.Ratings = make(map[uuid.UUID]int32, len(in.Ratings))
		for k, v := range in.Ratings {
			out.Ratings[k] = v
		}
	}

	if in.ReadingProgress != nil {
		out.ReadingProgress = make(map[uuid.UUID]models.ReadingProgress, len(in.ReadingProgress))
		for k, v := range in.ReadingProgress {
			out.ReadingProgress[k] = v
		}
	}

	if in.Stats.PageViews != nil {
		out.Stats.PageViews = make(map[int32]int64, len(in.Stats.PageViews))
		for k, v := range in.Stats.PageViews {
			out.Stats.PageViews[k] = v
		}
	}

	if in.Pages != nil {
		out.Pages = make([]models.Page, len(in.Pages))
		copy(out.Pages, in.Pages)
	}

	return &out
}

// cloneComment — глубокая копия агрегата комментария.
func cloneComment(in *models.Comment) *models.Comment {
	out := *in

	out.Engagement.LikedBy = cloneSet(in.Engagement.LikedBy)

	if in.Engagement.ReportedBy != nil {
		out.Engagement.ReportedBy = make([]models.Report, len(in.Engagement.ReportedBy))
		copy(out.Engagement.ReportedBy, in.Engagement.ReportedBy)
	}

	if in.EditHistory != nil {
		out.EditHistory = make([]models.EditSnapshot, len(in.EditHistory))
		copy(out.EditHistory, in.EditHistory)
	}

	if in.PinnedBy != nil {
		pb := *in.PinnedBy
		out.PinnedBy = &pb
	}

	return &out
}

func cloneSet(in map[uuid.UUID]struct{}) map[uuid.UUID]struct{} {
	if in == nil {
		return nil
	}

	out := make(map[uuid.UUID]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}

	return out
}
