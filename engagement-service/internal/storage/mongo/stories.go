package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/storage"
)

// CreateStory вставляет новый документ истории.
func (m *Mongo) CreateStory(ctx context.Context, story models.Story) (*models.Story, error) {
	const op = "storage/mongo/CreateStory"

	doc := storyToDoc(&story)

	if _, err := m.stories.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &story, nil
}

// StoryByID возвращает историю по идентификатору.
func (m *Mongo) StoryByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	const op = "storage/mongo/StoryByID"

	var doc storyDoc
	if err := m.stories.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: find: %w", op, err)
	}

	st, err := docToStory(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// UpdateStory — optimistic CAS: читаем документ, применяем mutate к доменной
// модели и перезаписываем с фильтром по прежней version. Проигрыш гонки —
// повтор с небольшой паузой; после cfg.DB.ConflictRetries — ErrConflict.
// Ошибка mutate возвращается как есть (см. контракт Storage).
func (m *Mongo) UpdateStory(ctx context.Context, id uuid.UUID, mutate storage.MutateStoryFunc) (*models.Story, error) {
	const op = "storage/mongo/UpdateStory"

	for attempt := 0; attempt < m.cfg.DB.ConflictRetries; attempt++ {
		var doc storyDoc
		if err := m.stories.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(&doc); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}

			return nil, fmt.Errorf("%s: find: %w", op, err)
		}

		st, err := docToStory(&doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := mutate(st); err != nil {
			return nil, err
		}

		prev := st.Version
		st.Version = prev + 1

		res, err := m.stories.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: id.String()}, {Key: "version", Value: prev}},
			storyToDoc(st),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: replace: %w", op, err)
		}

		if res.MatchedCount == 1 {
			return st, nil
		}

		// Версию успел поменять конкурент — повторяем цикл.
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(m.cfg.DB.ConflictBackoff):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// DeleteStory удаляет историю и все её комментарии.
func (m *Mongo) DeleteStory(ctx context.Context, id uuid.UUID) error {
	const op = "storage/mongo/DeleteStory"

	res, err := m.stories.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("%s: delete story: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if _, err := m.comments.DeleteMany(ctx, bson.D{{Key: "story_id", Value: id.String()}}); err != nil {
		return fmt.Errorf("%s: delete comments: %w", op, err)
	}

	return nil
}
