package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/storage"
)

// CreateComment вставляет документ комментария. Пустой ID заполняется
// hex-представлением нового ObjectID (наружу ID — непрозрачная строка).
func (m *Mongo) CreateComment(ctx context.Context, comment models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/CreateComment"

	if comment.ID == "" {
		comment.ID = primitive.NewObjectID().Hex()
	}

	doc := commentToDoc(&comment)

	if _, err := m.comments.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	return &comment, nil
}

// CommentByID возвращает комментарий по идентификатору (включая удалённые).
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: find: %w", op, err)
	}

	c, err := docToComment(&doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// UpdateComment — optimistic CAS по version, та же дисциплина, что у
// UpdateStory: ограниченные повторы, затем ErrConflict.
func (m *Mongo) UpdateComment(ctx context.Context, id string, mutate storage.MutateCommentFunc) (*models.Comment, error) {
	const op = "storage/mongo/UpdateComment"

	for attempt := 0; attempt < m.cfg.DB.ConflictRetries; attempt++ {
		var doc commentDoc
		if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
			if errors.Is(err, mongodriver.ErrNoDocuments) {
				return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}

			return nil, fmt.Errorf("%s: find: %w", op, err)
		}

		c, err := docToComment(&doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := mutate(c); err != nil {
			return nil, err
		}

		prev := c.Version
		c.Version = prev + 1

		res, err := m.comments.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: id}, {Key: "version", Value: prev}},
			commentToDoc(c),
		)
		if err != nil {
			return nil, fmt.Errorf("%s: replace: %w", op, err)
		}

		if res.MatchedCount == 1 {
			return c, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(m.cfg.DB.ConflictBackoff):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// CommentsByStory возвращает все комментарии истории в порядке создания.
func (m *Mongo) CommentsByStory(ctx context.Context, storyID uuid.UUID) ([]models.Comment, error) {
	const op = "storage/mongo/CommentsByStory"

	return m.findComments(ctx, op, bson.D{{Key: "story_id", Value: storyID.String()}})
}

// ChildrenOf возвращает прямых детей комментария в порядке создания.
func (m *Mongo) ChildrenOf(ctx context.Context, parentID string) ([]models.Comment, error) {
	const op = "storage/mongo/ChildrenOf"

	return m.findComments(ctx, op, bson.D{{Key: "parent_id", Value: parentID}})
}

func (m *Mongo) findComments(ctx context.Context, op string, filter bson.D) ([]models.Comment, error) {
	cur, err := m.comments.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	out := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		c, err := docToComment(&doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, *c)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return out, nil
}
