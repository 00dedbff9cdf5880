package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
)

// BSON-документы хранилища. UUID хранятся строками, ключи карт — только
// строки (требование BSON); конвертация в доменные модели и обратно
// выполняется явно.

type pageDoc struct {
	Number             int32     `bson:"number"`
	Content            string    `bson:"content"`
	WordCount          int32     `bson:"word_count"`
	ReadingTimeMinutes int32     `bson:"reading_time_minutes"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

type progressDoc struct {
	CurrentPage      int32     `bson:"current_page"`
	Completed        bool      `bson:"completed"`
	LastReadAt       time.Time `bson:"last_read_at"`
	TimeSpentSeconds int64     `bson:"time_spent_seconds"`
}

type statsDoc struct {
	Views            int64            `bson:"views"`
	LikesCount       int32            `bson:"likes_count"`
	RatingCount      int32            `bson:"rating_count"`
	AverageRating    float64          `bson:"average_rating"`
	CommentCount     int32            `bson:"comment_count"`
	ReadingListCount int32            `bson:"reading_list_count"`
	EngagementScore  float64          `bson:"engagement_score"`
	PageViews        map[string]int64 `bson:"page_views"`
	PageCount        int32            `bson:"page_count"`
	TotalWordCount   int32            `bson:"total_word_count"`
	TotalReadingTime int32            `bson:"total_reading_time"`
}

type storyDoc struct {
	ID              string                 `bson:"_id"`
	AuthorID        string                 `bson:"author_id"`
	Collaborators   []string               `bson:"collaborators"`
	Title           string                 `bson:"title"`
	Pages           []pageDoc              `bson:"pages"`
	Stats           statsDoc               `bson:"stats"`
	LikedBy         []string               `bson:"liked_by"`
	InReadingLists  []string               `bson:"in_reading_lists"`
	Ratings         map[string]int32       `bson:"ratings"`
	ReadingProgress map[string]progressDoc `bson:"reading_progress"`
	IsPublished     bool                   `bson:"is_published"`
	IsFeatured      bool                   `bson:"is_featured"`
	Version         int64                  `bson:"version"`
	CreatedAt       time.Time              `bson:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at"`
}

type reportDoc struct {
	UserID    string    `bson:"user_id"`
	Reason    string    `bson:"reason"`
	CreatedAt time.Time `bson:"created_at"`
}

type editDoc struct {
	Content  string    `bson:"content"`
	EditedAt time.Time `bson:"edited_at"`
}

type commentDoc struct {
	ID           string      `bson:"_id"`
	StoryID      string      `bson:"story_id"`
	ParentID     string      `bson:"parent_id"`
	AuthorID     string      `bson:"author_id"`
	Content      string      `bson:"content"`
	Status       string      `bson:"status"`
	AutoFlagged  bool        `bson:"auto_flagged"`
	LikedBy      []string    `bson:"liked_by"`
	LikesCount   int32       `bson:"likes_count"`
	ReportedBy   []reportDoc `bson:"reported_by"`
	ReportCount  int32       `bson:"report_count"`
	RepliesCount int32       `bson:"replies_count"`
	IsPinned     bool        `bson:"is_pinned"`
	PinnedBy     *string     `bson:"pinned_by,omitempty"`
	EditHistory  []editDoc   `bson:"edit_history"`
	CreatedAt    time.Time   `bson:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at"`
	Version      int64       `bson:"version"`
}

func setToSlice(in map[uuid.UUID]struct{}) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k.String())
	}

	return out
}

func sliceToSet(in []string) (map[uuid.UUID]struct{}, error) {
	out := make(map[uuid.UUID]struct{}, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse uuid %q: %w", s, err)
		}
		out[id] = struct{}{}
	}

	return out, nil
}

func storyToDoc(st *models.Story) storyDoc {
	doc := storyDoc{
		ID:            st.ID.String(),
		AuthorID:      st.AuthorID.String(),
		Collaborators: setToSlice(st.Collaborators),
		Title:         st.Title,
		Stats: statsDoc{
			Views:            st.Stats.Views,
			LikesCount:       st.Stats.LikesCount,
			RatingCount:      st.Stats.RatingCount,
			AverageRating:    st.Stats.AverageRating,
			CommentCount:     st.Stats.CommentCount,
			ReadingListCount: st.Stats.ReadingListCount,
			EngagementScore:  st.Stats.EngagementScore,
			PageViews:        make(map[string]int64, len(st.Stats.PageViews)),
			PageCount:        st.Stats.PageCount,
			TotalWordCount:   st.Stats.TotalWordCount,
			TotalReadingTime: st.Stats.TotalReadingTime,
		},
		LikedBy:         setToSlice(st.LikedBy),
		InReadingLists:  setToSlice(st.InReadingLists),
		Ratings:         make(map[string]int32, len(st.Ratings)),
		ReadingProgress: make(map[string]progressDoc, len(st.ReadingProgress)),
		IsPublished:     st.IsPublished,
		IsFeatured:      st.IsFeatured,
		Version:         st.Version,
		CreatedAt:       st.CreatedAt.UTC(),
		UpdatedAt:       st.UpdatedAt.UTC(),
	}

	for n, v := range st.Stats.PageViews {
		doc.Stats.PageViews[fmt.Sprintf("%d", n)] = v
	}

	for u, r := range st.Ratings {
		doc.Ratings[u.String()] = r
	}

	for u, p := range st.ReadingProgress {
		doc.ReadingProgress[u.String()] = progressDoc{
			CurrentPage:      p.CurrentPage,
			Completed:        p.Completed,
			LastReadAt:       p.LastReadAt.UTC(),
			TimeSpentSeconds: p.TimeSpentSeconds,
		}
	}

	doc.Pages = make([]pageDoc, 0, len(st.Pages))
	for _, p := range st.Pages {
		doc.Pages = append(doc.Pages, pageDoc{
			Number:             p.Number,
			Content:            p.Content,
			WordCount:          p.WordCount,
			ReadingTimeMinutes: p.ReadingTimeMinutes,
			CreatedAt:          p.CreatedAt.UTC(),
			UpdatedAt:          p.UpdatedAt.UTC(),
		})
	}

	return doc
}

func docToStory(doc *storyDoc) (*models.Story, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parse story id: %w", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("parse author id: %w", err)
	}

	collab, err := sliceToSet(doc.Collaborators)
	if err != nil {
		return nil, err
	}

	likedBy, err := sliceToSet(doc.LikedBy)
	if err != nil {
		return nil, err
	}

	inLists, err := sliceToSet(doc.InReadingLists)
	if err != nil {
		return nil, err
	}

	st := &models.Story{
		ID:            id,
		AuthorID:      authorID,
		Collaborators: collab,
		Title:         doc.Title,
		Stats: models.StoryStats{
			Views:            doc.Stats.Views,
			LikesCount:       doc.Stats.LikesCount,
			RatingCount:      doc.Stats.RatingCount,
			AverageRating:    doc.Stats.AverageRating,
			CommentCount:     doc.Stats.CommentCount,
			ReadingListCount: doc.Stats.ReadingListCount,
			EngagementScore:  doc.Stats.EngagementScore,
			PageViews:        make(map[int32]int64, len(doc.Stats.PageViews)),
			PageCount:        doc.Stats.PageCount,
			TotalWordCount:   doc.Stats.TotalWordCount,
			TotalReadingTime: doc.Stats.TotalReadingTime,
		},
		LikedBy:         likedBy,
		InReadingLists:  inLists,
		Ratings:         make(map[uuid.UUID]int32, len(doc.Ratings)),
		ReadingProgress: make(map[uuid.UUID]models.ReadingProgress, len(doc.ReadingProgress)),
		IsPublished:     doc.IsPublished,
		IsFeatured:      doc.IsFeatured,
		Version:         doc.Version,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}

	for n, v := range doc.Stats.PageViews {
		var num int32
		if _, err := fmt.Sscan(n, &num); err != nil {
			return nil, fmt.Errorf("parse page number %q: %w", n, err)
		}
		st.Stats.PageViews[num] = v
	}

	for u, r := range doc.Ratings {
		uid, err := uuid.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("parse rating user id: %w", err)
		}
		st.Ratings[uid] = r
	}

	for u, p := range doc.ReadingProgress {
		uid, err := uuid.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("parse progress user id: %w", err)
		}
		st.ReadingProgress[uid] = models.ReadingProgress{
			CurrentPage:      p.CurrentPage,
			Completed:        p.Completed,
			LastReadAt:       p.LastReadAt,
			TimeSpentSeconds: p.TimeSpentSeconds,
		}
	}

	st.Pages = make([]models.Page, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		st.Pages = append(st.Pages, models.Page{
			Number:             p.Number,
			Content:            p.Content,
			WordCount:          p.WordCount,
			ReadingTimeMinutes: p.ReadingTimeMinutes,
			CreatedAt:          p.CreatedAt,
			UpdatedAt:          p.UpdatedAt,
		})
	}

	return st, nil
}

func commentToDoc(c *models.Comment) commentDoc {
	doc := commentDoc{
		ID:           c.ID,
		StoryID:      c.StoryID.String(),
		ParentID:     c.ParentID,
		AuthorID:     c.AuthorID.String(),
		Content:      c.Content,
		Status:       string(c.Status),
		AutoFlagged:  c.AutoFlagged,
		LikedBy:      setToSlice(c.Engagement.LikedBy),
		LikesCount:   c.Engagement.LikesCount,
		ReportCount:  c.Engagement.ReportCount,
		RepliesCount: c.Engagement.RepliesCount,
		IsPinned:     c.IsPinned,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
		Version:      c.Version,
	}

	if c.PinnedBy != nil {
		s := c.PinnedBy.String()
		doc.PinnedBy = &s
	}

	doc.ReportedBy = make([]reportDoc, 0, len(c.Engagement.ReportedBy))
	for _, r := range c.Engagement.ReportedBy {
		doc.ReportedBy = append(doc.ReportedBy, reportDoc{
			UserID:    r.UserID.String(),
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}

	doc.EditHistory = make([]editDoc, 0, len(c.EditHistory))
	for _, e := range c.EditHistory {
		doc.EditHistory = append(doc.EditHistory, editDoc{
			Content:  e.Content,
			EditedAt: e.EditedAt.UTC(),
		})
	}

	return doc
}

func docToComment(doc *commentDoc) (*models.Comment, error) {
	storyID, err := uuid.Parse(doc.StoryID)
	if err != nil {
		return nil, fmt.Errorf("parse story id: %w", err)
	}

	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("parse author id: %w", err)
	}

	likedBy, err := sliceToSet(doc.LikedBy)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:          doc.ID,
		StoryID:     storyID,
		ParentID:    doc.ParentID,
		AuthorID:    authorID,
		Content:     doc.Content,
		Status:      models.CommentStatus(doc.Status),
		AutoFlagged: doc.AutoFlagged,
		Engagement: models.CommentEngagement{
			LikedBy:      likedBy,
			LikesCount:   doc.LikesCount,
			ReportCount:  doc.ReportCount,
			RepliesCount: doc.RepliesCount,
		},
		IsPinned:  doc.IsPinned,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		Version:   doc.Version,
	}

	if doc.PinnedBy != nil {
		uid, err := uuid.Parse(*doc.PinnedBy)
		if err != nil {
			return nil, fmt.Errorf("parse pinned_by: %w", err)
		}
		c.PinnedBy = &uid
	}

	c.Engagement.ReportedBy = make([]models.Report, 0, len(doc.ReportedBy))
	for _, r := range doc.ReportedBy {
		uid, err := uuid.Parse(r.UserID)
		if err != nil {
			return nil, fmt.Errorf("parse reporter id: %w", err)
		}
		c.Engagement.ReportedBy = append(c.Engagement.ReportedBy, models.Report{
			UserID:    uid,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}

	c.EditHistory = make([]models.EditSnapshot, 0, len(doc.EditHistory))
	for _, e := range doc.EditHistory {
		c.EditHistory = append(c.EditHistory, models.EditSnapshot{
			Content:  e.Content,
			EditedAt: e.EditedAt,
		})
	}

	return c, nil
}
