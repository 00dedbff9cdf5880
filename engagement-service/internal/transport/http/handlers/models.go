package handlers

import (
	"time"

	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
)

// DTO транспортного слоя. Домен наружу не отдаётся напрямую:
// конвертация явная, формы стабильные.

type CreateStoryRequest struct {
	Title            string   `json:"title"`
	FirstPageContent string   `json:"first_page_content"`
	Collaborators    []string `json:"collaborators,omitempty"`
}

type StatsResponse struct {
	Views            int64   `json:"views"`
	LikesCount       int32   `json:"likes_count"`
	RatingCount      int32   `json:"rating_count"`
	AverageRating    float64 `json:"average_rating"`
	CommentCount     int32   `json:"comment_count"`
	ReadingListCount int32   `json:"reading_list_count"`
	EngagementScore  float64 `json:"engagement_score"`
	PageCount        int32   `json:"page_count"`
	TotalWordCount   int32   `json:"total_word_count"`
	TotalReadingTime int32   `json:"total_reading_time"`
}

type StoryResponse struct {
	ID          string        `json:"id"`
	AuthorID    string        `json:"author_id"`
	Title       string        `json:"title"`
	IsPublished bool          `json:"is_published"`
	IsFeatured  bool          `json:"is_featured"`
	Stats       StatsResponse `json:"stats"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func storyToResponse(st *models.Story) StoryResponse {
	return StoryResponse{
		ID:          st.ID.String(),
		AuthorID:    st.AuthorID.String(),
		Title:       st.Title,
		IsPublished: st.IsPublished,
		IsFeatured:  st.IsFeatured,
		Stats: StatsResponse{
			Views:            st.Stats.Views,
			LikesCount:       st.Stats.LikesCount,
			RatingCount:      st.Stats.RatingCount,
			AverageRating:    st.Stats.AverageRating,
			CommentCount:     st.Stats.CommentCount,
			ReadingListCount: st.Stats.ReadingListCount,
			EngagementScore:  st.Stats.EngagementScore,
			PageCount:        st.Stats.PageCount,
			TotalWordCount:   st.Stats.TotalWordCount,
			TotalReadingTime: st.Stats.TotalReadingTime,
		},
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}

type ToggleResponse struct {
	Active bool  `json:"active"`
	Count  int32 `json:"count"`
}

type RatingRequest struct {
	Rating int32 `json:"rating"`
}

type RatingResponse struct {
	RatingCount   int32   `json:"rating_count"`
	AverageRating float64 `json:"average_rating"`
}

type CreateCommentRequest struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id,omitempty"`
}

type EditCommentRequest struct {
	Content string `json:"content"`
}

type ReportCommentRequest struct {
	Reason string `json:"reason"`
}

type ModerateCommentRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

type CommentResponse struct {
	ID           string    `json:"id"`
	StoryID      string    `json:"story_id"`
	ParentID     string    `json:"parent_id,omitempty"`
	AuthorID     string    `json:"author_id"`
	Content      string    `json:"content"`
	Status       string    `json:"status"`
	LikesCount   int32     `json:"likes_count"`
	ReportCount  int32     `json:"report_count"`
	RepliesCount int32     `json:"replies_count"`
	IsPinned     bool      `json:"is_pinned"`
	Edited       bool      `json:"edited"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func commentToResponse(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:           c.ID,
		StoryID:      c.StoryID.String(),
		ParentID:     c.ParentID,
		AuthorID:     c.AuthorID.String(),
		Content:      c.Content,
		Status:       string(c.Status),
		LikesCount:   c.Engagement.LikesCount,
		ReportCount:  c.Engagement.ReportCount,
		RepliesCount: c.Engagement.RepliesCount,
		IsPinned:     c.IsPinned,
		Edited:       len(c.EditHistory) > 0,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type ThreadResponse struct {
	Comment CommentResponse   `json:"comment"`
	Replies []CommentResponse `json:"replies"`
}

type ListCommentsResponse struct {
	Threads    []ThreadResponse `json:"threads"`
	Page       int32            `json:"page"`
	PageSize   int32            `json:"page_size"`
	TotalRoots int32            `json:"total_roots"`
}

func commentPageToResponse(p *models.CommentPage) ListCommentsResponse {
	out := ListCommentsResponse{
		Threads:    make([]ThreadResponse, 0, len(p.Threads)),
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalRoots: p.TotalRoots,
	}

	for i := range p.Threads {
		th := ThreadResponse{
			Comment: commentToResponse(&p.Threads[i].Comment),
			Replies: make([]CommentResponse, 0, len(p.Threads[i].Replies)),
		}
		for j := range p.Threads[i].Replies {
			th.Replies = append(th.Replies, commentToResponse(&p.Threads[i].Replies[j]))
		}
		out.Threads = append(out.Threads, th)
	}

	return out
}

type AddPageRequest struct {
	Content  string `json:"content"`
	Position *int32 `json:"position,omitempty"`
}

type UpdatePageRequest struct {
	Content string `json:"content"`
}

type PageResponse struct {
	Number             int32     `json:"number"`
	Content            string    `json:"content"`
	WordCount          int32     `json:"word_count"`
	ReadingTimeMinutes int32     `json:"reading_time_minutes"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func pageToResponse(p *models.Page) PageResponse {
	return PageResponse{
		Number:             p.Number,
		Content:            p.Content,
		WordCount:          p.WordCount,
		ReadingTimeMinutes: p.ReadingTimeMinutes,
		UpdatedAt:          p.UpdatedAt,
	}
}

type PageViewResponse struct {
	Page        PageResponse `json:"page"`
	HasPrevious bool         `json:"has_previous"`
	HasNext     bool         `json:"has_next"`
	PageCount   int32        `json:"page_count"`
}

type ProgressRequest struct {
	CurrentPage           int32 `json:"current_page"`
	TimeSpentDeltaSeconds int64 `json:"time_spent_delta_seconds"`
}

type ProgressResponse struct {
	CurrentPage      int32     `json:"current_page"`
	Completed        bool      `json:"completed"`
	TimeSpentSeconds int64     `json:"time_spent_seconds"`
	LastReadAt       time.Time `json:"last_read_at,omitempty"`
}

func progressToResponse(p *models.ReadingProgress) ProgressResponse {
	return ProgressResponse{
		CurrentPage:      p.CurrentPage,
		Completed:        p.Completed,
		TimeSpentSeconds: p.TimeSpentSeconds,
		LastReadAt:       p.LastReadAt,
	}
}
