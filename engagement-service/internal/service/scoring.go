package service

import (
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/config"
	"github.com/VelvetQuill/velvetquill-backend/engagement-service/internal/models"
)

// ScoreFunc — чистая функция ранжирования: агрегированные метрики истории ->
// единый числовой сигнал для trending/featured-выдачи. Discovery-компонент
// читает только сохранённый результат и никогда не считает его сам, поэтому
// пересчёт обязан происходить в той же атомарной мутации, что изменила вход
// (views, likes, commentCount или множество оценок).
type ScoreFunc func(models.StoryStats) float64

// WeightedScore строит взвешенную сумму из конфигурации:
//
//	views*W.Views + likes*W.Likes + comments*W.Comments +
//	ratingCount*W.RatingCount + averageRating*W.AverageRating
//
// Веса вынесены в config.ScoringConfig, чтобы тюнинг ранжирования
// не трогал вызывающий код.
func WeightedScore(w config.ScoringConfig) ScoreFunc {
	return func(st models.StoryStats) float64 {
		return float64(st.Views)*w.Views +
			float64(st.LikesCount)*w.Likes +
			float64(st.CommentCount)*w.Comments +
			float64(st.RatingCount)*w.RatingCount +
			st.AverageRating*w.AverageRating
	}
}
