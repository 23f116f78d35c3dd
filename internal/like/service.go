// Package like は記事へのいいねを提供する。
// 同じユーザーによる同じ記事への重複いいねは、事前チェックではなく
// ストレージの一意制約で検出する。
package like

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bloghub/internal/model"
	"github.com/hitoshi/bloghub/internal/repository"
)

// Recorder はいいね操作を記録するメトリクスのインターフェース。
type Recorder interface {
	RecordLike(action string)
}

// Summary はいいね操作後の記事のいいね数。
type Summary struct {
	ArticleID  string
	LikesCount int
}

// Service はいいねに関するビジネスロジックを提供する。
type Service struct {
	likes    repository.LikeRepository
	articles repository.ArticleRepository
	recorder Recorder
	now      func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(likes repository.LikeRepository, articles repository.ArticleRepository, recorder Recorder) *Service {
	return &Service{
		likes:    likes,
		articles: articles,
		recorder: recorder,
		now:      time.Now,
	}
}

// Like は公開記事にいいねする。
// 既にいいね済みの場合はAlreadyLikedエラーを返す。
func (s *Service) Like(ctx context.Context, identity model.Identity, articleID string) (*Summary, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}

	a, err := s.articles.FindByIDAndStatus(ctx, articleID, model.ArticleStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	if a == nil {
		return nil, model.NewArticleNotFoundError(articleID)
	}

	like := &model.ArticleLike{
		ID:        uuid.New().String(),
		ArticleID: articleID,
		UserID:    identity.UserID,
		CreatedAt: s.now(),
	}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAlreadyLikedError()
		}
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, model.NewArticleNotFoundError(articleID)
		}
		return nil, fmt.Errorf("failed to create like: %w", err)
	}

	s.record("like")
	slog.Info("article liked",
		slog.String("article_id", articleID),
		slog.String("user_id", identity.UserID),
	)
	return s.summary(ctx, articleID)
}

// Unlike はいいねを取り消す。いいねしていない場合はLikeNotFoundエラーを返す。
func (s *Service) Unlike(ctx context.Context, identity model.Identity, articleID string) error {
	if identity.IsAnonymous() {
		return model.NewUnauthorizedError()
	}

	if err := s.likes.Delete(ctx, identity.UserID, articleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewLikeNotFoundError()
		}
		return fmt.Errorf("failed to delete like: %w", err)
	}

	s.record("unlike")
	return nil
}

func (s *Service) summary(ctx context.Context, articleID string) (*Summary, error) {
	count, err := s.likes.CountByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return &Summary{ArticleID: articleID, LikesCount: count}, nil
}

func (s *Service) record(action string) {
	if s.recorder != nil {
		s.recorder.RecordLike(action)
	}
}
