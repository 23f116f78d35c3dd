// Package comment は記事へのコメントの作成と一覧を提供する。
package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bloghub/internal/model"
	"github.com/hitoshi/bloghub/internal/repository"
	"github.com/hitoshi/bloghub/internal/security"
	"github.com/hitoshi/bloghub/internal/validation"
)

// Service はコメントに関するビジネスロジックを提供する。
type Service struct {
	comments  repository.CommentRepository
	articles  repository.ArticleRepository
	users     repository.UserRepository
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	users repository.UserRepository,
	sanitizer security.ContentSanitizer,
) *Service {
	return &Service{
		comments:  comments,
		articles:  articles,
		users:     users,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create は記事にコメントを投稿する。
// 記事の公開状態は問わず、記事が存在すれば投稿できる。
func (s *Service) Create(ctx context.Context, identity model.Identity, articleID, body string) (*model.CommentWithAuthor, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}

	exists, err := s.articles.Exists(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check article: %w", err)
	}
	if !exists {
		return nil, model.NewArticleNotFoundError(articleID)
	}

	now := s.now()
	c := &model.Comment{
		ID:        uuid.New().String(),
		ArticleID: articleID,
		UserID:    identity.UserID,
		Body:      s.sanitizer.SanitizeHTML(body),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validation.Struct(c); err != nil {
		return nil, err
	}

	author, err := s.users.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := s.comments.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, model.NewArticleNotFoundError(articleID)
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	slog.Info("comment created",
		slog.String("comment_id", c.ID),
		slog.String("article_id", articleID),
		slog.String("user_id", identity.UserID),
	)
	return &model.CommentWithAuthor{
		Comment: *c,
		Author:  model.ArticleOwner{ID: author.ID, Name: author.Name, Email: author.Email},
	}, nil
}

// ListForPublic は公開記事のコメントを古い順に返す。
// 下書きや存在しない記事はNotFound。
func (s *Service) ListForPublic(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error) {
	a, err := s.articles.FindByIDAndStatus(ctx, articleID, model.ArticleStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	if a == nil {
		return nil, model.NewArticleNotFoundError(articleID)
	}

	comments, err := s.comments.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if comments == nil {
		comments = []model.CommentWithAuthor{}
	}
	return comments, nil
}
