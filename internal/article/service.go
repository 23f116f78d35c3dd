package article

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

// CreatedRecorder は記事作成を記録するメトリクスのインターフェース。
type CreatedRecorder interface {
	RecordArticleCreated(status string)
}

// CreateInput は記事作成の入力。Statusは未検証の入力値のまま受け取る。
type CreateInput struct {
	Title  string
	Body   string
	Status string
}

// Service は記事の取得・作成・更新・削除を所有権ポリシーに従って行う。
type Service struct {
	repo      repository.ArticleRepository
	sanitizer security.ContentSanitizer
	recorder  CreatedRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(repo repository.ArticleRepository, sanitizer security.ContentSanitizer, recorder CreatedRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
	}
}

// GetPublic は公開記事を返す。下書きや存在しない記事はNotFound。
func (s *Service) GetPublic(ctx context.Context, id string) (*model.ArticleWithOwner, error) {
	a, err := s.repo.FindByIDAndStatus(ctx, id, model.ArticleStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	if a == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return a, nil
}

// GetOwnDraft は呼び出し元が所有する下書きを返す。
// 他人の記事、公開済みの記事、存在しない記事はいずれもNotFound。
func (s *Service) GetOwnDraft(ctx context.Context, identity model.Identity, id string) (*model.ArticleWithOwner, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}
	a, err := s.repo.FindOwnedByStatus(ctx, identity.UserID, id, model.ArticleStatusDraft)
	if err != nil {
		return nil, fmt.Errorf("failed to find draft: %w", err)
	}
	if a == nil {
		return nil, model.NewArticleNotFoundError(id)
	}
	return a, nil
}

// Create は呼び出し元を所有者として記事を作成する。
// statusが定義外の値であればInvalidStatus、title・bodyが空であればValidationErrorを返し、何も保存しない。
func (s *Service) Create(ctx context.Context, identity model.Identity, in CreateInput) (*model.ArticleWithOwner, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}

	status, err := model.ParseArticleStatus(in.Status)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &model.Article{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		Title:     s.sanitizer.SanitizeText(in.Title),
		Body:      s.sanitizer.SanitizeHTML(in.Body),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validation.Struct(a); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	// 所有者情報を含めて返すため、所有者スコープで読み直す
	created, err := s.repo.FindOwned(ctx, identity.UserID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload article: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("created article %s disappeared", a.ID)
	}

	if s.recorder != nil {
		s.recorder.RecordArticleCreated(string(status))
	}
	slog.Info("article created",
		slog.String("article_id", a.ID),
		slog.String("user_id", identity.UserID),
		slog.String("status", string(status)),
	)
	return created, nil
}

// Update は呼び出し元が所有する記事のtitle・body・statusを変更する。
// 所有者条件付きで取得できない記事はNotFound。検証に失敗した場合は保存済みの記事を変更しない。
func (s *Service) Update(ctx context.Context, identity model.Identity, id string, changes model.ArticleChanges) (*model.ArticleWithOwner, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}

	current, err := s.repo.FindOwned(ctx, identity.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find article: %w", err)
	}
	if current == nil {
		return nil, model.NewArticleNotFoundError(id)
	}

	updated := current.Article
	if changes.Status != nil {
		status, err := model.ParseArticleStatus(*changes.Status)
		if err != nil {
			return nil, err
		}
		updated.Status = status
	}
	if changes.Title != nil {
		updated.Title = s.sanitizer.SanitizeText(*changes.Title)
	}
	if changes.Body != nil {
		updated.Body = s.sanitizer.SanitizeHTML(*changes.Body)
	}
	if err := validation.Struct(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()

	if err := s.repo.UpdateOwned(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewArticleNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to update article: %w", err)
	}

	slog.Info("article updated",
		slog.String("article_id", id),
		slog.String("user_id", identity.UserID),
	)
	return &model.ArticleWithOwner{Article: updated, Owner: current.Owner}, nil
}

// Delete は呼び出し元が所有する記事を削除する。所有していない記事はNotFound。
func (s *Service) Delete(ctx context.Context, identity model.Identity, id string) error {
	if identity.IsAnonymous() {
		return model.NewUnauthorizedError()
	}

	if err := s.repo.DeleteOwned(ctx, identity.UserID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewArticleNotFoundError(id)
		}
		return fmt.Errorf("failed to delete article: %w", err)
	}

	slog.Info("article deleted",
		slog.String("article_id", id),
		slog.String("user_id", identity.UserID),
	)
	return nil
}
