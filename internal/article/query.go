package article

import (
	"context"
	"fmt"

	"github.com/hitoshi/bloghub/internal/model"
	"github.com/hitoshi/bloghub/internal/repository"
)

// QueryService は記事一覧（公開フィード、自分の下書き、自分の公開記事）を提供する。
// リポジトリの結果にも可視性の判定と並び順を適用する。
type QueryService struct {
	repo repository.ArticleRepository
}

// NewQueryService はQueryServiceを生成する。
func NewQueryService(repo repository.ArticleRepository) *QueryService {
	return &QueryService{repo: repo}
}

// ListPublic は公開記事を新しい順に返す。
func (q *QueryService) ListPublic(ctx context.Context) ([]model.ArticleWithOwner, error) {
	articles, err := q.repo.ListByStatus(ctx, model.ArticleStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list public articles: %w", err)
	}
	return view(articles, Published()), nil
}

// ListOwnDrafts は呼び出し元が所有する下書きを新しい順に返す。
func (q *QueryService) ListOwnDrafts(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error) {
	return q.listOwn(ctx, identity, model.ArticleStatusDraft)
}

// ListOwnPublished は呼び出し元が所有する公開記事を新しい順に返す。
func (q *QueryService) ListOwnPublished(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error) {
	return q.listOwn(ctx, identity, model.ArticleStatusPublished)
}

func (q *QueryService) listOwn(ctx context.Context, identity model.Identity, status model.ArticleStatus) ([]model.ArticleWithOwner, error) {
	if identity.IsAnonymous() {
		return nil, model.NewUnauthorizedError()
	}
	articles, err := q.repo.ListByOwnerAndStatus(ctx, identity.UserID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list own %s articles: %w", status, err)
	}
	return view(articles, OwnedWithStatus(identity, status)), nil
}

func view(articles []model.ArticleWithOwner, keep Predicate) []model.ArticleWithOwner {
	out := Filter(articles, keep)
	SortByRecency(out)
	return out
}
