package article

import (
	"context"
	"sync"

	"github.com/hitoshi/bloghub/internal/model"
	"github.com/hitoshi/bloghub/internal/repository"
)

// fakeArticleRepo はArticleRepositoryのインメモリ実装。
// 所有者スコープの判定はPostgreSQL実装と同じくクエリ条件として扱う。
type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]model.Article
	owners   map[string]model.ArticleOwner
	updates  int
}

func newFakeArticleRepo(owners ...model.ArticleOwner) *fakeArticleRepo {
	r := &fakeArticleRepo{
		articles: make(map[string]model.Article),
		owners:   make(map[string]model.ArticleOwner),
	}
	for _, o := range owners {
		r.owners[o.ID] = o
	}
	return r
}

func (r *fakeArticleRepo) put(a model.Article) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[a.ID] = a
}

func (r *fakeArticleRepo) get(id string) (model.Article, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	return a, ok
}

func (r *fakeArticleRepo) with(a model.Article) model.ArticleWithOwner {
	return model.ArticleWithOwner{Article: a, Owner: r.owners[a.UserID]}
}

func (r *fakeArticleRepo) collect(keep func(model.Article) bool) []model.ArticleWithOwner {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ArticleWithOwner
	for _, a := range r.articles {
		if keep(a) {
			out = append(out, r.with(a))
		}
	}
	return out
}

func (r *fakeArticleRepo) findOne(keep func(model.Article) bool) *model.ArticleWithOwner {
	list := r.collect(keep)
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func (r *fakeArticleRepo) ListByStatus(_ context.Context, status model.ArticleStatus) ([]model.ArticleWithOwner, error) {
	return r.collect(func(a model.Article) bool { return a.Status == status }), nil
}

func (r *fakeArticleRepo) ListByOwnerAndStatus(_ context.Context, ownerID string, status model.ArticleStatus) ([]model.ArticleWithOwner, error) {
	return r.collect(func(a model.Article) bool { return a.UserID == ownerID && a.Status == status }), nil
}

func (r *fakeArticleRepo) FindByIDAndStatus(_ context.Context, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error) {
	return r.findOne(func(a model.Article) bool { return a.ID == id && a.Status == status }), nil
}

func (r *fakeArticleRepo) FindOwned(_ context.Context, ownerID, id string) (*model.ArticleWithOwner, error) {
	return r.findOne(func(a model.Article) bool { return a.ID == id && a.UserID == ownerID }), nil
}

func (r *fakeArticleRepo) FindOwnedByStatus(_ context.Context, ownerID, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error) {
	return r.findOne(func(a model.Article) bool {
		return a.ID == id && a.UserID == ownerID && a.Status == status
	}), nil
}

func (r *fakeArticleRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.get(id)
	return ok, nil
}

func (r *fakeArticleRepo) Create(_ context.Context, a *model.Article) error {
	r.put(*a)
	return nil
}

func (r *fakeArticleRepo) UpdateOwned(_ context.Context, a *model.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.articles[a.ID]
	if !ok || current.UserID != a.UserID {
		return repository.ErrNotFound
	}
	current.Title, current.Body, current.Status, current.UpdatedAt = a.Title, a.Body, a.Status, a.UpdatedAt
	r.articles[a.ID] = current
	r.updates++
	return nil
}

func (r *fakeArticleRepo) DeleteOwned(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.articles[id]
	if !ok || current.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.articles, id)
	return nil
}

var _ repository.ArticleRepository = (*fakeArticleRepo)(nil)

// passthroughSanitizer は入力をそのまま返すサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) SanitizeHTML(raw string) string { return raw }
func (passthroughSanitizer) SanitizeText(raw string) string { return raw }
