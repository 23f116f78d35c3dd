package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/hitoshi/bloghub/internal/article"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// ArticleServiceInterface は記事ハンドラーが必要とする単一記事操作のインターフェース。
type ArticleServiceInterface interface {
	GetPublic(ctx context.Context, id string) (*model.ArticleWithOwner, error)
	GetOwnDraft(ctx context.Context, identity model.Identity, id string) (*model.ArticleWithOwner, error)
	Create(ctx context.Context, identity model.Identity, in article.CreateInput) (*model.ArticleWithOwner, error)
	Update(ctx context.Context, identity model.Identity, id string, changes model.ArticleChanges) (*model.ArticleWithOwner, error)
	Delete(ctx context.Context, identity model.Identity, id string) error
}

// ArticleQueryInterface は記事一覧のインターフェース。
type ArticleQueryInterface interface {
	ListPublic(ctx context.Context) ([]model.ArticleWithOwner, error)
	ListOwnDrafts(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error)
	ListOwnPublished(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error)
}

// ArticleHandler は記事のHTTPハンドラー。
type ArticleHandler struct {
	service ArticleServiceInterface
	query   ArticleQueryInterface
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(service ArticleServiceInterface, query ArticleQueryInterface) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		query:   query,
	}
}

// articleParams は記事作成・更新の入力フィールド。
// 省略されたフィールドはnilのまま残る。
type articleParams struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	Status *string `json:"status"`
}

// articleRequest は { "article": { ... } } 形式のリクエストボディ。
type articleRequest struct {
	Article *articleParams `json:"article"`
}

// Bind はarticleキーの存在を検証する。
func (req *articleRequest) Bind(_ *http.Request) error {
	if req.Article == nil {
		return errors.New("articleキーが必要です")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListPublic は公開記事の一覧を返す。
// GET /articles
func (h *ArticleHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.query.ListPublic(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toArticlePreviews(list))
}

// ListOwnDrafts は呼び出し元の下書き一覧を返す。
// GET /articles/drafts
func (h *ArticleHandler) ListOwnDrafts(w http.ResponseWriter, r *http.Request) {
	list, err := h.query.ListOwnDrafts(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toArticlePreviews(list))
}

// ListOwnPublished は呼び出し元の公開記事一覧を返す。
// GET /current/articles
func (h *ArticleHandler) ListOwnPublished(w http.ResponseWriter, r *http.Request) {
	list, err := h.query.ListOwnPublished(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toArticlePreviews(list))
}

// GetPublic は公開記事の詳細を返す。
// GET /articles/:id
func (h *ArticleHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toArticleDetail(a))
}

// GetOwnDraft は呼び出し元の下書きの詳細を返す。
// GET /articles/drafts/:id
func (h *ArticleHandler) GetOwnDraft(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetOwnDraft(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toArticleDetail(a))
}

// Create は記事を作成する。
// POST /articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeRequest(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Create(r.Context(), middleware.IdentityFromContext(r.Context()), article.CreateInput{
		Title:  deref(req.Article.Title),
		Body:   deref(req.Article.Body),
		Status: deref(req.Article.Status),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toArticleDetail(a))
}

// Update は呼び出し元が所有する記事を更新する。
// PATCH /articles/:id
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeRequest(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	a, err := h.service.Update(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), model.ArticleChanges{
		Title:  req.Article.Title,
		Body:   req.Article.Body,
		Status: req.Article.Status,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, toArticleDetail(a))
}

// Delete は呼び出し元が所有する記事を削除する。
// DELETE /articles/:id
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
