package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/hitoshi/bloghub/internal/like"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// LikeServiceInterface はいいねハンドラーが必要とするサービスインターフェース。
type LikeServiceInterface interface {
	Like(ctx context.Context, identity model.Identity, articleID string) (*like.Summary, error)
	Unlike(ctx context.Context, identity model.Identity, articleID string) error
}

// LikeHandler はいいねのHTTPハンドラー。
type LikeHandler struct {
	service LikeServiceInterface
}

// NewLikeHandler はLikeHandlerを生成する。
func NewLikeHandler(service LikeServiceInterface) *LikeHandler {
	return &LikeHandler{service: service}
}

// Like は記事にいいねする。
// POST /articles/:id/likes
func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Like(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, likeSummaryResponse{
		ArticleID:  summary.ArticleID,
		LikesCount: summary.LikesCount,
	})
}

// Unlike は記事へのいいねを取り消す。
// DELETE /articles/:id/likes
func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Unlike(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
