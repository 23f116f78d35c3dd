package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Create(ctx context.Context, identity model.Identity, articleID, body string) (*model.CommentWithAuthor, error)
	ListForPublic(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error)
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentRequest は { "comment": { "body": ... } } 形式のリクエスト。
type commentRequest struct {
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// Bind はcommentキーの存在を検証する。
func (req *commentRequest) Bind(_ *http.Request) error {
	if req.Comment == nil {
		return errors.New("commentキーが必要です")
	}
	return nil
}

// Create は記事にコメントを投稿する。
// POST /articles/:id/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeRequest(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	c, err := h.service.Create(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id"), req.Comment.Body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toCommentResponse(*c))
}

// List は公開記事のコメント一覧を返す。
// GET /articles/:id/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListForPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, toCommentResponses(list))
}
