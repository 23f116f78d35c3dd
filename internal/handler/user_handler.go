package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw は呼び出し元のトークン・いいね・コメント・記事・ユーザーを削除する。
	Withdraw(ctx context.Context, identity model.Identity) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// withdrawResponse は退会処理のレスポンス。
type withdrawResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /auth
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeAPIErrorResponse(w, r, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), model.NewIdentity(user.ID)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, withdrawResponse{
		Status:  "success",
		Message: fmt.Sprintf("Account with UID '%s' has been destroyed.", user.Email),
	})
}
