// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/hitoshi/bloghub/internal/auth"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, *auth.Credentials, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *auth.Credentials, error)
	SignOut(ctx context.Context, uid, client, accessToken string) error
}

// AuthHandler はトークン認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registrationRequest は { "registration": { ... } } 形式の登録リクエスト。
type registrationRequest struct {
	Registration *struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"registration"`
}

// Bind はregistrationキーの存在を検証する。
func (req *registrationRequest) Bind(_ *http.Request) error {
	if req.Registration == nil {
		return errors.New("registrationキーが必要です")
	}
	return nil
}

// signInRequest はサインインのリクエスト。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Bind は追加の検証を行わない。資格情報の検証はサービス層が行う。
func (req *signInRequest) Bind(_ *http.Request) error {
	return nil
}

// registrationResponse はユーザー登録のレスポンス。
type registrationResponse struct {
	Status string       `json:"status"`
	Data   userResponse `json:"data"`
}

// signInResponse はサインインのレスポンス。
type signInResponse struct {
	Data userResponse `json:"data"`
}

// authResultResponse はサインアウト・トークン検証のレスポンス。
type authResultResponse struct {
	Success bool          `json:"success"`
	Data    *userResponse `json:"data,omitempty"`
}

// authFailureResponse はサインイン・サインアウト失敗時のレスポンス。
type authFailureResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// Register はユーザーを登録し、認証ヘッダーを発行する。
// POST /auth
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeRequest(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, creds, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Registration.Name,
		Email:    req.Registration.Email,
		Password: req.Registration.Password,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	setTokenHeaders(w, creds)
	render.JSON(w, r, registrationResponse{
		Status: "success",
		Data:   toUserResponse(user.ID, user.Name, user.Email),
	})
}

// SignIn はemailとパスワードを検証し、認証ヘッダーを発行する。
// 失敗時は認証ヘッダーを付与せず401を返す。
// POST /auth/sign_in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeRequest(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	user, creds, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if writeAuthFailure(w, r, err, model.ErrCodeInvalidCredentials) {
			return
		}
		handleServiceError(w, r, err)
		return
	}

	setTokenHeaders(w, creds)
	render.JSON(w, r, signInResponse{Data: toUserResponse(user.ID, user.Name, user.Email)})
}

// SignOut はリクエストヘッダーのトークンを無効化する。
// 有効なトークンが見つからない場合は404を返す。
// DELETE /auth/sign_out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	headers := middleware.TokenHeadersFromRequest(r)

	if err := h.service.SignOut(r.Context(), headers.UID, headers.Client, headers.AccessToken); err != nil {
		if writeAuthFailure(w, r, err, model.ErrCodeSessionNotFound) {
			return
		}
		handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, authResultResponse{Success: true})
}

// ValidateToken は認証済みユーザーの情報を返す。
// GET /auth/validate_token
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeAPIErrorResponse(w, r, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	data := toUserResponse(user.ID, user.Name, user.Email)
	render.JSON(w, r, authResultResponse{Success: true, Data: &data})
}

// writeAuthFailure はerrが指定コードのAPIErrorであれば
// { success: false, errors: [...] } 形式で書き込み、trueを返す。
func writeAuthFailure(w http.ResponseWriter, r *http.Request, err error, code string) bool {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != code {
		return false
	}
	messages := apiErr.Details
	if len(messages) == 0 {
		messages = []string{apiErr.Message}
	}
	render.Status(r, mapAPIErrorToHTTPStatus(apiErr))
	render.JSON(w, r, authFailureResponse{Success: false, Errors: messages})
	return true
}

// setTokenHeaders は発行した認証情報をレスポンスヘッダーに設定する。
// expiryはUNIX秒。
func setTokenHeaders(w http.ResponseWriter, creds *auth.Credentials) {
	w.Header().Set(middleware.HeaderAccessToken, creds.AccessToken)
	w.Header().Set(middleware.HeaderClient, creds.Client)
	w.Header().Set(middleware.HeaderExpiry, strconv.FormatInt(creds.Expiry.Unix(), 10))
	w.Header().Set(middleware.HeaderUID, creds.UID)
	w.Header().Set(middleware.HeaderTokenType, creds.TokenType)
}
