// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bloghub/internal/model"
)

// トークン認証で送受信するヘッダー名。
const (
	HeaderAccessToken = "access-token"
	HeaderClient      = "client"
	HeaderExpiry      = "expiry"
	HeaderUID         = "uid"
	HeaderTokenType   = "token-type"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// Authenticator はトークンヘッダーから呼び出し元ユーザーを解決するインターフェース。
// 無効なトークンの場合はnil, nilを返す。
type Authenticator interface {
	Authenticate(ctx context.Context, uid, client, accessToken string) (*model.User, error)
}

// TokenHeaders はリクエストに含まれる認証ヘッダーの値。
type TokenHeaders struct {
	UID         string
	Client      string
	AccessToken string
}

// TokenHeadersFromRequest はリクエストから認証ヘッダーを読み取る。
func TokenHeadersFromRequest(r *http.Request) TokenHeaders {
	return TokenHeaders{
		UID:         r.Header.Get(HeaderUID),
		Client:      r.Header.Get(HeaderClient),
		AccessToken: r.Header.Get(HeaderAccessToken),
	}
}

// Present は3つのヘッダーがすべて指定されていればtrueを返す。
func (h TokenHeaders) Present() bool {
	return h.UID != "" && h.Client != "" && h.AccessToken != ""
}

// resolveUser はヘッダーを検証し、有効であればユーザーを返す。
// 前段で認証済みの場合はそのユーザーを返す。
func resolveUser(r *http.Request, authenticator Authenticator) *model.User {
	if user := UserFromContext(r.Context()); user != nil {
		return user
	}
	headers := TokenHeadersFromRequest(r)
	if !headers.Present() {
		return nil
	}
	user, err := authenticator.Authenticate(r.Context(), headers.UID, headers.Client, headers.AccessToken)
	if err != nil {
		slog.Error("failed to authenticate token",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return user
}

// NewRequireAuthMiddleware は認証ヘッダーを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401 Unauthorizedを返す。
func NewRequireAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := resolveUser(r, authenticator)
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// NewOptionalAuthMiddleware は有効な認証ヘッダーがあればユーザーを注入し、
// なければ匿名のまま次のハンドラーに渡すミドルウェアを返す。
func NewOptionalAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, authenticator); user != nil {
				r = r.WithContext(ContextWithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// アクセスログにもユーザーIDを伝える。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	if info, ok := ctx.Value(requestInfoContextKey).(*requestInfo); ok {
		info.userID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// IdentityFromContext はリクエストコンテキストから呼び出し元のIdentityを返す。
// 未認証の場合はmodel.AnonymousIdentity。
func IdentityFromContext(ctx context.Context) model.Identity {
	user := UserFromContext(ctx)
	if user == nil {
		return model.AnonymousIdentity
	}
	return model.NewIdentity(user.ID)
}
