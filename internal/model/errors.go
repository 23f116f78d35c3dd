// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, article, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // フィールド名 → 理由（validationのみ）
	Details  []string          // 認証エラーで返すメッセージ一覧
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound    = "ARTICLE_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeAlreadyLiked       = "ALREADY_LIKED"
	ErrCodeLikeNotFound       = "LIKE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// バリデーション理由
const (
	ReasonBlank    = "blank"
	ReasonInvalid  = "invalid"
	ReasonTooShort = "too_short"
	ReasonTooLong  = "too_long"
	ReasonTaken    = "taken"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
// 存在しない記事と、呼び出し元から見えない記事は区別しない。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewValidationError はフィールド検証エラーを生成する。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各項目の入力内容を確認してください。",
		Fields:   fields,
	}
}

// NewInvalidStatusError は定義外の記事状態が指定された場合のエラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な記事状態です: %s", status),
		Category: "validation",
		Action:   "statusには draft または published を指定してください。",
	}
}

// NewInvalidRequestError はリクエストの形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの形式が不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewUnauthorizedError は認証が必要な操作を未認証で呼び出した場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
		Details:  []string{"You need to sign in or sign up before continuing."},
	}
}

// NewInvalidCredentialsError はログイン情報が誤っている場合のエラーを生成する。
// emailとパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
		Details:  []string{"Invalid login credentials. Please try again."},
	}
}

// NewSessionNotFoundError はログアウト対象のトークンが見つからない場合のエラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "ログイン中のユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
		Details:  []string{"User was not found or was not logged in."},
	}
}

// NewAlreadyLikedError は同じ記事に二度いいねしようとした場合のエラーを生成する。
func NewAlreadyLikedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyLiked,
		Message:  "この記事には既にいいねしています。",
		Category: "article",
		Action:   "いいねを取り消す場合はDELETEを使用してください。",
	}
}

// NewLikeNotFoundError はいいねが存在しない場合のエラーを生成する。
func NewLikeNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeLikeNotFound,
		Message:  "いいねが見つかりません。",
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
