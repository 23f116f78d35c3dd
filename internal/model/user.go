// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// emailは一意。PasswordHashはbcryptハッシュで、APIレスポンスには含めない。
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AuthToken はクライアントごとに発行される認証トークンを表す。
// トークン本体は保存せず、SHA-256ハッシュのみを保持する。
type AuthToken struct {
	ID        string
	UserID    string
	Client    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Identity はリクエストの呼び出し元を表す。
// 未認証リクエストはAnonymousIdentityで表現する。
type Identity struct {
	UserID string
}

// AnonymousIdentity は未認証の呼び出し元を表す。
var AnonymousIdentity = Identity{}

// NewIdentity は認証済みユーザーのIdentityを生成する。
func NewIdentity(userID string) Identity {
	return Identity{UserID: userID}
}

// IsAnonymous は未認証の呼び出し元であればtrueを返す。
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}
