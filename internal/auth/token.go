package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// TokenTypeBearer はtoken-typeヘッダーに設定する値。
const TokenTypeBearer = "Bearer"

// Credentials はクライアントに返す認証ヘッダーの値。
// AccessTokenは発行時にのみ平文で存在し、サーバー側にはハッシュのみ保存される。
type Credentials struct {
	AccessToken string
	Client      string
	Expiry      time.Time
	UID         string
	TokenType   string
}

// generateToken は暗号的に安全なランダムトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken は保存用のトークンハッシュを返す。
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// tokenMatches は平文トークンが保存済みハッシュと一致すればtrueを返す。
func tokenMatches(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashToken(token)), []byte(storedHash)) == 1
}
