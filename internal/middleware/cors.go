package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// tokenHeaders はクライアントが送信し、レスポンスから読み取る認証ヘッダー。
var tokenHeaders = []string{HeaderAccessToken, HeaderClient, HeaderExpiry, HeaderUID, HeaderTokenType}

// parseOrigins はカンマ区切りのオリジン一覧を分解する。
func parseOrigins(list string) []string {
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// NewCORSMiddleware は許可オリジン（カンマ区切り、"*"で全許可）に対するCORSミドルウェアを返す。
// 許可されたOriginにだけAccess-Control-*ヘッダーを付け、認証ヘッダーの送信と読み取りを許可する。
// OPTIONSプリフライトには常に204で応答し、後続には渡さない。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins := parseOrigins(allowedOrigins)
	wildcard := slices.Contains(origins, "*")
	allowHeaders := strings.Join(append([]string{"Content-Type"}, tokenHeaders...), ", ")
	exposeHeaders := strings.Join(tokenHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin := r.Header.Get("Origin"); origin != "" && (wildcard || slices.Contains(origins, origin)) {
				if wildcard {
					origin = "*"
				}
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Expose-Headers", exposeHeaders)
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
