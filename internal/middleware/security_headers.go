package middleware

import "net/http"

// jsonAPIPolicy はJSONのみを返すAPI向けのContent-Security-Policy。
const jsonAPIPolicy = "default-src 'none'; frame-ancestors 'none'"

// NewSecurityHeadersMiddleware はJSON API向けのセキュリティヘッダーを付与するミドルウェアを返す。
// トークンヘッダー付きのリクエストへの応答はユーザー固有なのでキャッシュさせない。
func NewSecurityHeadersMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Content-Security-Policy", jsonAPIPolicy)
			h.Set("Referrer-Policy", "no-referrer")
			h.Add("Vary", HeaderAccessToken)
			if r.Header.Get(HeaderAccessToken) != "" {
				h.Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
