package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloghub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPRecorder      middleware.HTTPRecorder

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証・ユーザー
	AuthService AuthServiceInterface
	UserService UserServiceInterface

	// 記事
	ArticleService ArticleServiceInterface
	ArticleQuery   ArticleQueryInterface

	// コメント・いいね
	CommentService CommentServiceInterface
	LikeService    LikeServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → CORS → SecurityHeaders → OptionalAuth → RateLimit(General)
//
// 認証が必要なルートにはRequireAuthを、書き込みにはRateLimit(Write)を追加する。
// /health と /metrics は認証とレート制限の外に配置する。
func NewRouter(deps *RouterDeps) chi.Router {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	articleHandler := NewArticleHandler(deps.ArticleService, deps.ArticleQuery)
	commentHandler := NewCommentHandler(deps.CommentService)
	likeHandler := NewLikeHandler(deps.LikeService)

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	requireAuth := middleware.NewRequireAuthMiddleware(deps.Authenticator)
	writeLimit := passThrough
	if deps.RateLimiter != nil {
		writeLimit = deps.RateLimiter.WriteMiddleware()
	}

	// --- APIルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.Authenticator))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Post("/", authHandler.Register)
			r.Post("/sign_in", authHandler.SignIn)
			// 無効なトークンは401ではなく404で応答するため、RequireAuthを通さない
			r.Delete("/sign_out", authHandler.SignOut)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/validate_token", authHandler.ValidateToken)
				r.Delete("/", userHandler.Withdraw)
			})
		})

		// 記事
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListPublic)
			r.With(requireAuth, writeLimit).Post("/", articleHandler.Create)

			// 下書き（/articles/{id} より優先される静的パス）
			r.Route("/drafts", func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", articleHandler.ListOwnDrafts)
				r.Get("/{id}", articleHandler.GetOwnDraft)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", articleHandler.GetPublic)
				r.With(requireAuth, writeLimit).Patch("/", articleHandler.Update)
				r.With(requireAuth, writeLimit).Delete("/", articleHandler.Delete)

				r.Get("/comments", commentHandler.List)
				r.With(requireAuth, writeLimit).Post("/comments", commentHandler.Create)

				r.With(requireAuth, writeLimit).Post("/likes", likeHandler.Like)
				r.With(requireAuth, writeLimit).Delete("/likes", likeHandler.Unlike)
			})
		})

		// 呼び出し元の公開記事
		r.With(requireAuth).Get("/current/articles", articleHandler.ListOwnPublished)
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}
