// Package app はサブコマンドごとの起動処理と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/docgen"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/bloghub/internal/article"
	"github.com/hitoshi/bloghub/internal/auth"
	"github.com/hitoshi/bloghub/internal/comment"
	"github.com/hitoshi/bloghub/internal/config"
	"github.com/hitoshi/bloghub/internal/database"
	"github.com/hitoshi/bloghub/internal/handler"
	"github.com/hitoshi/bloghub/internal/like"
	"github.com/hitoshi/bloghub/internal/logger"
	"github.com/hitoshi/bloghub/internal/metrics"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/repository"
	"github.com/hitoshi/bloghub/internal/security"
	"github.com/hitoshi/bloghub/internal/user"
	"github.com/hitoshi/bloghub/internal/worker/cleanup"
)

// 起動時のDB疎通確認
const (
	dbPingTimeout     = 5 * time.Second
	dbConnectAttempts = 5
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. .envと環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// .envで指定されたLOG_LEVELを反映する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck と routes はDBを使わないため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	case CommandRoutes:
		return runRoutes(w)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

// services はHTTP層に公開するドメインサービスの集合。
type services struct {
	auth     *auth.Service
	users    *user.Service
	articles *article.Service
	query    *article.QueryService
	comments *comment.Service
	likes    *like.Service
}

// newServices はリポジトリとドメインサービスを組み立てる。
func newServices(db *sql.DB, cfg *config.Config, collector *metrics.Collector) *services {
	userRepo := repository.NewPostgresUserRepo(db)
	tokenRepo := repository.NewPostgresAuthTokenRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)
	likeRepo := repository.NewPostgresLikeRepo(db)

	sanitizer := security.NewContentSanitizer()

	return &services{
		auth: auth.NewService(userRepo, tokenRepo, collector, auth.ServiceConfig{
			TokenLifespan: cfg.TokenLifespan,
			BcryptCost:    cfg.BcryptCost,
		}),
		users:    user.NewService(userRepo),
		articles: article.NewService(articleRepo, sanitizer, collector),
		query:    article.NewQueryService(articleRepo),
		comments: comment.NewService(commentRepo, articleRepo, userRepo, sanitizer),
		likes:    like.NewService(likeRepo, articleRepo, collector),
	}
}

// newRegistry はGo・プロセスの標準コレクターを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.PingWithRetry(context.Background(), db, dbPingTimeout, dbConnectAttempts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. メトリクス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	// 3. ドメインサービス
	svc := newServices(db, cfg, collector)

	// 4. レートリミッター
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite))
	defer limiter.Stop()

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Authenticator:     svc.auth,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		HTTPRecorder:      collector,
		HealthChecker:     db,
		MetricsHandler:    metrics.Handler(reg),

		AuthService:    svc.auth,
		UserService:    svc.users,
		ArticleService: svc.articles,
		ArticleQuery:   svc.query,
		CommentService: svc.comments,
		LikeService:    svc.likes,
	})

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, cfg.ShutdownTimeout)
}

// serveUntilSignal はサーバーを起動し、シグナル受信またはListen失敗まで待機する。
func serveUntilSignal(server *http.Server, shutdownTimeout time.Duration) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}

	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れトークンのクリーンアップを定期実行し、/metricsを公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), collector)
	cleanupJob.GracePeriod = cfg.TokenCleanupGrace

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           metrics.SetupMetricsRoute(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.TokenCleanupInterval),
		slog.Duration("cleanup_grace", cfg.TokenCleanupGrace),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.TokenCleanupInterval)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はmigrate up/down/versionを実行する。
// downは直近の1ステップだけを戻す。
func runMigrate(cfg *config.Config, args []string) error {
	action, err := ParseMigrateAction(args)
	if err != nil {
		return err
	}

	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	var status database.MigrationStatus
	switch action {
	case MigrateDown:
		status, err = database.RollbackMigration(cfg.DatabaseURL)
	case MigrateVersion:
		status, err = database.CurrentMigration(cfg.DatabaseURL)
	default:
		if err = database.RunMigrations(cfg.DatabaseURL); err == nil {
			status, err = database.CurrentMigration(cfg.DatabaseURL)
		}
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed",
		slog.String("action", string(action)),
		slog.Uint64("version", uint64(status.Version)),
		slog.Bool("dirty", status.Dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// runRoutes は全エンドポイントのルーティング表をMarkdownでwに書き出す。
// ハンドラーは呼び出されないため、サービスを接続しないルーターで足りる。
func runRoutes(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		MetricsHandler: http.NotFoundHandler(),
	})

	doc := docgen.MarkdownRoutesDoc(router, docgen.MarkdownOpts{
		ProjectPath: "github.com/hitoshi/bloghub",
		Intro:       "bloghub REST API routes.",
	})
	_, err := io.WriteString(w, doc)
	return err
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
