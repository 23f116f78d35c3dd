// Package cleanup は有効期限切れ認証トークンの自動削除ジョブを提供する。
// 期限切れのauth_tokens行は認証に使われることはないが、
// サインアウトされずに放置された分が蓄積するため定期的に削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval はStartに正の間隔が渡されなかった場合の実行間隔。
const DefaultInterval = time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DeletedCounter は削除件数を記録するメトリクスのインターフェース。
type DeletedCounter interface {
	AddExpiredTokensDeleted(n int)
}

// CleanupJob は期限切れトークンの削除ジョブ。
// 冪等な削除処理で、削除対象がなくてもエラーにならない。
type CleanupJob struct {
	db      Executor
	logger  *slog.Logger
	counter DeletedCounter
	now     func() time.Time

	// GracePeriod は有効期限からこの期間が経過したトークンのみを削除する（デフォルト: 0）。
	GracePeriod time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。counterはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, counter DeletedCounter) *CleanupJob {
	return &CleanupJob{
		db:      db,
		logger:  logger,
		counter: counter,
		now:     time.Now,
	}
}

// Run は有効期限からGracePeriodを超過したトークンを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.GracePeriod)

	result, err := j.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		j.logger.Error("トークンクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("トークンクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.counter != nil {
		j.counter.AddExpiredTokensDeleted(int(deletedCount))
	}

	j.logger.Info("トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回、以後intervalごとにRunを実行する。
// intervalが0以下の場合はDefaultIntervalを使う。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	j.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}
}
