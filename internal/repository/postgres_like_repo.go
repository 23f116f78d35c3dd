package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/bloghub/internal/model"
)

// PostgresLikeRepo はPostgreSQLを使用したいいねリポジトリ。
type PostgresLikeRepo struct {
	db DBTX
}

// NewPostgresLikeRepo はPostgresLikeRepoを生成する。
func NewPostgresLikeRepo(db DBTX) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

// Create はいいねを作成する。
// 事前の存在確認は行わず、(article_id, user_id) の一意インデックス違反をErrDuplicateに変換する。
func (r *PostgresLikeRepo) Create(ctx context.Context, like *model.ArticleLike) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO article_likes (id, article_id, user_id, created_at)
		 VALUES ($1, $2, $3, $4)`,
		like.ID, like.ArticleID, like.UserID, like.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if isForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return fmt.Errorf("いいねの作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定ユーザーの指定記事へのいいねを削除する。
func (r *PostgresLikeRepo) Delete(ctx context.Context, userID, articleID string) error {
	if !isValidID(userID) || !isValidID(articleID) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_likes WHERE user_id = $1 AND article_id = $2`,
		userID, articleID,
	)
	if err != nil {
		return fmt.Errorf("いいねの削除に失敗しました: %w", err)
	}
	return requireAffected(result)
}

// CountByArticle は記事のいいね数を返す。
func (r *PostgresLikeRepo) CountByArticle(ctx context.Context, articleID string) (int, error) {
	if !isValidID(articleID) {
		return 0, nil
	}
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM article_likes WHERE article_id = $1`,
		articleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("いいね数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// DeleteByUserID はユーザーの全いいねを削除する。
func (r *PostgresLikeRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM article_likes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全いいねの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ LikeRepository = (*PostgresLikeRepo)(nil)
