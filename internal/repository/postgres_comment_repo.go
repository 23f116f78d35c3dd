package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/bloghub/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db DBTX
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db DBTX) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。記事または投稿者が存在しない場合はErrMissingReferenceを返す。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, article_id, user_id, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		comment.ID, comment.ArticleID, comment.UserID, comment.Body, comment.CreatedAt, comment.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrMissingReference
	}
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// ListByArticle は記事のコメントを投稿者情報付きでcreated_at昇順に返す。
func (r *PostgresCommentRepo) ListByArticle(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error) {
	if !isValidID(articleID) {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.article_id, c.user_id, c.body, c.created_at, c.updated_at,
		        u.id, u.name, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.article_id = $1
		 ORDER BY c.created_at ASC, c.id ASC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentWithAuthor
	for rows.Next() {
		var c model.CommentWithAuthor
		if err := rows.Scan(
			&c.ID, &c.ArticleID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
			&c.Author.ID, &c.Author.Name, &c.Author.Email,
		); err != nil {
			return nil, fmt.Errorf("コメント行の読み取りに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// DeleteByUserID はユーザーの全コメントを削除する。
func (r *PostgresCommentRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
