package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bloghub/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db DBTX
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db DBTX) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// articleSelect は記事と所有者情報をJOINして取得するSELECT句。
const articleSelect = `SELECT
	a.id, a.user_id, a.title, a.body, a.status, a.created_at, a.updated_at,
	u.id, u.name, u.email
 FROM articles a
 JOIN users u ON u.id = a.user_id`

// articleOrder は一覧の並び順。updated_at降順、同時刻はid降順。
const articleOrder = ` ORDER BY a.updated_at DESC, a.id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner, a *model.ArticleWithOwner) error {
	return row.Scan(
		&a.ID, &a.UserID, &a.Title, &a.Body, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&a.Owner.ID, &a.Owner.Name, &a.Owner.Email,
	)
}

// ListByStatus は指定状態の記事を所有者情報付きで返す。
func (r *PostgresArticleRepo) ListByStatus(ctx context.Context, status model.ArticleStatus) ([]model.ArticleWithOwner, error) {
	return r.list(ctx, articleSelect+` WHERE a.status = $1`+articleOrder, status)
}

// ListByOwnerAndStatus は指定ユーザーが所有する指定状態の記事を返す。
func (r *PostgresArticleRepo) ListByOwnerAndStatus(ctx context.Context, ownerID string, status model.ArticleStatus) ([]model.ArticleWithOwner, error) {
	if !isValidID(ownerID) {
		return nil, nil
	}
	return r.list(ctx, articleSelect+` WHERE a.user_id = $1 AND a.status = $2`+articleOrder, ownerID, status)
}

func (r *PostgresArticleRepo) list(ctx context.Context, query string, args ...any) ([]model.ArticleWithOwner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var articles []model.ArticleWithOwner
	for rows.Next() {
		var a model.ArticleWithOwner
		if err := scanArticle(rows, &a); err != nil {
			return nil, fmt.Errorf("記事行の読み取りに失敗しました: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return articles, nil
}

// FindByIDAndStatus は指定IDかつ指定状態の記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByIDAndStatus(ctx context.Context, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error) {
	if !isValidID(id) {
		return nil, nil
	}
	return r.findOne(ctx, articleSelect+` WHERE a.id = $1 AND a.status = $2`, id, status)
}

// FindOwned は指定ユーザーが所有する指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindOwned(ctx context.Context, ownerID, id string) (*model.ArticleWithOwner, error) {
	if !isValidID(ownerID) || !isValidID(id) {
		return nil, nil
	}
	return r.findOne(ctx, articleSelect+` WHERE a.user_id = $1 AND a.id = $2`, ownerID, id)
}

// FindOwnedByStatus は指定ユーザーが所有する指定ID・指定状態の記事を取得する。
func (r *PostgresArticleRepo) FindOwnedByStatus(ctx context.Context, ownerID, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error) {
	if !isValidID(ownerID) || !isValidID(id) {
		return nil, nil
	}
	return r.findOne(ctx, articleSelect+` WHERE a.user_id = $1 AND a.id = $2 AND a.status = $3`, ownerID, id, status)
}

func (r *PostgresArticleRepo) findOne(ctx context.Context, query string, args ...any) (*model.ArticleWithOwner, error) {
	a := &model.ArticleWithOwner{}
	err := scanArticle(r.db.QueryRowContext(ctx, query, args...), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return a, nil
}

// Exists は指定IDの記事が状態に関わらず存在すればtrueを返す。
func (r *PostgresArticleRepo) Exists(ctx context.Context, id string) (bool, error) {
	if !isValidID(id) {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("記事の存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create は記事を作成する。
func (r *PostgresArticleRepo) Create(ctx context.Context, article *model.Article) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (id, user_id, title, body, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		article.ID, article.UserID, article.Title, article.Body, article.Status, article.CreatedAt, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateOwned は所有者が一致する記事のtitle、body、statusを更新する。
// user_idは更新対象に含めない。
func (r *PostgresArticleRepo) UpdateOwned(ctx context.Context, article *model.Article) error {
	if !isValidID(article.UserID) || !isValidID(article.ID) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE articles SET title = $3, body = $4, status = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		article.ID, article.UserID, article.Title, article.Body, article.Status, article.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	return requireAffected(result)
}

// DeleteOwned は所有者が一致する記事を削除する。
// comments、article_likesはCASCADE削除される。
func (r *PostgresArticleRepo) DeleteOwned(ctx context.Context, ownerID, id string) error {
	if !isValidID(ownerID) || !isValidID(id) {
		return ErrNotFound
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM articles WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}
	return requireAffected(result)
}

// requireAffected は更新行数が0の場合にErrNotFoundを返す。
func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
