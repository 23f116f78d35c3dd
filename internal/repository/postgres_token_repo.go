package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bloghub/internal/model"
)

// PostgresAuthTokenRepo はPostgreSQLを使用した認証トークンリポジトリ。
type PostgresAuthTokenRepo struct {
	db DBTX
}

// NewPostgresAuthTokenRepo はPostgresAuthTokenRepoを生成する。
func NewPostgresAuthTokenRepo(db DBTX) *PostgresAuthTokenRepo {
	return &PostgresAuthTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresAuthTokenRepo) Create(ctx context.Context, token *model.AuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (id, user_id, client, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.UserID, token.Client, token.TokenHash, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("認証トークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindActive はuid（email）とclientで有効期限内のトークンを取得する。
// 期限切れまたは見つからない場合はnilを返す。
func (r *PostgresAuthTokenRepo) FindActive(ctx context.Context, uid, client string) (*model.AuthToken, error) {
	token := &model.AuthToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.client, t.token_hash, t.expires_at, t.created_at
		 FROM auth_tokens t
		 JOIN users u ON u.id = t.user_id
		 WHERE u.email = $1 AND t.client = $2 AND t.expires_at > now()`,
		uid, client,
	).Scan(&token.ID, &token.UserID, &token.Client, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("認証トークンの取得に失敗しました: %w", err)
	}

	return token, nil
}

// DeleteByID は指定IDのトークンを削除する。
func (r *PostgresAuthTokenRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("認証トークンの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全トークンを削除する。
func (r *PostgresAuthTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_tokens WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの全認証トークンの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AuthTokenRepository = (*PostgresAuthTokenRepo)(nil)
