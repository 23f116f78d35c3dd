// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/bloghub/internal/model"
)

// DBTX は*sql.DBと*sql.Txの共通部分。
// リポジトリをトランザクション内でも同じように使うために受け取る。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// ErrDuplicate は一意制約違反を表す。
// 一意性はアプリケーション側の事前チェックではなくDBの制約で判定する。
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound は所有者スコープ付きの更新・削除で対象行が存在しなかったことを表す。
var ErrNotFound = errors.New("record not found")

// ErrMissingReference は挿入時に外部キーの参照先が存在しなかったことを表す。
// 存在確認から挿入までの間に参照先が削除された場合に返る。
var ErrMissingReference = errors.New("referenced record does not exist")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。emailが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Withdraw はユーザーと、そのユーザーの認証トークン・いいね・コメントを
	// 1つのトランザクションで削除する。記事と記事に付いた他人の行はCASCADE削除される。
	// 途中で失敗した場合は何も削除しない。対象ユーザーがいない場合はErrNotFoundを返す。
	Withdraw(ctx context.Context, id string) error
}

// AuthTokenRepository は認証トークンの永続化インターフェース。
type AuthTokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.AuthToken) error

	// FindActive はuid（email）とclientで有効期限内のトークンを取得する。
	// 期限切れまたは見つからない場合はnilを返す。
	FindActive(ctx context.Context, uid, client string) (*model.AuthToken, error)

	// DeleteByID は指定IDのトークンを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ArticleRepository は記事データの永続化インターフェース。
// 所有者に限定した取得・更新・削除は、owner条件とid条件を同一クエリに含めて行う。
type ArticleRepository interface {
	// ListByStatus は指定状態の記事を所有者情報付きで返す。
	// updated_at降順、同時刻はid降順。
	ListByStatus(ctx context.Context, status model.ArticleStatus) ([]model.ArticleWithOwner, error)

	// ListByOwnerAndStatus は指定ユーザーが所有する指定状態の記事を返す。
	// updated_at降順、同時刻はid降順。
	ListByOwnerAndStatus(ctx context.Context, ownerID string, status model.ArticleStatus) ([]model.ArticleWithOwner, error)

	// FindByIDAndStatus は指定IDかつ指定状態の記事を取得する。見つからない場合はnilを返す。
	FindByIDAndStatus(ctx context.Context, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error)

	// FindOwned は指定ユーザーが所有する指定IDの記事を取得する。見つからない場合はnilを返す。
	FindOwned(ctx context.Context, ownerID, id string) (*model.ArticleWithOwner, error)

	// FindOwnedByStatus は指定ユーザーが所有する指定ID・指定状態の記事を取得する。
	// 見つからない場合はnilを返す。
	FindOwnedByStatus(ctx context.Context, ownerID, id string, status model.ArticleStatus) (*model.ArticleWithOwner, error)

	// Exists は指定IDの記事が状態に関わらず存在すればtrueを返す。
	Exists(ctx context.Context, id string) (bool, error)

	// Create は記事を作成する。
	Create(ctx context.Context, article *model.Article) error

	// UpdateOwned は所有者が一致する記事のtitle、body、statusを更新する。
	// 対象行がない場合はErrNotFoundを返す。
	UpdateOwned(ctx context.Context, article *model.Article) error

	// DeleteOwned は所有者が一致する記事を削除する。
	// 対象行がない場合はErrNotFoundを返す。
	DeleteOwned(ctx context.Context, ownerID, id string) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByArticle は記事のコメントを投稿者情報付きでcreated_at昇順に返す。
	ListByArticle(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error)

	// DeleteByUserID はユーザーの全コメントを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// LikeRepository はいいねデータの永続化インターフェース。
type LikeRepository interface {
	// Create はいいねを作成する。
	// (article_id, user_id) が既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, like *model.ArticleLike) error

	// Delete は指定ユーザーの指定記事へのいいねを削除する。
	// 対象行がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, userID, articleID string) error

	// CountByArticle は記事のいいね数を返す。
	CountByArticle(ctx context.Context, articleID string) (int, error)

	// DeleteByUserID はユーザーの全いいねを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// isUniqueViolation はPostgreSQLの一意制約違反（23505）であればtrueを返す。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isForeignKeyViolation はPostgreSQLの外部キー制約違反（23503）であればtrueを返す。
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// isValidID はUUID形式のIDであればtrueを返す。
// UUID以外の値はクエリを発行せず「見つからない」として扱う。
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
