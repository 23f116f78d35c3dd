// Package model はドメインモデルを定義する。
package model

import "time"

// ArticleStatus は記事の公開状態を表す。
type ArticleStatus string

const (
	// ArticleStatusDraft は所有者のみが閲覧できる下書き状態。
	ArticleStatusDraft ArticleStatus = "draft"
	// ArticleStatusPublished は誰でも閲覧できる公開状態。
	ArticleStatusPublished ArticleStatus = "published"
)

// ParseArticleStatus は入力値をArticleStatusに変換する。
// 空文字列はデフォルトの下書き状態として扱う。
// 定義外の値はInvalidStatusエラーを返し、黙って置き換えることはしない。
func ParseArticleStatus(s string) (ArticleStatus, error) {
	switch ArticleStatus(s) {
	case "":
		return ArticleStatusDraft, nil
	case ArticleStatusDraft, ArticleStatusPublished:
		return ArticleStatus(s), nil
	default:
		return "", NewInvalidStatusError(s)
	}
}

// Valid は定義済みの状態であればtrueを返す。
func (s ArticleStatus) Valid() bool {
	return s == ArticleStatusDraft || s == ArticleStatusPublished
}

// Article はユーザーが投稿する記事を表す。
// UserIDは作成時に認証済みユーザーから設定され、以後変更されない。
type Article struct {
	ID        string
	UserID    string
	Title     string        `validate:"notblank,max=255"`
	Body      string        `validate:"notblank"`
	Status    ArticleStatus `validate:"required,oneof=draft published"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ArticleOwner は記事の所有者として表示されるユーザー情報。
type ArticleOwner struct {
	ID    string
	Name  string
	Email string
}

// ArticleWithOwner は記事と所有者情報を結合したモデル。
// usersテーブルとJOINして取得される。
type ArticleWithOwner struct {
	Article
	Owner ArticleOwner
}

// ArticleChanges は記事更新時の変更内容を表す。
// nilフィールドは変更しない。
type ArticleChanges struct {
	Title  *string
	Body   *string
	Status *string
}

// Comment は記事に対するコメントを表す。
type Comment struct {
	ID        string
	ArticleID string
	UserID    string
	Body      string `validate:"notblank"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CommentWithAuthor はコメントと投稿者情報を結合したモデル。
type CommentWithAuthor struct {
	Comment
	Author ArticleOwner
}

// ArticleLike はユーザーによる記事へのいいねを表す。
// (ArticleID, UserID) の組はストレージの一意制約で一意に保たれる。
type ArticleLike struct {
	ID        string
	ArticleID string
	UserID    string
	CreatedAt time.Time
}
