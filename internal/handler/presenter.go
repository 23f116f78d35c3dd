package handler

import (
	"time"

	"github.com/hitoshi/bloghub/internal/model"
)

// 以下のレスポンス型はフィールドの集合と順序が固定されている。
// 構造体の定義順がそのままJSONのキー順になる。

// userResponse は記事・コメントに埋め込むユーザー情報。
type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// articlePreviewResponse は一覧で返す記事のプレビュー。bodyは含めない。
type articlePreviewResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    string       `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      userResponse `json:"user"`
}

// articleDetailResponse は単一取得で返す記事の詳細。
type articleDetailResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Status    string       `json:"status"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      userResponse `json:"user"`
}

// commentResponse はコメントのレスポンス。
type commentResponse struct {
	ID        string       `json:"id"`
	Body      string       `json:"body"`
	CreatedAt time.Time    `json:"created_at"`
	User      userResponse `json:"user"`
}

// likeSummaryResponse はいいね登録後のレスポンス。
type likeSummaryResponse struct {
	ArticleID  string `json:"article_id"`
	LikesCount int    `json:"likes_count"`
}

func toUserResponse(id, name, email string) userResponse {
	return userResponse{ID: id, Name: name, Email: email}
}

func toOwnerResponse(o model.ArticleOwner) userResponse {
	return toUserResponse(o.ID, o.Name, o.Email)
}

// toArticlePreview は記事をプレビューに射影する。
func toArticlePreview(a model.ArticleWithOwner) articlePreviewResponse {
	return articlePreviewResponse{
		ID:        a.ID,
		Title:     a.Title,
		Status:    string(a.Status),
		UpdatedAt: a.UpdatedAt,
		User:      toOwnerResponse(a.Owner),
	}
}

// toArticlePreviews は一覧をプレビューに射影する。空でもnilではなく空配列を返す。
func toArticlePreviews(list []model.ArticleWithOwner) []articlePreviewResponse {
	out := make([]articlePreviewResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toArticlePreview(a))
	}
	return out
}

// toArticleDetail は記事を詳細に射影する。
func toArticleDetail(a *model.ArticleWithOwner) articleDetailResponse {
	return articleDetailResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Status:    string(a.Status),
		UpdatedAt: a.UpdatedAt,
		User:      toOwnerResponse(a.Owner),
	}
}

func toCommentResponse(c model.CommentWithAuthor) commentResponse {
	return commentResponse{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		User:      toOwnerResponse(c.Author),
	}
}

func toCommentResponses(list []model.CommentWithAuthor) []commentResponse {
	out := make([]commentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCommentResponse(c))
	}
	return out
}
