// Package article は記事の公開範囲・所有権ポリシーと一覧クエリを提供する。
//
// 非公開の記事（他人の下書き、他人の記事への変更）は「存在しない」と区別できない。
// 所有者に限定した取得・変更・削除は、所有者条件を含む単一のクエリで行う。
package article

import (
	"cmp"
	"slices"

	"github.com/hitoshi/bloghub/internal/model"
)

// Predicate は一覧に含める記事を判定する。
type Predicate func(a model.ArticleWithOwner) bool

// Published は公開記事のみを通す。
func Published() Predicate {
	return func(a model.ArticleWithOwner) bool {
		return a.Status == model.ArticleStatusPublished
	}
}

// OwnedWithStatus はidentityが所有し、指定状態にある記事のみを通す。
// 匿名identityに対しては常にfalseを返す。
func OwnedWithStatus(identity model.Identity, status model.ArticleStatus) Predicate {
	return func(a model.ArticleWithOwner) bool {
		return !identity.IsAnonymous() && a.UserID == identity.UserID && a.Status == status
	}
}

// Filter はpredicateを満たす記事のみを返す。
func Filter(articles []model.ArticleWithOwner, keep Predicate) []model.ArticleWithOwner {
	out := make([]model.ArticleWithOwner, 0, len(articles))
	for _, a := range articles {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// SortByRecency はupdated_at降順、同時刻はid降順に並べ替える。
func SortByRecency(articles []model.ArticleWithOwner) {
	slices.SortStableFunc(articles, func(a, b model.ArticleWithOwner) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
