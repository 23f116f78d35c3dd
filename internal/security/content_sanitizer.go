// Package security は投稿コンテンツのサニタイズ機能を提供する。
//
// 記事本文とコメント本文は、HTMLのタグを含む場合に限り許可リストベースの
// bluemondayポリシーで安全なタグと属性のみを通過させる。タグを含まない
// プレーンテキストは受け取ったまま保存する。記事タイトルはタグを一切含まない
// プレーンテキストとして扱う。
package security

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// ContentSanitizer は投稿コンテンツのサニタイズ機能のインターフェース。
// 記事・コメントの保存前に使用される。
type ContentSanitizer interface {
	// SanitizeHTML は本文を保存用に整える。
	// タグを含まないプレーンテキストは変更せずに返す。
	// タグを含む場合はscript, iframe, styleタグおよびon*イベント属性を除去したHTMLを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeHTML(raw string) string

	// SanitizeText は全てのタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	SanitizeText(raw string) string
}

// contentSanitizer はContentSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type contentSanitizer struct {
	body   *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerの新しいインスタンスを生成する。
// 本文ポリシーの内容:
//   - 許可タグ: p, br, h2-h4, a, ul, ol, li, blockquote, pre, code, strong, em, img
//   - imgのsrc属性: httpsスキームのみ許可
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return u.Host != ""
	})

	return &contentSanitizer{
		body:   p,
		strict: bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML は本文にマークアップが含まれる場合だけサニタイズする。
func (s *contentSanitizer) SanitizeHTML(raw string) string {
	if !containsMarkup(raw) {
		return raw
	}
	return strings.TrimSpace(s.body.Sanitize(raw))
}

// containsMarkup はrawにタグ、コメント、DOCTYPEのいずれかが含まれるかを判定する。
// "a < b" のように'<'の直後が英字や'/'、'!'でなければテキストとして扱われる。
func containsMarkup(raw string) bool {
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken,
			html.CommentToken, html.DoctypeToken:
			return true
		}
	}
}

// SanitizeText はタグを除去したプレーンテキストを返す。
// StrictPolicyがエスケープした文字実体参照は元の文字に戻す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}
