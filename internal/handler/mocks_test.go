package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bloghub/internal/article"
	"github.com/hitoshi/bloghub/internal/auth"
	"github.com/hitoshi/bloghub/internal/like"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*model.User, *auth.Credentials, error)
	signInFn   func(ctx context.Context, email, password string) (*model.User, *auth.Credentials, error)
	signOutFn  func(ctx context.Context, uid, client, accessToken string) error
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, *auth.Credentials, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*model.User, *auth.Credentials, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, uid, client, accessToken string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, uid, client, accessToken)
	}
	return nil
}

type mockUserService struct {
	withdrawFn func(ctx context.Context, identity model.Identity) error
}

func (m *mockUserService) Withdraw(ctx context.Context, identity model.Identity) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, identity)
	}
	return nil
}

type mockArticleService struct {
	getPublicFn   func(ctx context.Context, id string) (*model.ArticleWithOwner, error)
	getOwnDraftFn func(ctx context.Context, identity model.Identity, id string) (*model.ArticleWithOwner, error)
	createFn      func(ctx context.Context, identity model.Identity, in article.CreateInput) (*model.ArticleWithOwner, error)
	updateFn      func(ctx context.Context, identity model.Identity, id string, changes model.ArticleChanges) (*model.ArticleWithOwner, error)
	deleteFn      func(ctx context.Context, identity model.Identity, id string) error
}

func (m *mockArticleService) GetPublic(ctx context.Context, id string) (*model.ArticleWithOwner, error) {
	if m.getPublicFn != nil {
		return m.getPublicFn(ctx, id)
	}
	return nil, model.NewArticleNotFoundError(id)
}

func (m *mockArticleService) GetOwnDraft(ctx context.Context, identity model.Identity, id string) (*model.ArticleWithOwner, error) {
	if m.getOwnDraftFn != nil {
		return m.getOwnDraftFn(ctx, identity, id)
	}
	return nil, model.NewArticleNotFoundError(id)
}

func (m *mockArticleService) Create(ctx context.Context, identity model.Identity, in article.CreateInput) (*model.ArticleWithOwner, error) {
	if m.createFn != nil {
		return m.createFn(ctx, identity, in)
	}
	return nil, nil
}

func (m *mockArticleService) Update(ctx context.Context, identity model.Identity, id string, changes model.ArticleChanges) (*model.ArticleWithOwner, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, identity, id, changes)
	}
	return nil, model.NewArticleNotFoundError(id)
}

func (m *mockArticleService) Delete(ctx context.Context, identity model.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, identity, id)
	}
	return nil
}

type mockArticleQuery struct {
	listPublicFn       func(ctx context.Context) ([]model.ArticleWithOwner, error)
	listOwnDraftsFn    func(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error)
	listOwnPublishedFn func(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error)
}

func (m *mockArticleQuery) ListPublic(ctx context.Context) ([]model.ArticleWithOwner, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx)
	}
	return []model.ArticleWithOwner{}, nil
}

func (m *mockArticleQuery) ListOwnDrafts(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error) {
	if m.listOwnDraftsFn != nil {
		return m.listOwnDraftsFn(ctx, identity)
	}
	return []model.ArticleWithOwner{}, nil
}

func (m *mockArticleQuery) ListOwnPublished(ctx context.Context, identity model.Identity) ([]model.ArticleWithOwner, error) {
	if m.listOwnPublishedFn != nil {
		return m.listOwnPublishedFn(ctx, identity)
	}
	return []model.ArticleWithOwner{}, nil
}

type mockCommentService struct {
	createFn func(ctx context.Context, identity model.Identity, articleID, body string) (*model.CommentWithAuthor, error)
	listFn   func(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error)
}

func (m *mockCommentService) Create(ctx context.Context, identity model.Identity, articleID, body string) (*model.CommentWithAuthor, error) {
	if m.createFn != nil {
		return m.createFn(ctx, identity, articleID, body)
	}
	return nil, nil
}

func (m *mockCommentService) ListForPublic(ctx context.Context, articleID string) ([]model.CommentWithAuthor, error) {
	if m.listFn != nil {
		return m.listFn(ctx, articleID)
	}
	return []model.CommentWithAuthor{}, nil
}

type mockLikeService struct {
	likeFn   func(ctx context.Context, identity model.Identity, articleID string) (*like.Summary, error)
	unlikeFn func(ctx context.Context, identity model.Identity, articleID string) error
}

func (m *mockLikeService) Like(ctx context.Context, identity model.Identity, articleID string) (*like.Summary, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, identity, articleID)
	}
	return &like.Summary{ArticleID: articleID}, nil
}

func (m *mockLikeService) Unlike(ctx context.Context, identity model.Identity, articleID string) error {
	if m.unlikeFn != nil {
		return m.unlikeFn(ctx, identity, articleID)
	}
	return nil
}

// tokenAuthenticator はテスト用トークンのみを受け付けるAuthenticator。
type tokenAuthenticator struct {
	users map[string]*model.User // access-token → user
}

func (a *tokenAuthenticator) Authenticate(_ context.Context, uid, client, accessToken string) (*model.User, error) {
	user, ok := a.users[accessToken]
	if !ok || user.Email != uid || client != testClient {
		return nil, nil
	}
	return user, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error {
	return m.err
}

// --- テストデータ ---

const (
	testClient     = "client-1"
	aliceToken     = "alice-token"
	bobToken       = "bob-token"
	articleIDAlice = "aaaaaaaa-0000-0000-0000-000000000001"
)

var (
	alice = &model.User{ID: "11111111-1111-1111-1111-111111111111", Name: "alice", Email: "alice@example.com"}
	bob   = &model.User{ID: "22222222-2222-2222-2222-222222222222", Name: "bob", Email: "bob@example.com"}

	fixedTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
)

func ownerOf(u *model.User) model.ArticleOwner {
	return model.ArticleOwner{ID: u.ID, Name: u.Name, Email: u.Email}
}

func sampleArticle(id string, owner *model.User, status model.ArticleStatus) *model.ArticleWithOwner {
	return &model.ArticleWithOwner{
		Article: model.Article{
			ID:        id,
			UserID:    owner.ID,
			Title:     "title " + id,
			Body:      "<p>body " + id + "</p>",
			Status:    status,
			CreatedAt: fixedTime,
			UpdatedAt: fixedTime,
		},
		Owner: ownerOf(owner),
	}
}

// --- テスト用ルーター ---

type testServices struct {
	auth     *mockAuthService
	users    *mockUserService
	articles *mockArticleService
	query    *mockArticleQuery
	comments *mockCommentService
	likes    *mockLikeService
	health   *mockHealthChecker
}

func newTestServices() *testServices {
	return &testServices{
		auth:     &mockAuthService{},
		users:    &mockUserService{},
		articles: &mockArticleService{},
		query:    &mockArticleQuery{},
		comments: &mockCommentService{},
		likes:    &mockLikeService{},
		health:   &mockHealthChecker{},
	}
}

// newTestRouter はモックサービスで構成した完全なルーターを返す。
func newTestRouter(t *testing.T, svc *testServices) http.Handler {
	t.Helper()
	return NewRouter(&RouterDeps{
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Authenticator: &tokenAuthenticator{users: map[string]*model.User{
			aliceToken: alice,
			bobToken:   bob,
		}},
		CORSAllowedOrigin: "http://localhost:3000",
		HealthChecker:     svc.health,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics\n"))
		}),
		AuthService:    svc.auth,
		UserService:    svc.users,
		ArticleService: svc.articles,
		ArticleQuery:   svc.query,
		CommentService: svc.comments,
		LikeService:    svc.likes,
	})
}

// doRequest はルーターにリクエストを送る。userがnilでなければ認証ヘッダーを付与する。
func doRequest(t *testing.T, h http.Handler, method, path, body string, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token := aliceToken
		if user == bob {
			token = bobToken
		}
		req.Header.Set(middleware.HeaderUID, user.Email)
		req.Header.Set(middleware.HeaderClient, testClient)
		req.Header.Set(middleware.HeaderAccessToken, token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sampleComment(id, articleID string, author *model.User) model.CommentWithAuthor {
	return model.CommentWithAuthor{
		Comment: model.Comment{
			ID:        id,
			ArticleID: articleID,
			UserID:    author.ID,
			Body:      "comment " + id,
			CreatedAt: fixedTime,
			UpdatedAt: fixedTime,
		},
		Author: ownerOf(author),
	}
}
