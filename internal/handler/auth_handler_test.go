package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/bloghub/internal/auth"
	"github.com/hitoshi/bloghub/internal/middleware"
	"github.com/hitoshi/bloghub/internal/model"
)

func credentialsFor(u *model.User) *auth.Credentials {
	return &auth.Credentials{
		AccessToken: "issued-token",
		Client:      "issued-client",
		Expiry:      time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC),
		UID:         u.Email,
		TokenType:   "Bearer",
	}
}

func assertTokenHeaders(t *testing.T, h http.Header, u *model.User) {
	t.Helper()
	want := map[string]string{
		middleware.HeaderAccessToken: "issued-token",
		middleware.HeaderClient:      "issued-client",
		middleware.HeaderExpiry:      strconv.FormatInt(time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC).Unix(), 10),
		middleware.HeaderUID:         u.Email,
		middleware.HeaderTokenType:   "Bearer",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Errorf("header %s = %q, want %q", k, got, v)
		}
	}
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("登録に成功すると認証ヘッダーを返す", func(t *testing.T) {
		svc := newTestServices()
		svc.auth.registerFn = func(_ context.Context, in auth.RegisterInput) (*model.User, *auth.Credentials, error) {
			if in.Name != "alice" || in.Email != alice.Email || in.Password != "password" {
				t.Errorf("input = %+v", in)
			}
			return alice, credentialsFor(alice), nil
		}
		h := newTestRouter(t, svc)

		w := doRequest(t, h, http.MethodPost, "/auth",
			`{"registration":{"name":"alice","email":"alice@example.com","password":"password"}}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		assertTokenHeaders(t, w.Header(), alice)

		got := decodeBody[struct {
			Status string            `json:"status"`
			Data   map[string]string `json:"data"`
		}](t, w.Body.Bytes())
		if got.Status != "success" || got.Data["email"] != alice.Email {
			t.Errorf("body = %+v", got)
		}
		if _, ok := got.Data["password_hash"]; ok {
			t.Error("response must not include password hash")
		}
	})

	t.Run("registrationキーがなければ400", func(t *testing.T) {
		h := newTestRouter(t, newTestServices())
		w := doRequest(t, h, http.MethodPost, "/auth", `{"name":"alice"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("登録済みのemailは422", func(t *testing.T) {
		svc := newTestServices()
		svc.auth.registerFn = func(context.Context, auth.RegisterInput) (*model.User, *auth.Credentials, error) {
			return nil, nil, model.NewValidationError(map[string]string{"email": model.ReasonTaken})
		}
		h := newTestRouter(t, svc)

		w := doRequest(t, h, http.MethodPost, "/auth",
			`{"registration":{"name":"alice","email":"alice@example.com","password":"password"}}`, nil)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", w.Code)
		}
		if w.Header().Get(middleware.HeaderAccessToken) != "" {
			t.Error("failed registration must not issue a token")
		}
	})
}

func TestAuthHandler_SignIn(t *testing.T) {
	svc := newTestServices()
	svc.auth.signInFn = func(_ context.Context, email, password string) (*model.User, *auth.Credentials, error) {
		if email == alice.Email && password == "password" {
			return alice, credentialsFor(alice), nil
		}
		return nil, nil, model.NewInvalidCredentialsError()
	}
	h := newTestRouter(t, svc)

	t.Run("正しい資格情報で認証ヘッダーを返す", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/auth/sign_in", `{"email":"alice@example.com","password":"password"}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		assertTokenHeaders(t, w.Header(), alice)

		got := decodeBody[struct {
			Data map[string]string `json:"data"`
		}](t, w.Body.Bytes())
		if got.Data["id"] != alice.ID {
			t.Errorf("data = %v", got.Data)
		}
	})

	t.Run("誤ったパスワードは401でヘッダーなし", func(t *testing.T) {
		w := doRequest(t, h, http.MethodPost, "/auth/sign_in", `{"email":"alice@example.com","password":"wrong"}`, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if w.Header().Get(middleware.HeaderAccessToken) != "" {
			t.Error("access-token header must not be set")
		}

		got := decodeBody[struct {
			Success *bool    `json:"success"`
			Errors  []string `json:"errors"`
		}](t, w.Body.Bytes())
		if got.Success == nil || *got.Success {
			t.Errorf("success = %v, want false", got.Success)
		}
		if len(got.Errors) == 0 {
			t.Error("errors must not be empty")
		}
	})
}

func TestAuthHandler_SignOut(t *testing.T) {
	svc := newTestServices()
	svc.auth.signOutFn = func(_ context.Context, uid, client, accessToken string) error {
		if uid == alice.Email && client == testClient && accessToken == aliceToken {
			return nil
		}
		return model.NewSessionNotFoundError()
	}
	h := newTestRouter(t, svc)

	t.Run("有効なトークンは無効化される", func(t *testing.T) {
		w := doRequest(t, h, http.MethodDelete, "/auth/sign_out", "", alice)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		got := decodeBody[map[string]any](t, w.Body.Bytes())
		if got["success"] != true {
			t.Errorf("body = %v", got)
		}
	})

	t.Run("トークンがなければ404", func(t *testing.T) {
		w := doRequest(t, h, http.MethodDelete, "/auth/sign_out", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		got := decodeBody[map[string]any](t, w.Body.Bytes())
		if got["success"] != false {
			t.Errorf("body = %v", got)
		}
	})
}

func TestAuthHandler_ValidateToken(t *testing.T) {
	h := newTestRouter(t, newTestServices())

	t.Run("有効なトークンはユーザーを返す", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/auth/validate_token", "", alice)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		got := decodeBody[struct {
			Success bool              `json:"success"`
			Data    map[string]string `json:"data"`
		}](t, w.Body.Bytes())
		if !got.Success || got.Data["email"] != alice.Email {
			t.Errorf("body = %+v", got)
		}
	})

	t.Run("トークンがなければ401", func(t *testing.T) {
		w := doRequest(t, h, http.MethodGet, "/auth/validate_token", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
	})
}

func TestUserHandler_Withdraw(t *testing.T) {
	svc := newTestServices()
	var withdrawn model.Identity
	svc.users.withdrawFn = func(_ context.Context, identity model.Identity) error {
		withdrawn = identity
		return nil
	}
	h := newTestRouter(t, svc)

	t.Run("退会するとメッセージを返す", func(t *testing.T) {
		w := doRequest(t, h, http.MethodDelete, "/auth", "", alice)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
		}
		if withdrawn.UserID != alice.ID {
			t.Errorf("identity = %+v, want alice", withdrawn)
		}
		got := decodeBody[map[string]string](t, w.Body.Bytes())
		if got["status"] != "success" {
			t.Errorf("status = %q", got["status"])
		}
		if want := "Account with UID 'alice@example.com' has been destroyed."; got["message"] != want {
			t.Errorf("message = %q, want %q", got["message"], want)
		}
	})

	t.Run("未認証は401", func(t *testing.T) {
		withdrawn = model.AnonymousIdentity
		w := doRequest(t, h, http.MethodDelete, "/auth", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		if !withdrawn.IsAnonymous() {
			t.Error("Withdraw must not be called")
		}
	})
}
