// Package auth はユーザー登録、サインイン・サインアウト、トークン認証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bloghub/internal/model"
	"github.com/hitoshi/bloghub/internal/repository"
	"github.com/hitoshi/bloghub/internal/validation"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenLifespan time.Duration // 認証トークンの有効期間
	BcryptCost    int           // パスワードハッシュのコスト
}

// SignInFailureRecorder はサインイン失敗を記録するメトリクスのインターフェース。
type SignInFailureRecorder interface {
	RecordSignInFailure()
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name     string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.AuthTokenRepository
	failures  SignInFailureRecorder
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceを生成する。failuresはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.AuthTokenRepository,
	failures SignInFailureRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		failures:  failures,
		config:    config,
		now:       time.Now,
	}
}

// Register はユーザーを作成し、認証トークンを発行する。
// emailの重複はストレージの一意制約で検出し、ValidationError（email: taken）を返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, *Credentials, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}

	hash, err := HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, model.NewValidationError(map[string]string{"email": model.ReasonTaken})
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	creds, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user registered", slog.String("user_id", user.ID))
	return user, creds, nil
}

// SignIn はemailとパスワードを検証し、認証トークンを発行する。
// emailとパスワードのどちらが誤っていてもInvalidCredentialsエラーを返す。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, *Credentials, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.recordFailure("missing credentials")
		return nil, nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordFailure("unknown email")
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.recordFailure("password mismatch")
		return nil, nil, model.NewInvalidCredentialsError()
	}

	creds, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user signed in", slog.String("user_id", user.ID))
	return user, creds, nil
}

// Authenticate はuid・client・access-tokenの組から有効なトークンを特定し、ユーザーを返す。
// いずれかが空、期限切れ、または一致しない場合はnilを返す（エラーではない）。
func (s *Service) Authenticate(ctx context.Context, uid, client, accessToken string) (*model.User, error) {
	user, _, err := s.authenticate(ctx, uid, client, accessToken)
	return user, err
}

// SignOut は認証ヘッダーが示すトークンを無効化する。
// 有効なトークンが見つからない場合はSessionNotFoundエラーを返す。
func (s *Service) SignOut(ctx context.Context, uid, client, accessToken string) error {
	user, token, err := s.authenticate(ctx, uid, client, accessToken)
	if err != nil {
		return err
	}
	if user == nil {
		return model.NewSessionNotFoundError()
	}

	if err := s.tokenRepo.DeleteByID(ctx, token.ID); err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}

	slog.Info("user signed out", slog.String("user_id", user.ID))
	return nil
}

func (s *Service) authenticate(ctx context.Context, uid, client, accessToken string) (*model.User, *model.AuthToken, error) {
	uid = normalizeEmail(uid)
	if uid == "" || client == "" || accessToken == "" {
		return nil, nil, nil
	}

	token, err := s.tokenRepo.FindActive(ctx, uid, client)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find auth token: %w", err)
	}
	if token == nil || !tokenMatches(accessToken, token.TokenHash) {
		return nil, nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil, nil
	}
	return user, token, nil
}

// issueToken は新しいclientで認証トークンを発行し永続化する。
func (s *Service) issueToken(ctx context.Context, user *model.User) (*Credentials, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}

	now := s.now()
	token := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Client:    uuid.New().String(),
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.config.TokenLifespan),
		CreatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save auth token: %w", err)
	}

	return &Credentials{
		AccessToken: raw,
		Client:      token.Client,
		Expiry:      token.ExpiresAt,
		UID:         user.Email,
		TokenType:   TokenTypeBearer,
	}, nil
}

func (s *Service) recordFailure(reason string) {
	slog.Warn("sign in failed", slog.String("reason", reason))
	if s.failures != nil {
		s.failures.RecordSignInFailure()
	}
}

// normalizeEmail はemailの前後の空白を除去し小文字に揃える。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
