// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/authman/internal/model"
	"github.com/hitoshi/authman/internal/repository"
)

// ErrProviderRejected はOAuthプロバイダーとのトークン交換またはプロフィール取得の
// 失敗を示す。リトライせず、クライアントには400として返す。
var ErrProviderRejected = errors.New("oauth provider rejected the request")

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth    OAuthProvider
	userRepo repository.UserRepository
	sessions *SessionService
}

// NewService はServiceを生成する。
func NewService(oauth OAuthProvider, userRepo repository.UserRepository, sessions *SessionService) *Service {
	return &Service{
		oauth:    oauth,
		userRepo: userRepo,
		sessions: sessions,
	}
}

// AuthorizationURL はstateを埋め込んだOAuth認可URLを生成する。
func (s *Service) AuthorizationURL(state string) string {
	return s.oauth.AuthorizationURL(state)
}

// HandleCallback はstate検証済みのOAuthコールバックを処理し、セッションを発行する。
// 認可コードをアクセストークンに交換してプロフィールを取得し、GitHub IDで
// ローカルユーザーをfind-or-createした後、新規トークンでセッションを作成する。
// セッションとCookieに設定すべき生トークンを返す。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, string, error) {
	// 1. 認可コードをアクセストークンに交換
	accessToken, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	// 2. アクセストークンでプロフィールを取得
	profile, err := s.oauth.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	// 3. GitHub IDでローカルユーザーを解決
	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return nil, "", err
	}

	// 4. 新規トークンでセッションを発行
	token, err := GenerateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, token, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	return session, token, nil
}

// findOrCreateUser はGitHub IDでユーザーを検索し、存在しなければ作成する。
// 同一GitHub IDの初回ログインが並行した場合、作成は一意制約違反になるが、
// 「他のリクエストが先に作成した」とみなして再検索で解決する。
// 同じgithub_idのUserが2行できることはない。
func (s *Service) findOrCreateUser(ctx context.Context, profile *Profile) (*model.User, error) {
	user, err := s.userRepo.FindByGitHubID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.Int64("github_id", user.GitHubID),
		)
		return user, nil
	}

	newUser := &model.User{
		ID:        uuid.New().String(),
		GitHubID:  profile.ID,
		Username:  profile.Login,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if repository.IsUniqueViolation(err) {
			// 並行した初回ログインに負けた。作成済みの行を取り直す。
			user, err = s.userRepo.FindByGitHubID(ctx, profile.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to refetch user after conflict: %w", err)
			}
			if user == nil {
				return nil, fmt.Errorf("user disappeared after unique violation: github_id=%d", profile.ID)
			}
			return user, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
		slog.Int64("github_id", newUser.GitHubID),
		slog.String("username", newUser.Username),
	)

	return newUser, nil
}

// Logout はCookieのトークンからセッションIDを導出し、セッションを破棄する。
// 存在しないセッションでもエラーにしない（冪等）。
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("session token is required")
	}

	sessionID := SessionIDFromToken(token)
	if err := s.sessions.InvalidateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetUser は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
