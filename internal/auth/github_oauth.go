package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGitHubAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultGitHubTokenURL     = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL      = "https://api.github.com/user"

	// defaultExchangeTimeout はトークン交換・プロフィール取得のタイムアウト。
	// 失敗はProviderRejectedとして扱い、自動リトライはしない。
	defaultExchangeTimeout = 10 * time.Second
)

// Profile はOAuthプロバイダーから取得したユーザー情報を表す。
type Profile struct {
	// ID はプロバイダーが発行する数値ID。ローカルユーザーとの紐付けキー。
	ID int64
	// Login はプロバイダー上のユーザー名。初回ログイン時のusernameになる。
	Login string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// ハンドシェイクロジックをプロバイダー非依存にし、スタブでユニットテスト可能にする。
type OAuthProvider interface {
	// AuthorizationURL はstateを埋め込んだ認可URLを生成する。
	AuthorizationURL(state string) string
	// ExchangeCode は認可コードをアクセストークンに交換する。
	ExchangeCode(ctx context.Context, code string) (string, error)
	// FetchProfile はアクセストークンでプロバイダーのプロフィールを取得する。
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// GitHubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthorizeURL string
	TokenURL     string
	UserURL      string

	// Timeout は外部HTTP呼び出しの上限時間。ゼロ値ならデフォルトを使う。
	Timeout time.Duration
}

// GitHubOAuthProvider はGitHub OAuth 2.0（認可コードフロー）による認証を提供する。
type GitHubOAuthProvider struct {
	config GitHubOAuthConfig
	client *http.Client
}

// NewGitHubOAuthProvider はGitHubOAuthProviderを生成する。
func NewGitHubOAuthProvider(config GitHubOAuthConfig) *GitHubOAuthProvider {
	if config.AuthorizeURL == "" {
		config.AuthorizeURL = defaultGitHubAuthorizeURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGitHubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGitHubUserURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultExchangeTimeout
	}
	return &GitHubOAuthProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

// AuthorizationURL はGitHubの認可URLを生成する。
func (p *GitHubOAuthProvider) AuthorizationURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"state":        {state},
	}
	return p.config.AuthorizeURL + "?" + params.Encode()
}

// githubTokenResponse はGitHubのトークンエンドポイントのレスポンス。
type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// githubUser はGitHubのユーザーエンドポイントのレスポンス。
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// ExchangeCode は認可コードをアクセストークンに交換する。
// GitHubはAcceptヘッダーを指定しない場合form-encodedで返すため、JSONを明示する。
func (p *GitHubOAuthProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	return tokenResp.AccessToken, nil
}

// FetchProfile はアクセストークンでGitHubのユーザー情報を取得する。
func (p *GitHubOAuthProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	if user.ID == 0 {
		return nil, fmt.Errorf("empty user ID in response")
	}

	return &Profile{ID: user.ID, Login: user.Login}, nil
}

// compile-time interface check
var _ OAuthProvider = (*GitHubOAuthProvider)(nil)
