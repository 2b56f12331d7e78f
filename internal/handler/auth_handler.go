// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/authman/internal/auth"
	"github.com/hitoshi/authman/internal/middleware"
	"github.com/hitoshi/authman/internal/model"
)

const (
	// sessionCookieName はセッショントークンを保持するCookieの名前。
	// Cookieに入るのは生トークンであり、DBに保存されるのはそのSHA-256ハッシュ。
	sessionCookieName = "session"

	// oauthStateCookie はOAuthハンドシェイクのstateを保持する短命Cookieの名前。
	// ログインフローのパスにスコープし、有効性はCookieの存在と値の一致のみで決まる
	// （サーバー側ストアは持たない）。
	oauthStateCookie = "oauth_state"

	// loginPath はstate Cookieをスコープするログインフローのパス。
	loginPath = "/login"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	AuthorizationURL(state string) string
	// HandleCallback はセッションとCookieに設定すべき生トークンを返す。
	HandleCallback(ctx context.Context, code string) (*model.Session, string, error)
	Logout(ctx context.Context, token string) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// LoginMetricsRecorder はログイン結果を記録するインターフェース。
type LoginMetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL      string
	CookieDomain string
	CookieSecure bool
	// SessionCookieMaxAge はセッションCookieの有効期間（秒）。セッションTTLと揃える。
	SessionCookieMaxAge int
	// StateCookieMaxAge はstate Cookieの有効期間（秒）。デフォルト10分。
	StateCookieMaxAge int
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
	metrics LoginMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, metrics LoginMetricsRecorder) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
		metrics: metrics,
	}
}

// Login はOAuthフローを開始する。
// GET /login/start
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（認可コード注入対策）。ログインフローのパスにスコープする。
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     loginPath,
		MaxAge:   h.config.StateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.AuthorizationURL(state), http.StatusFound)
}

// Callback はOAuthコールバックを処理する。
// GET /login/callback?code=xxx&state=yyy
// 検証・交換の失敗はすべて400。成功時はセッションCookieを設定してBaseURLに302。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. code・query state・cookie stateの3点が揃っていることを検証
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)

	if code == "" || state == "" || err != nil || stateCookie.Value == "" {
		h.recordFailure("invalid_request")
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("missing code or state"))
		return
	}

	// 2. stateの一致を検証（クロスサイトの認可コード注入を防ぐ）
	if state != stateCookie.Value {
		slog.Warn("oauth state mismatch")
		h.recordFailure("state_mismatch")
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("state mismatch"))
		return
	}

	// stateクッキーは一往復限りなので削除する
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     loginPath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	// 3. コード交換・プロフィール取得・find-or-create・セッション発行
	session, token, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrProviderRejected) {
			slog.Warn("oauth exchange rejected", slog.String("error", err.Error()))
			h.recordFailure("provider_rejected")
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewProviderRejectedError())
			return
		}
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.recordFailure("storage_error")
		middleware.WriteInternalServerError(w)
		return
	}

	// 4. セッションCookieを設定（HTTP Only、値は生トークン）
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	slog.Info("login completed",
		slog.String("user_id", session.UserID),
		slog.String("session_id", session.ID),
	)

	// 5. フロントエンドにリダイレクト
	http.Redirect(w, r, h.config.BaseURL, http.StatusFound)
}

// Logout はセッションを破棄する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// セッションCookieの取得
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		// セッション行を削除（存在しなくてもエラーにしない）
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.BaseURL, http.StatusFound)
}

// Me は現在のログインユーザー情報を返す。
// GET /me （SessionMiddlewareの後に配置する）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get current user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":        user.ID,
		"github_id": user.GitHubID,
		"username":  user.Username,
	})
}

func (h *AuthHandler) recordFailure(reason string) {
	if h.metrics != nil {
		h.metrics.RecordLoginFailure(reason)
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
