package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/authman/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// sessionIDContextKey はリクエストコンテキストにセッションIDを格納するためのキー。
var sessionIDContextKey = contextKey("session_id")

// TokenValidator はセッショントークンの検証に必要なインターフェース。
// auth.SessionServiceの部分集合として定義する。
// 匿名結果（セッションなし・期限切れ）は(nil, nil, nil)で表現され、エラーではない。
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, *model.Session, error)
}

// SessionValidationRecorder はセッション検証の結果を記録するインターフェース。
type SessionValidationRecorder interface {
	RecordSessionValidation(result string)
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// ハッシュ導出したIDで権威的な検証を行うミドルウェアを返す。
// 認証済みユーザーIDとセッションIDをリクエストコンテキストに注入する。
// Cookieなし・セッションなし・期限切れはすべて401 Unauthorizedを返す。
// recorderはnil可。
func NewSessionMiddleware(validator TokenValidator, recorder SessionValidationRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからトークンを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				recordValidation(recorder, "anonymous")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. トークンを検証（期限切れ行はこの中で削除される）
			user, session, err := validator.ValidateToken(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to validate session token",
					slog.String("error", err.Error()),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				recordValidation(recorder, "anonymous")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			recordValidation(recorder, "authenticated")

			// 3. 認証済みユーザーIDとセッションIDをコンテキストに注入
			ctx := context.WithValue(r.Context(), userIDContextKey, user.ID)
			ctx = context.WithValue(ctx, sessionIDContextKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func recordValidation(recorder SessionValidationRecorder, result string) {
	if recorder != nil {
		recorder.RecordSessionValidation(result)
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// SessionIDFromContext はリクエストコンテキストからセッションIDを取得する。
func SessionIDFromContext(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(sessionIDContextKey).(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("session ID not found in context")
	}
	return sessionID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
