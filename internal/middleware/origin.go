// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
)

// sessionCookieName はセッショントークンを保持するCookieの名前。
const sessionCookieName = "session"

// OriginCheckConfig は同一オリジン検証ミドルウェアの設定。
type OriginCheckConfig struct {
	CookieSecure bool
	CookieDomain string
	// SessionCookieMaxAge は安全なメソッドでCookieを再設定する際のMaxAge（秒）。
	SessionCookieMaxAge int
}

// OriginRejectionRecorder はオリジン検証の拒否を記録するインターフェース。
type OriginRejectionRecorder interface {
	RecordOriginRejection()
}

// NewOriginCheckMiddleware はCookie認証向けのCSRF防御として同一オリジン検証を行う
// ミドルウェアを返す。全ルートの最前段（ハンドラーロジックより前）で評価される。
//
// 状態変更メソッド（GET/HEAD/OPTIONS以外）ではOriginヘッダーとHostヘッダーの両方を
// 必須とし、OriginをURLとしてパースしたhost部がHostヘッダーと完全一致しない場合は
// 403を返す。ヘッダー欠落・パース不能・不一致はすべて拒否。
//
// 安全なメソッドでは検証をスキップし、セッションCookieが付いていれば有効期限を
// 更新して再設定する（トランスポート層のスライド）。これはUX最適化であり、
// 権威はあくまでセッションストアのexpires_atにある。
//
// OriginのhostはHostヘッダーと逐語比較する。Hostヘッダー自体の信頼性は
// リバースプロキシが正規化している前提（元実装の方針を維持）。
// recorderはnil可。
func NewOriginCheckMiddleware(config OriginCheckConfig, recorder OriginRejectionRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 安全なメソッドは検証をスキップし、Cookieの寿命だけ延ばす
			if isSafeMethod(r.Method) {
				refreshSessionCookie(w, r, config)
				next.ServeHTTP(w, r)
				return
			}

			originHeader := r.Header.Get("Origin")
			hostHeader := r.Host

			if originHeader == "" || hostHeader == "" {
				rejectCrossOrigin(w, r, recorder, "missing origin or host header")
				return
			}

			origin, err := url.Parse(originHeader)
			if err != nil || origin.Host == "" {
				rejectCrossOrigin(w, r, recorder, "unparseable origin header")
				return
			}

			if origin.Host != hostHeader {
				rejectCrossOrigin(w, r, recorder, "origin host mismatch")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// refreshSessionCookie はセッションCookieが付いている場合に有効期限を更新して再設定する。
// セッションの有効性は確認しない（権威的な検証はSessionServiceが行う）。
func refreshSessionCookie(w http.ResponseWriter, r *http.Request, config OriginCheckConfig) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookie.Value,
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   config.SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// rejectCrossOrigin は403を返し、拒否理由をログとメトリクスに記録する。
func rejectCrossOrigin(w http.ResponseWriter, r *http.Request, recorder OriginRejectionRecorder, reason string) {
	slog.Warn("cross-origin request rejected",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("reason", reason),
	)
	if recorder != nil {
		recorder.RecordOriginRejection()
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}
