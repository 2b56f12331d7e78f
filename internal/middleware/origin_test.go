package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockOriginRecorder struct {
	rejections int
}

func (m *mockOriginRecorder) RecordOriginRejection() {
	m.rejections++
}

func newOriginHandler(config OriginCheckConfig, recorder OriginRejectionRecorder) (http.Handler, *bool) {
	called := false
	mw := NewOriginCheckMiddleware(config, recorder)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &called
}

func TestOriginCheck_POSTWithMatchingOrigin_Passes(t *testing.T) {
	handler, called := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !*called {
		t.Fatal("same-origin POST should pass")
	}
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Result().StatusCode)
	}
}

func TestOriginCheck_POSTWithCrossOrigin_Returns403(t *testing.T) {
	recorder := &mockOriginRecorder{}
	handler, called := newOriginHandler(OriginCheckConfig{}, recorder)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if *called {
		t.Fatal("cross-origin POST should be rejected")
	}
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
	if recorder.rejections != 1 {
		t.Errorf("rejections = %d, want 1", recorder.rejections)
	}
}

func TestOriginCheck_POSTWithoutOrigin_Returns403(t *testing.T) {
	handler, called := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Host = "example.com"
	// Originヘッダーなし
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if *called {
		t.Fatal("POST without Origin header should be rejected")
	}
	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}

func TestOriginCheck_POSTWithUnparseableOrigin_Returns403(t *testing.T) {
	handler, _ := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "not a url")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}

func TestOriginCheck_PortMismatch_Returns403(t *testing.T) {
	// host部は逐語比較であり、ポートの違いも不一致になる
	handler, _ := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://example.com:8443")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}

func TestOriginCheck_DELETEWithCrossOrigin_Returns403(t *testing.T) {
	handler, _ := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Result().StatusCode)
	}
}

func TestOriginCheck_GETWithoutOrigin_Passes(t *testing.T) {
	handler, called := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Host = "example.com"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !*called {
		t.Fatal("GET should skip origin verification")
	}
}

func TestOriginCheck_OPTIONSWithCrossOrigin_Passes(t *testing.T) {
	// OPTIONSはCORSプリフライトのため検証をスキップする
	handler, called := newOriginHandler(OriginCheckConfig{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/logout", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "https://other.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !*called {
		t.Fatal("OPTIONS should skip origin verification")
	}
}

func TestOriginCheck_GETWithSessionCookie_RefreshesCookie(t *testing.T) {
	handler, _ := newOriginHandler(OriginCheckConfig{
		SessionCookieMaxAge: 2592000,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Host = "example.com"
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "raw-token"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	var refreshed *http.Cookie
	for _, c := range cookies {
		if c.Name == sessionCookieName {
			refreshed = c
		}
	}
	if refreshed == nil {
		t.Fatal("session cookie should be re-set on safe methods")
	}
	if refreshed.Value != "raw-token" {
		t.Errorf("cookie value = %s, want raw-token", refreshed.Value)
	}
	if refreshed.MaxAge != 2592000 {
		t.Errorf("cookie max-age = %d, want 2592000", refreshed.MaxAge)
	}
	if !refreshed.HttpOnly {
		t.Error("refreshed cookie should remain HttpOnly")
	}
}

func TestOriginCheck_GETWithoutSessionCookie_NoCookieSet(t *testing.T) {
	handler, _ := newOriginHandler(OriginCheckConfig{SessionCookieMaxAge: 2592000}, nil)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Host = "example.com"
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Fatal("no cookie should be set when request carries none")
		}
	}
}
