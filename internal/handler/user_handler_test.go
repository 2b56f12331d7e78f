package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/authman/internal/middleware"
	"github.com/hitoshi/authman/internal/model"
)

type mockUserService struct {
	withdrawFn func(ctx context.Context, userID string) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

var _ UserServiceInterface = (*mockUserService)(nil)

func TestWithdraw_Success_Returns204AndClearsCookie(t *testing.T) {
	var withdrawnID string
	service := &mockUserService{
		withdrawFn: func(_ context.Context, userID string) error {
			withdrawnID = userID
			return nil
		},
	}
	h := NewUserHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Result().StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Result().StatusCode)
	}
	if withdrawnID != "user-1" {
		t.Errorf("withdrawn user = %s, want user-1", withdrawnID)
	}

	cleared := findCookie(w.Result().Cookies(), sessionCookieName)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("session cookie should be cleared after withdrawal")
	}
}

func TestWithdraw_NoContext_Returns401(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Result().StatusCode)
	}
}

func TestWithdraw_UserNotFound_Returns404(t *testing.T) {
	service := &mockUserService{
		withdrawFn: func(_ context.Context, _ string) error {
			return model.NewUserNotFoundError()
		},
	}
	h := NewUserHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "ghost"))
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Result().StatusCode)
	}
}

func TestWithdraw_StorageError_Returns500(t *testing.T) {
	service := &mockUserService{
		withdrawFn: func(_ context.Context, _ string) error {
			return errors.New("db down")
		},
	}
	h := NewUserHandler(service)

	req := httptest.NewRequest(http.MethodDelete, "/me", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Result().StatusCode)
	}
}
