package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/authman/internal/model"
	"github.com/hitoshi/authman/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByGitHubIDFn func(ctx context.Context, githubID int64) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
	deleteByIDFn     func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	if m.findByGitHubIDFn != nil {
		return m.findByGitHubIDFn(ctx, githubID)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *model.Session) error { return nil }

func (m *mockSessionRepo) FindByIDWithUser(_ context.Context, _ string) (*model.Session, *model.User, error) {
	return nil, nil, nil
}

func (m *mockSessionRepo) UpdateExpiresAt(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (m *mockSessionRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int64, error) { return 0, nil }

var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)

// --- テスト ---

func TestWithdraw_DeletesSessionsBeforeUser(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, GitHubID: 123}, nil
		},
		deleteByIDFn: func(_ context.Context, _ string) error {
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(_ context.Context, _ string) error {
			order = append(order, "sessions")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}

	// 全セッションを先に破棄してからユーザー行を削除する
	if len(order) != 2 || order[0] != "sessions" || order[1] != "user" {
		t.Errorf("deletion order = %v, want [sessions user]", order)
	}
}

func TestWithdraw_UserNotFound_ReturnsAPIError(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{})

	err := svc.Withdraw(context.Background(), "ghost")
	if err == nil {
		t.Fatal("missing user should be an error")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error should be APIError: %v", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %s, want %s", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestWithdraw_SessionDeleteFails_UserNotDeleted(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteByIDFn: func(_ context.Context, _ string) error {
			userDeleted = true
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(_ context.Context, _ string) error {
			return errors.New("db down")
		},
	}

	svc := NewService(userRepo, sessionRepo)

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("session delete failure should be an error")
	}
	if userDeleted {
		t.Error("user should not be deleted when session cleanup fails")
	}
}
