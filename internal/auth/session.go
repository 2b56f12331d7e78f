package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/authman/internal/model"
	"github.com/hitoshi/authman/internal/repository"
)

// SessionService はセッションのライフサイクル（作成・検証・破棄）を管理する。
// 検証時にスライディング更新を行う: 有効期限の半分を過ぎたセッションは
// アクセス時にTTL分だけ延長され、アクティブなユーザーはログインし続けられる。
type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration

	// now はテストで時計を差し替えるためのフック。
	now func() time.Time
}

// NewSessionService はSessionServiceを生成する。
// ttlはセッションの有効期間（デフォルト30日）。更新閾値はttlの半分とする。
func NewSessionService(sessionRepo repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		now:         time.Now,
	}
}

// TTL はセッションの有効期間を返す。Cookieの MaxAge 計算に使用する。
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// CreateSession はトークンからセッションIDを導出し、セッションを永続化して返す。
// トークン自体は保存せず、SHA-256ハッシュのみをIDとして記録する。
func (s *SessionService) CreateSession(ctx context.Context, token, userID string) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		ID:        SessionIDFromToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// ValidateToken はトークンに対応するセッションを検証し、所有ユーザーとともに返す。
//
// 結果は3通り:
//   - セッションが存在しない、または期限切れ → (nil, nil, nil)の匿名結果。エラーではない。
//     期限切れ行は発見と同時に削除する（eager purge）。
//   - 有効期限の半分を過ぎている → 有効期限をnow+TTLに延長して永続化し、更新後の値を返す。
//   - それ以外 → 書き込みなしでそのまま返す。
//
// 半減期境界で並行したValidateTokenが二重に延長を書き込む可能性があるが、
// どちらも正しい30日延長でありlast-write-winsで問題ないため、ロックは行わない。
func (s *SessionService) ValidateToken(ctx context.Context, token string) (*model.User, *model.Session, error) {
	id := SessionIDFromToken(token)

	session, user, err := s.sessionRepo.FindByIDWithUser(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil, nil
	}

	now := s.now()

	// 期限切れセッションは発見と同時に削除する
	if !now.Before(session.ExpiresAt) {
		if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
			return nil, nil, fmt.Errorf("failed to purge expired session: %w", err)
		}
		return nil, nil, nil
	}

	// 有効期限の半分を過ぎていたら延長する（スライディング更新）
	if !now.Before(session.ExpiresAt.Add(-s.ttl / 2)) {
		session.ExpiresAt = now.Add(s.ttl)
		if err := s.sessionRepo.UpdateExpiresAt(ctx, session.ID, session.ExpiresAt); err != nil {
			return nil, nil, fmt.Errorf("failed to extend session: %w", err)
		}
		slog.Debug("session extended",
			slog.String("session_id", session.ID),
			slog.Time("expires_at", session.ExpiresAt),
		)
	}

	return user, session, nil
}

// InvalidateSession はセッションを無条件に削除する。
// 存在しないIDを渡してもエラーにならない（冪等）。
func (s *SessionService) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
