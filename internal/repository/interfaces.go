// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/authman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByGitHubID はGitHubの数値IDでユーザーを検索する。見つからない場合はnilを返す。
	FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error)

	// Create はユーザーを作成する。
	// github_idの一意制約違反はIsUniqueViolationで判別可能なエラーとして返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByIDWithUser は指定IDのセッションを所有ユーザーとJOINして取得する。
	// 見つからない場合は(nil, nil, nil)を返す。
	// 期限切れの判定は呼び出し側（サービス層）が行うため、ここではフィルタしない。
	FindByIDWithUser(ctx context.Context, id string) (*model.Session, *model.User, error)

	// UpdateExpiresAt はセッションの有効期限を更新する。
	UpdateExpiresAt(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteByID は指定IDのセッションを削除する。存在しないIDでもエラーにしない（冪等）。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error

	// DeleteExpired は期限切れセッションを全て削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
