// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// GitHubIDは外部IdPが発行する数値IDで、ユーザーごとに一意（DB制約で保証）。
// 作成後のプロフィール同期は行わないため、このコアではイミュータブルとして扱う。
type User struct {
	ID        string
	GitHubID  int64
	Username  string
	CreatedAt time.Time
}

// Session はユーザーのログインセッションを表す。
// IDはクライアントが保持するトークンのSHA-256ハッシュ（小文字16進）であり、
// トークンそのものはサーバー側に一切保存しない。
// 1ユーザーが複数の同時セッションを持つことを許容する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
