package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
)

// tokenEncoding はCookie値として安全な小文字base32（パディングなし）。
var tokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// GenerateToken は暗号的に安全なセッショントークンを生成する。
// 20バイト（160ビット）のCSPRNG出力を小文字base32でエンコードした32文字の文字列を返す。
// 衝突確率は無視できるものとして扱い、重複チェックは行わない。
func GenerateToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return tokenEncoding.EncodeToString(b), nil
}

// SessionIDFromToken はトークンからセッションIDを導出する。
// SHA-256の一方向ハッシュを小文字16進で返すため、同一トークンは常に同一IDになり、
// IDからトークンを復元することはできない。トークンを失うとセッションも失われる。
func SessionIDFromToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
