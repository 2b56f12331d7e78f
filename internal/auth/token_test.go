package auth

import (
	"strings"
	"testing"
)

func TestGenerateToken_Returns32LowercaseChars(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	// 20バイトのbase32（パディングなし）は32文字になる
	if len(token) != 32 {
		t.Errorf("token length = %d, want 32", len(token))
	}

	// Cookie値として安全な小文字英数字のみであること
	for _, c := range token {
		if !strings.ContainsRune("abcdefghijklmnopqrstuvwxyz234567", c) {
			t.Errorf("token contains unexpected character %q: %s", c, token)
		}
	}
}

func TestGenerateToken_ReturnsUniqueValues(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestSessionIDFromToken_IsDeterministic(t *testing.T) {
	id1 := SessionIDFromToken("sample-token")
	id2 := SessionIDFromToken("sample-token")

	if id1 != id2 {
		t.Errorf("same token should derive same ID: %s != %s", id1, id2)
	}
}

func TestSessionIDFromToken_Returns64HexChars(t *testing.T) {
	id := SessionIDFromToken("sample-token")

	// SHA-256の16進表現は64文字
	if len(id) != 64 {
		t.Errorf("session ID length = %d, want 64", len(id))
	}

	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("session ID should be lowercase hex, got character %q", c)
		}
	}
}

func TestSessionIDFromToken_DiffersForDifferentTokens(t *testing.T) {
	id1 := SessionIDFromToken("token-a")
	id2 := SessionIDFromToken("token-b")

	if id1 == id2 {
		t.Error("different tokens should derive different IDs")
	}
}

func TestSessionIDFromToken_DoesNotContainToken(t *testing.T) {
	token := "secrettokenvalue1234567890abcdef"
	id := SessionIDFromToken(token)

	// ハッシュは一方向であり、トークンそのものがIDに現れてはいけない
	if strings.Contains(id, token) {
		t.Error("session ID should not contain the raw token")
	}
}
