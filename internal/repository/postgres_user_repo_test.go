package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestIsUniqueViolation_PqUniqueError_ReturnsTrue(t *testing.T) {
	err := &pq.Error{Code: "23505"}
	if !IsUniqueViolation(err) {
		t.Error("SQLSTATE 23505 should be a unique violation")
	}
}

func TestIsUniqueViolation_WrappedError_ReturnsTrue(t *testing.T) {
	// fmt.Errorfでラップされてもerrors.Asで検出できること
	err := fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505"})
	if !IsUniqueViolation(err) {
		t.Error("wrapped unique violation should be detected")
	}
}

func TestIsUniqueViolation_OtherPqError_ReturnsFalse(t *testing.T) {
	// 23503 = foreign_key_violation
	err := &pq.Error{Code: "23503"}
	if IsUniqueViolation(err) {
		t.Error("other SQLSTATE codes should not be unique violations")
	}
}

func TestIsUniqueViolation_NonPqError_ReturnsFalse(t *testing.T) {
	if IsUniqueViolation(errors.New("db down")) {
		t.Error("generic errors should not be unique violations")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil should not be a unique violation")
	}
}
