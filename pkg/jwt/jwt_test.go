package jwt

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	SetSecret("test-secret")
	id := uuid.New()

	token, err := GenerateToken(id, "chef@example.com", "Chef", "user", "v1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != id || claims.TokenVersion != "v1" || claims.Role != "user" {
		t.Fatalf("claims: %+v", claims)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	SetSecret("one")
	token, err := GenerateToken(uuid.New(), "a@b.c", "A", "user", "v")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	SetSecret("two")
	if _, err := ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
	if _, err := ValidateToken(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("want ErrMissingToken, got %v", err)
	}
}
