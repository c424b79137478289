package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testJWTManager(duration time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		SecretKey:     "test-secret",
		TokenDuration: duration,
		Issuer:        "test",
	})
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := testJWTManager(time.Hour)

	token, err := manager.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.Issuer != "test" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "test")
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := testJWTManager(-time.Minute)

	token, err := manager.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	_, err = manager.ValidateToken(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := testJWTManager(time.Hour).GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other := NewJWTManager(JWTConfig{
		SecretKey:     "different-secret",
		TokenDuration: time.Hour,
		Issuer:        "test",
	})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_WrongSigningMethod(t *testing.T) {
	manager := testJWTManager(time.Hour)

	// Token signed with "none" must be rejected
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{
		UserID:   "user-123",
		Username: "alice",
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTManager_MalformedToken(t *testing.T) {
	manager := testJWTManager(time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}
