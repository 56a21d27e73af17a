package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// TestPasswordRoundTrip verifies hashing and verification
func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Error("correct password should verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password should not verify")
	}
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password should be rejected")
	}
}

// TestJWTRoundTrip verifies token generation and validation
func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken(UserClaims{Username: "operator"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.Username != "operator" {
		t.Errorf("username = %q, want operator", claims.Username)
	}
}

// TestJWTExpired verifies expired tokens are refused with the right error
func TestJWTExpired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)
	token, err := m.GenerateAccessToken(UserClaims{Username: "operator"})
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = m.ValidateAccessToken(token)
	var authErr AuthError
	if !errors.As(err, &authErr) || authErr.Code != ErrTokenExpired.Code {
		t.Errorf("err = %v, want %v", err, ErrTokenExpired)
	}
}

// TestJWTWrongSecret verifies cross-secret tokens are refused
func TestJWTWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-one", time.Hour)
	verifier := NewJWTManager("secret-two", time.Hour)

	token, _ := issuer.GenerateAccessToken(UserClaims{Username: "operator"})
	if _, err := verifier.ValidateAccessToken(token); err == nil {
		t.Error("token signed with another secret should be refused")
	}
}

// TestServiceLogin verifies the single-operator login flow
func TestServiceLogin(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	m := NewJWTManager("test-secret", time.Hour)
	svc := NewService("operator", hash, m, zerolog.Nop())

	resp, err := svc.Login("operator", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" {
		t.Errorf("response = %+v, want a bearer token", resp)
	}
	if claims, err := svc.Validate(resp.AccessToken); err != nil || claims.Username != "operator" {
		t.Errorf("Validate = %v, %v", claims, err)
	}

	if _, err := svc.Login("operator", "wrong"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := svc.Login("admin", "s3cret"); err == nil {
		t.Error("unknown username should fail")
	}
}
