package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour, "classcast")

	token, err := m.Generate("u1", "sam", "student", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "u1" || claims.DisplayName != "sam" || claims.Role != "student" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.SessionID != "" {
		t.Fatalf("non-guest token carries session scope %q", claims.SessionID)
	}
	if claims.Issuer != "classcast" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestGuestTokenCarriesSessionScope(t *testing.T) {
	m := NewManager("secret", time.Hour, "classcast")

	token, err := m.Generate("g1", "pat", "guest", "session-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.SessionID != "session-1" {
		t.Fatalf("session scope = %q, want session-1", claims.SessionID)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour, "classcast").Generate("u1", "sam", "student", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	_, err = NewManager("secret-b", time.Hour, "classcast").Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret", -time.Minute, "classcast")

	token, err := m.Generate("u1", "sam", "student", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("secret", time.Hour, "classcast")
	if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
