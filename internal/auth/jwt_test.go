package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("user id = %q, want user-1", claims.UserID)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other := NewJWTManager("another-secret-another-secret!!!", time.Hour)
	if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute)
	token, err := m.Generate("user-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, _ := m.Generate("user-1")

	cases := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", "Bearer " + token, true},
		{"missing", "", false},
		{"wrong scheme", "Basic " + token, false},
		{"no token", "Bearer", false},
		{"garbage", "Bearer not.a.token", false},
	}
	for _, tc := range cases {
		claims, err := m.FromAuthorizationHeader(tc.header)
		if tc.ok && (err != nil || claims.UserID != "user-1") {
			t.Fatalf("%s: expected ok, got claims=%v err=%v", tc.name, claims, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
