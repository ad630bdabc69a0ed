package auth_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
)

const testTokenSecret = "token-secret-for-tests-0123456789abcdef"

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm, err := auth.NewTokenManager(testTokenSecret, "skillhub-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	raw, err := tm.Issue("507f1f77bcf86cd799439011", "admin", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if raw == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := tm.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "507f1f77bcf86cd799439011" {
		t.Errorf("subject = %q, want user id", claims.Subject)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want %q", claims.Role, "admin")
	}
	if !claims.Admin {
		t.Error("expected admin claim to be true")
	}
}

func TestTokenManager_RejectsShortSecret(t *testing.T) {
	if _, err := auth.NewTokenManager("short", "skillhub-test", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm, err := auth.NewTokenManager(testTokenSecret, "skillhub-test", time.Millisecond)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	raw, err := tm.Issue("507f1f77bcf86cd799439011", "admin", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := tm.Parse(raw); err == nil {
		t.Error("expected expired token to fail parsing")
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	issuer, err := auth.NewTokenManager(testTokenSecret, "skillhub-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	verifier, err := auth.NewTokenManager("another-token-secret-0123456789abcdef", "skillhub-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	raw, err := issuer.Issue("507f1f77bcf86cd799439011", "admin", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Parse(raw); err == nil {
		t.Error("expected token signed with a different secret to fail")
	}
}

func TestTokenManager_RejectsWrongIssuer(t *testing.T) {
	issuer, err := auth.NewTokenManager(testTokenSecret, "some-other-service", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	verifier, err := auth.NewTokenManager(testTokenSecret, "skillhub-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	raw, err := issuer.Issue("507f1f77bcf86cd799439011", "admin", true)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Parse(raw); err == nil {
		t.Error("expected token from a different issuer to fail")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer abc.def.ghi", "abc.def.ghi"},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"scheme only", "Bearer ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/admin/challenges/activate", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := auth.BearerToken(r); got != tt.want {
				t.Errorf("BearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
