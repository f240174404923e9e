package auth

import (
	"strings"
	"testing"
)

func TestNewToken(t *testing.T) {
	tok, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	id, secret, err := SplitToken(tok.Raw)
	if err != nil {
		t.Fatalf("SplitToken: %v", err)
	}
	if id != tok.ID {
		t.Errorf("id = %q, want %q", id, tok.ID)
	}
	if !VerifyTokenSecret(secret, tok.Hash) {
		t.Error("secret should verify against stored hash")
	}
	if strings.Contains(tok.Hash, secret) {
		t.Error("stored hash must not contain the raw secret")
	}
}

func TestSplitTokenMalformed(t *testing.T) {
	bad := []string{"", "noseparator", ".secret", "id.", "not-a-uuid.secret"}
	for _, raw := range bad {
		if _, _, err := SplitToken(raw); err == nil {
			t.Errorf("SplitToken(%q) should fail", raw)
		}
	}
}

func TestVerifyTokenSecretMismatch(t *testing.T) {
	if VerifyTokenSecret("secret", HashTokenSecret("other")) {
		t.Error("mismatched secret should not verify")
	}
}

func TestResolveRedirectBase(t *testing.T) {
	tests := []struct {
		configured string
		origin     string
		want       string
	}{
		{"https://me.example.com", "https://proxy.example.org", "https://me.example.com"},
		{"https://me.example.com/", "https://proxy.example.org", "https://me.example.com"},
		{"http://localhost:8080", "http://localhost:5173", "http://localhost:3000"},
		{"", "http://localhost:9999", "http://localhost:3000"},
		{"", "https://public.example.com/", "https://public.example.com"},
	}
	for _, tt := range tests {
		if got := ResolveRedirectBase(tt.configured, tt.origin); got != tt.want {
			t.Errorf("ResolveRedirectBase(%q, %q) = %q, want %q", tt.configured, tt.origin, got, tt.want)
		}
	}
}

func TestMagicLinkRedirect(t *testing.T) {
	got := MagicLinkRedirect("https://me.example.com", "")
	if got != "https://me.example.com/admin" {
		t.Errorf("MagicLinkRedirect = %q", got)
	}

	got = PasswordResetRedirect("https://me.example.com", "")
	if got != "https://me.example.com/reset-password" {
		t.Errorf("PasswordResetRedirect = %q", got)
	}
}
