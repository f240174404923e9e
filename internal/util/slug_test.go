package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"My Blog!", "my-blog"},
		{"  spaced  out  ", "spaced-out"},
		{"Café résumé", "cafe-resume"},
		{"Привет мир", "privet-mir"},
		{"日本語", "ri-ben-yu"},
		{"already-a-slug", "already-a-slug"},
		{"UPPER_case", "uppercase"},
		{"a---b", "a-b"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestShortCodeFromTitle(t *testing.T) {
	if got := ShortCodeFromTitle("My Portfolio"); got != "my-portfolio" {
		t.Errorf("ShortCodeFromTitle = %q, want %q", got, "my-portfolio")
	}

	// Unusable titles fall back to a random code
	got := ShortCodeFromTitle("???")
	if len(got) != 8 {
		t.Errorf("fallback code length = %d, want 8", len(got))
	}
	if !IsValidShortCode(got) {
		t.Errorf("fallback code %q is not valid", got)
	}

	long := ShortCodeFromTitle(strings.Repeat("very long title ", 10))
	if len(long) > MaxShortCodeLength {
		t.Errorf("long title code length = %d, want <= %d", len(long), MaxShortCodeLength)
	}
	if !IsValidShortCode(long) {
		t.Errorf("truncated code %q is not valid", long)
	}
}

func TestRandomShortCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := RandomShortCode(8)
		if len(code) != 8 {
			t.Fatalf("code length = %d, want 8", len(code))
		}
		if !IsValidShortCode(code) {
			t.Fatalf("generated code %q is not valid", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct codes out of 50", len(seen))
	}

	if got := RandomShortCode(0); len(got) != 8 {
		t.Errorf("RandomShortCode(0) length = %d, want default 8", len(got))
	}
}

func TestIsValidShortCode(t *testing.T) {
	valid := []string{"abc", "my-link", "a1b2", "x"}
	for _, s := range valid {
		if !IsValidShortCode(s) {
			t.Errorf("IsValidShortCode(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "-abc", "abc-", "a--b", "ABC", "has space", "under_score",
		strings.Repeat("a", MaxShortCodeLength+1)}
	for _, s := range invalid {
		if IsValidShortCode(s) {
			t.Errorf("IsValidShortCode(%q) = true, want false", s)
		}
	}
}
