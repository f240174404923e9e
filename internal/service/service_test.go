package service

import (
	"context"
	"strings"
	"testing"
)

func TestReferrerDomain(t *testing.T) {
	tests := []struct {
		referrer string
		want     string
	}{
		{"", ""},
		{"https://www.google.com/search?q=x", "google.com"},
		{"https://t.co/abc", "t.co"},
		{"https://News.Ycombinator.com/item", "news.ycombinator.com"},
		{"not a url at all ://", ""},
	}
	for _, tt := range tests {
		if got := ReferrerDomain(tt.referrer); got != tt.want {
			t.Errorf("ReferrerDomain(%q) = %q, want %q", tt.referrer, got, tt.want)
		}
	}
}

func TestParseUserAgent(t *testing.T) {
	desktop := ParseUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if desktop.Browser != "Chrome" {
		t.Errorf("Browser = %q, want Chrome", desktop.Browser)
	}
	if desktop.DeviceType != "desktop" {
		t.Errorf("DeviceType = %q, want desktop", desktop.DeviceType)
	}

	mobile := ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	if mobile.DeviceType != "mobile" {
		t.Errorf("DeviceType = %q, want mobile", mobile.DeviceType)
	}

	bot := ParseUserAgent("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	if bot.DeviceType != "bot" {
		t.Errorf("DeviceType = %q, want bot", bot.DeviceType)
	}

	unknown := ParseUserAgent("")
	if unknown.Browser != "Unknown" || unknown.OS != "Unknown" {
		t.Errorf("empty UA parsed as %+v, want Unknown/Unknown", unknown)
	}
}

func TestRenderBio(t *testing.T) {
	if got := RenderBio(""); got != "" {
		t.Errorf("RenderBio(\"\") = %q, want empty", got)
	}

	html := string(RenderBio("I make **things** and [links](https://example.com)."))
	if !strings.Contains(html, "<strong>things</strong>") {
		t.Errorf("bold markdown missing: %q", html)
	}
	if !strings.Contains(html, `href="https://example.com"`) {
		t.Errorf("link markdown missing: %q", html)
	}
}

func TestRenderBioSanitizes(t *testing.T) {
	html := string(RenderBio("hello <script>alert(1)</script> *world*"))
	if strings.Contains(html, "<script>") {
		t.Errorf("script tag survived sanitization: %q", html)
	}
	if !strings.Contains(html, "<em>world</em>") {
		t.Errorf("markdown around the payload missing: %q", html)
	}

	html = string(RenderBio(`[x](javascript:alert(1))`))
	if strings.Contains(html, "javascript:") {
		t.Errorf("javascript URL survived sanitization: %q", html)
	}
}

func TestSuggesterDisabled(t *testing.T) {
	s := NewSuggester("")
	if s.Enabled() {
		t.Error("suggester without key should be disabled")
	}
	if _, err := s.SuggestDescription(context.Background(), "Jane", "bio", nil); err == nil {
		t.Error("disabled suggester should error")
	}
}

func TestBuildSuggestPrompt(t *testing.T) {
	prompt := buildSuggestPrompt("Jane", "I make things.", []string{"Blog", "Shop"})
	for _, want := range []string{"Jane", "I make things.", "Blog, Shop"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	bare := buildSuggestPrompt("", "", nil)
	if strings.Contains(bare, "Name:") || strings.Contains(bare, "Links:") {
		t.Errorf("empty fields should be omitted:\n%s", bare)
	}
}

func TestTruncateAtWord(t *testing.T) {
	if got := truncateAtWord("short", 100); got != "short" {
		t.Errorf("truncateAtWord(short) = %q", got)
	}
	got := truncateAtWord("one two three four five six seven", 15)
	if len(got) > 15 {
		t.Errorf("length = %d, want <= 15", len(got))
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("result %q has trailing space", got)
	}
}
