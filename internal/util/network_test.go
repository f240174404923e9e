package util

import (
	"net"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateLinkURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path?q=1",
		"https://sub.example.co.uk/deep/path",
	}
	for _, u := range valid {
		if err := ValidateLinkURL(u); err != nil {
			t.Errorf("ValidateLinkURL(%q) = %v, want nil", u, err)
		}
	}

	invalid := []string{
		"ftp://example.com",
		"javascript:alert(1)",
		"not a url",
		"https://",
		"//example.com",
		"https://" + strings.Repeat("a", MaxLinkURLLength) + ".com",
	}
	for _, u := range invalid {
		if err := ValidateLinkURL(u); err == nil {
			t.Errorf("ValidateLinkURL(%q) = nil, want error", u)
		}
	}
}

func TestValidateRemoteFetchURL(t *testing.T) {
	blocked := []string{
		"https://localhost/image.png",
		"https://foo.localhost/image.png",
		"https://127.0.0.1/image.png",
		"https://10.0.0.5/image.png",
		"https://192.168.1.1/image.png",
		"https://169.254.169.254/latest/meta-data/",
		"https://[::1]/image.png",
	}
	for _, u := range blocked {
		if err := ValidateRemoteFetchURL(u); err == nil {
			t.Errorf("ValidateRemoteFetchURL(%q) = nil, want error", u)
		}
	}

	if err := ValidateRemoteFetchURL("https://8.8.8.8/image.png"); err != nil {
		t.Errorf("public IP should pass: %v", err)
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.1.2.3", "172.16.0.1", "192.168.0.1", "169.254.1.1", "::1", "fc00::1"}
	for _, s := range private {
		if !IsPrivateIP(net.ParseIP(s)) {
			t.Errorf("IsPrivateIP(%s) = false, want true", s)
		}
	}

	public := []string{"8.8.8.8", "1.1.1.1", "2606:4700:4700::1111"}
	for _, s := range public {
		if IsPrivateIP(net.ParseIP(s)) {
			t.Errorf("IsPrivateIP(%s) = true, want false", s)
		}
	}

	if !IsPrivateIP(nil) {
		t.Error("IsPrivateIP(nil) = false, want true")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:12345"
	if got := GetClientIP(r); got != "203.0.113.5" {
		t.Errorf("GetClientIP = %q, want %q", got, "203.0.113.5")
	}

	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	if got := GetClientIP(r); got != "198.51.100.7" {
		t.Errorf("GetClientIP with XFF = %q, want %q", got, "198.51.100.7")
	}

	r.Header.Set("X-Real-IP", "192.0.2.9")
	if got := GetClientIP(r); got != "192.0.2.9" {
		t.Errorf("GetClientIP with X-Real-IP = %q, want %q", got, "192.0.2.9")
	}
}
