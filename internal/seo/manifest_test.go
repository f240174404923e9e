package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/flexibio/flexibio-go/internal/model"
)

func TestBuildManifestBranded(t *testing.T) {
	m := BuildManifest(nil, "https://example.com/")

	if m.Name != "FlexiBio - Enhanced Personal Links" {
		t.Errorf("Name = %q, want branded fallback", m.Name)
	}
	if m.ShortName != "FlexiBio" {
		t.Errorf("ShortName = %q, want %q", m.ShortName, "FlexiBio")
	}
	if m.StartURL != "https://example.com/" {
		t.Errorf("StartURL = %q, want %q", m.StartURL, "https://example.com/")
	}
	if len(m.Icons) != 3 {
		t.Fatalf("icons = %d, want 3", len(m.Icons))
	}
	if m.Icons[0].Src != "https://example.com/static/favicon.svg" {
		t.Errorf("first icon Src = %q", m.Icons[0].Src)
	}
}

func TestBuildManifestHideBranding(t *testing.T) {
	profile := &model.ProfileSettings{
		DisplayName: nullStr("Jane"),
		Bio:         nullStr("I make things."),
		HideFooter:  true,
	}
	m := BuildManifest(profile, "https://example.com")

	if m.Name != "Jane - Personal Links" {
		t.Errorf("Name = %q, want %q", m.Name, "Jane - Personal Links")
	}
	if m.ShortName != "Jane" {
		t.Errorf("ShortName = %q, want %q", m.ShortName, "Jane")
	}
	if m.Description != "I make things." {
		t.Errorf("Description = %q, want bio", m.Description)
	}
}

func TestBuildManifestHideBrandingWithoutName(t *testing.T) {
	profile := &model.ProfileSettings{HideFooter: true}
	m := BuildManifest(profile, "https://example.com")

	if strings.Contains(m.Name, "FlexiBio") {
		t.Errorf("Name = %q, branding should be hidden", m.Name)
	}
	if m.Description != "Personal links and contact information" {
		t.Errorf("Description = %q, want neutral fallback", m.Description)
	}
}

func TestMarshalManifest(t *testing.T) {
	data, err := MarshalManifest(BuildManifest(nil, "https://example.com"))
	if err != nil {
		t.Fatalf("MarshalManifest: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["display"] != "standalone" {
		t.Errorf("display = %v, want standalone", decoded["display"])
	}
	if _, ok := decoded["icons"]; !ok {
		t.Error("manifest is missing icons")
	}
}
