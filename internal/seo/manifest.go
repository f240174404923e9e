package seo

import (
	"encoding/json"
	"strings"

	"github.com/flexibio/flexibio-go/internal/model"
)

// Manifest is the web app manifest served at /manifest.webmanifest.
type Manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Orientation     string         `json:"orientation"`
	Categories      []string       `json:"categories"`
	Icons           []ManifestIcon `json:"icons"`
}

// ManifestIcon is a single icon entry in the manifest.
type ManifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose,omitempty"`
}

// BuildManifest generates the manifest for the public page. With hide_footer
// set the manifest carries the profile's own identity; otherwise it carries
// the default branded identity.
func BuildManifest(profile *model.ProfileSettings, baseURL string) *Manifest {
	baseURL = strings.TrimSuffix(baseURL, "/")

	m := &Manifest{
		Name:            brandedTitleFallback,
		ShortName:       BrandName,
		Description:     brandedDescFallback,
		StartURL:        baseURL + "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#6366f1",
		Orientation:     "portrait-primary",
		Categories:      []string{"productivity", "social", "utilities"},
		Icons: []ManifestIcon{
			{
				Src:     baseURL + "/static/favicon.svg",
				Sizes:   "any",
				Type:    "image/svg+xml",
				Purpose: "any maskable",
			},
			{
				Src:     baseURL + "/static/apple-touch-icon.svg",
				Sizes:   "180x180",
				Type:    "image/svg+xml",
				Purpose: "any",
			},
			{
				Src:   baseURL + "/static/favicon.ico",
				Sizes: "16x16 32x32 48x48",
				Type:  "image/x-icon",
			},
		},
	}

	if profile != nil && profile.HideFooter {
		displayName := strings.TrimSpace(profile.DisplayName.String)
		if displayName != "" {
			m.Name = displayName + neutralTitleSuffix
			m.ShortName = displayName
		} else {
			m.Name = neutralTitleFallback
			m.ShortName = neutralTitleFallback
		}
		if bio := strings.TrimSpace(profile.Bio.String); bio != "" {
			m.Description = truncateText(bio, 160)
		} else {
			m.Description = neutralDescFallback
		}
	}

	return m
}

// MarshalManifest renders a manifest as indented JSON.
func MarshalManifest(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
