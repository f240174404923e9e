// Package seo builds the meta tag set and web manifest for the public page.
package seo

import (
	"strings"

	"github.com/flexibio/flexibio-go/internal/model"
)

// Brand copy used when the profile does not hide product branding.
const (
	BrandName            = "FlexiBio"
	brandedTitleFallback = "FlexiBio - Enhanced Personal Links"
	brandedDescFallback  = "Enhanced personal link-in-bio page built with FlexiBio"
	neutralTitleFallback = "Personal Links"
	neutralDescFallback  = "Personal links and contact information"
	neutralTitleSuffix   = " - Personal Links"
	brandedTitleSuffix   = " - FlexiBio"
	defaultTwitterCard   = "summary_large_image"
)

// TagSet holds one entry per meta tag kind for the public page. Because the
// set is keyed by field, building it twice from the same profile always
// yields an identical result; rendering replaces rather than appends.
type TagSet struct {
	Title              string
	Description        string
	Keywords           string // empty means omit the tag
	Robots             string
	Canonical          string // empty means omit the tag
	OGTitle            string
	OGDescription      string
	OGImage            string // empty means omit the tag
	OGType             string
	TwitterCard        string
	TwitterTitle       string
	TwitterDescription string
	TwitterImage       string // empty means omit the tag
	AppleWebAppTitle   string
}

// SiteConfig contains site-wide settings for building absolute URLs.
type SiteConfig struct {
	BaseURL string
}

// BuildTagSet creates the full tag set from profile settings.
// Explicit SEO overrides always win; fallbacks switch between neutral and
// branded copy on the hide_footer flag.
func BuildTagSet(profile *model.ProfileSettings, site *SiteConfig) *TagSet {
	tags := &TagSet{
		OGType:      "website",
		TwitterCard: defaultTwitterCard,
	}
	if profile == nil {
		tags.Title = neutralTitleFallback
		tags.Description = neutralDescFallback
		tags.OGTitle = neutralTitleFallback
		tags.OGDescription = neutralDescFallback
		tags.TwitterTitle = neutralTitleFallback
		tags.TwitterDescription = neutralDescFallback
		tags.AppleWebAppTitle = neutralTitleFallback
		tags.Robots = "index,follow"
		return tags
	}

	hideBranding := profile.HideFooter
	displayName := strings.TrimSpace(profile.DisplayName.String)
	bio := strings.TrimSpace(profile.Bio.String)

	// <title>: seo_title → "{name} - Links" → neutral/branded fallback
	switch {
	case profile.SEOTitle.Valid && profile.SEOTitle.String != "":
		tags.Title = profile.SEOTitle.String
	case displayName != "":
		tags.Title = displayName + " - Links"
	case hideBranding:
		tags.Title = neutralTitleFallback
	default:
		tags.Title = brandedTitleFallback
	}

	// description: seo_description → bio → neutral/branded fallback
	defaultDesc := brandedDescFallback
	if hideBranding {
		defaultDesc = neutralDescFallback
	}
	if bio != "" {
		defaultDesc = truncateText(bio, 160)
	}
	if profile.SEODescription.Valid && profile.SEODescription.String != "" {
		tags.Description = profile.SEODescription.String
	} else {
		tags.Description = defaultDesc
	}

	tags.Keywords = profile.SEOKeywords.String

	tags.Robots = profile.RobotsDirective
	if tags.Robots == "" {
		tags.Robots = "index,follow"
	}

	tags.Canonical = profile.CanonicalURL.String

	// og:title / twitter:title share the same suffix-based fallback
	socialTitle := socialTitleFallback(displayName, hideBranding)
	if profile.OGTitle.Valid && profile.OGTitle.String != "" {
		tags.OGTitle = profile.OGTitle.String
	} else {
		tags.OGTitle = socialTitle
	}
	if profile.OGDescription.Valid && profile.OGDescription.String != "" {
		tags.OGDescription = profile.OGDescription.String
	} else {
		tags.OGDescription = defaultDesc
	}
	tags.OGImage = makeAbsoluteURL(profile.OGImage.String, site.BaseURL)

	if profile.TwitterCardType != "" {
		tags.TwitterCard = profile.TwitterCardType
	}
	if profile.TwitterTitle.Valid && profile.TwitterTitle.String != "" {
		tags.TwitterTitle = profile.TwitterTitle.String
	} else {
		tags.TwitterTitle = socialTitle
	}
	if profile.TwitterDescription.Valid && profile.TwitterDescription.String != "" {
		tags.TwitterDescription = profile.TwitterDescription.String
	} else {
		tags.TwitterDescription = defaultDesc
	}
	tags.TwitterImage = makeAbsoluteURL(profile.TwitterImage.String, site.BaseURL)

	if hideBranding {
		if displayName != "" {
			tags.AppleWebAppTitle = displayName
		} else {
			tags.AppleWebAppTitle = neutralTitleFallback
		}
	} else {
		tags.AppleWebAppTitle = BrandName
	}

	return tags
}

// socialTitleFallback builds the default og/twitter title.
func socialTitleFallback(displayName string, hideBranding bool) string {
	if displayName == "" {
		if hideBranding {
			return neutralTitleFallback
		}
		return brandedTitleFallback
	}
	if hideBranding {
		return displayName + neutralTitleSuffix
	}
	return displayName + brandedTitleSuffix
}

// makeAbsoluteURL ensures a URL is absolute by prepending the base URL if needed.
func makeAbsoluteURL(url, baseURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return baseURL + url
}

// truncateText truncates text to maxLen characters at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}

	truncated := text[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimSpace(truncated) + "..."
}
