package service

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// bioSanitizer allows the safe HTML subset for user-generated content.
var bioSanitizer = bluemonday.UGCPolicy()

// RenderBio converts the profile bio from Markdown to sanitized HTML.
// Unlike the custom code fields, the bio is always sanitized.
func RenderBio(markdown string) template.HTML {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		// Fall back to the sanitized raw text on a conversion failure
		return template.HTML(bioSanitizer.Sanitize(markdown))
	}

	return template.HTML(bioSanitizer.SanitizeBytes(buf.Bytes()))
}
