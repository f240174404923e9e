// Package util provides general-purpose utility functions including
// short code generation and validation with Unicode normalization support.
package util

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxShortCodeLength caps generated short codes so redirect URLs stay compact.
	MaxShortCodeLength = 32

	// shortCodeAlphabet is the character set for random short code suffixes.
	// Ambiguous characters (0/o, 1/l) are excluded.
	shortCodeAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"
)

var (
	// slugRegex matches non-alphanumeric characters (except hyphens)
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a string to a URL-friendly slug.
// Non-Latin input is transliterated to ASCII first, then accents are
// decomposed and stripped, spaces become hyphens, and everything outside
// [a-z0-9-] is removed.
func Slugify(s string) string {
	// Transliterate non-Latin scripts to ASCII
	result := unidecode.Unidecode(s)

	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ = transform.String(t, result)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = slugRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// ShortCodeFromTitle derives a short code candidate from a link title.
// Returns a random code when the title yields nothing usable.
func ShortCodeFromTitle(title string) string {
	code := Slugify(title)
	if code == "" {
		return RandomShortCode(8)
	}
	if len(code) > MaxShortCodeLength {
		code = strings.Trim(code[:MaxShortCodeLength], "-")
	}
	return code
}

// RandomShortCode generates a random short code of length n.
func RandomShortCode(n int) string {
	if n <= 0 {
		n = 8
	}
	var sb strings.Builder
	sb.Grow(n)
	alphabetLen := big.NewInt(int64(len(shortCodeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand failing means the platform is broken; fall back
			// to a fixed character rather than panic in a request path.
			sb.WriteByte('x')
			continue
		}
		sb.WriteByte(shortCodeAlphabet[idx.Int64()])
	}
	return sb.String()
}

// IsValidShortCode checks if a string is a valid short code format.
func IsValidShortCode(s string) bool {
	if s == "" || len(s) > MaxShortCodeLength {
		return false
	}

	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}

	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	if strings.Contains(s, "--") {
		return false
	}

	return true
}
