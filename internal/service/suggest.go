package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// suggestTimeout bounds one suggestion request.
const suggestTimeout = 30 * time.Second

// ErrSuggesterDisabled is returned when no API key is configured.
var ErrSuggesterDisabled = errors.New("seo suggester is not configured")

// Suggester generates SEO description suggestions for the profile editor.
// It is optional: without an API key every call returns ErrSuggesterDisabled
// and the editor simply hides the suggest button.
type Suggester struct {
	client  openai.Client
	enabled bool
}

// NewSuggester creates a Suggester. An empty apiKey disables it.
func NewSuggester(apiKey string) *Suggester {
	if apiKey == "" {
		return &Suggester{}
	}
	return &Suggester{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		enabled: true,
	}
}

// Enabled reports whether suggestions are available.
func (s *Suggester) Enabled() bool {
	return s.enabled
}

// SuggestDescription produces a meta description candidate from the profile's
// display name, bio, and link titles.
func (s *Suggester) SuggestDescription(ctx context.Context, displayName, bio string, linkTitles []string) (string, error) {
	if !s.enabled {
		return "", ErrSuggesterDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	prompt := buildSuggestPrompt(displayName, bio, linkTitles)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write concise SEO meta descriptions. Respond with the description only, no quotes, at most 160 characters."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no suggestion returned")
	}

	suggestion := strings.TrimSpace(resp.Choices[0].Message.Content)
	suggestion = strings.Trim(suggestion, `"`)
	if len(suggestion) > 160 {
		suggestion = truncateAtWord(suggestion, 160)
	}
	return suggestion, nil
}

// buildSuggestPrompt assembles the model prompt from profile data.
func buildSuggestPrompt(displayName, bio string, linkTitles []string) string {
	var sb strings.Builder
	sb.WriteString("Write a meta description for a personal link-in-bio page.\n")
	if displayName != "" {
		sb.WriteString("Name: " + displayName + "\n")
	}
	if bio != "" {
		sb.WriteString("Bio: " + bio + "\n")
	}
	if len(linkTitles) > 0 {
		sb.WriteString("Links: " + strings.Join(linkTitles, ", ") + "\n")
	}
	return sb.String()
}

// truncateAtWord truncates to maxLen at a word boundary.
func truncateAtWord(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	truncated := text[:maxLen]
	if idx := strings.LastIndex(truncated, " "); idx > maxLen/2 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
