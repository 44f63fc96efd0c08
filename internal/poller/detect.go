// Package poller discovers new records in the agent's store by periodic
// scanning and delivers parsed domain objects to the engine. Discovery is
// dedup-by-filename with a settle delay, so a file written concurrently with
// a scan is read on a later tick instead of mid-write.
package poller

import (
	"strings"

	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/storage"
)

// rateLimitMarkers are matched case-insensitively against the combined
// output and error text of a finished part.
var rateLimitMarkers = []string{
	"too many requests",
	"rate limit",
	"throttl",
	"quota exceeded",
	"capacity",
}

// providerHints maps keyword fragments to provider ids, checked in order
// over the combined error text and tool name.
var providerHints = []struct {
	keyword  string
	provider string
}{
	{"claude", "anthropic"},
	{"sonnet", "anthropic"},
	{"opus", "anthropic"},
	{"haiku", "anthropic"},
	{"gpt", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"chatgpt", "openai"},
	{"gemini", "google"},
	{"vertex", "google"},
	{"openrouter", "openrouter"},
}

// IsRateLimitPart reports whether a part records a rate-limit incident:
// the part must have finished (status exactly "completed" or "error") and
// its combined output/error text must carry an HTTP 429 marker or one of
// the known throttling phrases.
func IsRateLimitPart(p storage.Part) bool {
	if p.Status != "completed" && p.Status != "error" {
		return false
	}
	text := p.Output + " " + p.Error
	if strings.Contains(text, "429") {
		return true
	}
	lower := strings.ToLower(text)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// InferProvider guesses the provider behind an incident from keyword hints
// in the error text and tool name. No hint yields the unknown key.
func InferProvider(text, tool string) string {
	haystack := strings.ToLower(text + " " + tool)
	for _, hint := range providerHints {
		if strings.Contains(haystack, hint.keyword) {
			return hint.provider
		}
	}
	return models.UnknownKey
}

// TruncateError bounds an error message for display.
func TruncateError(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= models.MaxRateLimitMessageLen {
		return s
	}
	return s[:models.MaxRateLimitMessageLen-3] + "..."
}

// PartToEvent converts a classified part into a rate-limit event. The part's
// error text is preferred over its output for the display message.
func PartToEvent(p storage.Part) models.RateLimitEvent {
	text := p.Error
	if text == "" {
		text = p.Output
	}
	return models.RateLimitEvent{
		Timestamp:    p.EndedAt,
		ProviderID:   InferProvider(p.Error+" "+p.Output, p.Tool),
		ErrorMessage: TruncateError(text),
		PartID:       p.ID,
	}
}
