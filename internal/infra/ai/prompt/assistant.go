package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
)

// SystemPrompt frames the model as a local recommendation assistant so its
// answers resemble what a consumer would get from a chat product.
func SystemPrompt(req assistant.AskRequest) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering a consumer looking for local businesses and services.")
	if loc := location(req); loc != "" {
		fmt.Fprintf(&b, " The user is located in %s.", loc)
	}
	b.WriteString(` Answer the way a general-purpose chat assistant would:
- Recommend specific businesses by name when you know relevant ones, and include their websites when known.
- Keep the answer concise (under 250 words), plain text, no markdown tables.
- Do not invent phone numbers or addresses.`)
	return b.String()
}

// UserPrompt is the question as the consumer typed it.
func UserPrompt(req assistant.AskRequest) string {
	return strings.TrimSpace(req.Question)
}

func location(req assistant.AskRequest) string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(req.State); s != "" {
		parts = append(parts, s)
	}
	if n := strings.TrimSpace(req.Nation); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, ", ")
}
