package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
)

func TestSystemPromptLocation(t *testing.T) {
	p := SystemPrompt(assistant.AskRequest{Nation: "USA", State: "TX"})
	assert.Contains(t, p, "located in TX, USA.")

	p = SystemPrompt(assistant.AskRequest{})
	assert.NotContains(t, p, "located in")
}

func TestUserPrompt(t *testing.T) {
	assert.Equal(t, "best plumber?", UserPrompt(assistant.AskRequest{Question: "  best plumber?\n"}))
}
