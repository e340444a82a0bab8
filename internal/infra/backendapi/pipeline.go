package backendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

// Provider names served by the backend
const (
	ProviderChatGPT    = "chatgpt"
	ProviderGemini     = "gemini"
	ProviderPerplexity = "perplexity"
	ProviderClaude     = "claude"
)

var askPaths = map[string]string{
	ProviderChatGPT:    "/ask-chatgpt",
	ProviderGemini:     "/ask-gemini",
	ProviderPerplexity: "/ask-perplexity",
	ProviderClaude:     "/ask-claude",
}

// Providers lists the assistant providers the backend hosts.
func Providers() []string {
	return []string{ProviderChatGPT, ProviderGemini, ProviderPerplexity, ProviderClaude}
}

// Analyze runs the website analysis. The backend answers either
// {website_analysis, prompt_questions_id} or the bare analysis.
func (c *HTTPClient) Analyze(ctx context.Context, req evaluation.AnalyzeRequest) (evaluation.AnalyzeResult, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/analyze", req, &raw, "Failed to analyze website"); err != nil {
		return evaluation.AnalyzeResult{}, err
	}

	var wrapped struct {
		WebsiteAnalysis   *evaluation.Analysis `json:"website_analysis"`
		PromptQuestionsID FlexID               `json:"prompt_questions_id"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return evaluation.AnalyzeResult{}, fmt.Errorf("decode analysis: %w", err)
	}
	if wrapped.WebsiteAnalysis != nil {
		return evaluation.AnalyzeResult{
			Analysis:          *wrapped.WebsiteAnalysis,
			PromptQuestionsID: string(wrapped.PromptQuestionsID),
		}, nil
	}

	var bare evaluation.Analysis
	if err := json.Unmarshal(raw, &bare); err != nil {
		return evaluation.AnalyzeResult{}, fmt.Errorf("decode analysis: %w", err)
	}
	return evaluation.AnalyzeResult{Analysis: bare, PromptQuestionsID: string(wrapped.PromptQuestionsID)}, nil
}

// GenerateQuestions accepts a bare list or {"questions": [...]}.
func (c *HTTPClient) GenerateQuestions(ctx context.Context, req evaluation.GenerateRequest) ([]evaluation.Question, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/generate-questions", req, &raw, "Failed to generate questions"); err != nil {
		return nil, err
	}
	dtos, err := decodeList[questionDTO](raw, "questions")
	if err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	out := make([]evaluation.Question, 0, len(dtos))
	for i, d := range dtos {
		out = append(out, d.toDomain(i))
	}
	return out, nil
}

// Ask sends one question to a backend-hosted assistant provider.
func (c *HTTPClient) Ask(ctx context.Context, provider string, req assistant.AskRequest) (string, error) {
	path, ok := askPaths[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", assistant.ErrUnknownProvider, provider)
	}
	var resp struct {
		Answer string `json:"answer"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &resp, "Failed to get answer"); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Assistant binds Ask to one provider.
func (c *HTTPClient) Assistant(provider string) assistant.Client {
	return assistant.ClientFunc(func(ctx context.Context, req assistant.AskRequest) (string, error) {
		return c.Ask(ctx, provider, req)
	})
}

// decodeList reads either a bare JSON array or an object holding the array
// under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, err
	}
	return list, nil
}
