package assistant

import "context"

// AskRequest is one question sent to an assistant provider.
type AskRequest struct {
	Question          string `json:"question"`
	Nation            string `json:"nation"`
	State             string `json:"state"`
	PromptQuestionsID string `json:"prompt_questions_id,omitempty"`
	CategoryID        string `json:"category_id,omitempty"`
	UUID              string `json:"uuid,omitempty"`
}

// Client answers a question in free text.
type Client interface {
	Ask(ctx context.Context, req AskRequest) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req AskRequest) (string, error)

func (f ClientFunc) Ask(ctx context.Context, req AskRequest) (string, error) { return f(ctx, req) }
