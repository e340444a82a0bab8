package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
)

func TestAsk(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":" Try Acme Plumbing (acme.com). "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "", srv.URL+"/v1")
	ans, err := c.Ask(context.Background(), assistant.AskRequest{Question: "Best plumber?", Nation: "USA", State: "TX"})
	require.NoError(t, err)
	assert.Equal(t, "Try Acme Plumbing (acme.com).", ans)

	assert.Equal(t, defaultModel, got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].(map[string]any)["content"], "TX, USA")
	assert.Equal(t, "Best plumber?", msgs[1].(map[string]any)["content"])
}

func TestAskQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", "gpt-4o", srv.URL+"/v1")
	_, err := c.Ask(context.Background(), assistant.AskRequest{Question: "q"})
	assert.ErrorIs(t, err, assistant.ErrQuotaExceeded)
}
