package assistant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/assistant"
)

// Registry maps provider names to assistant clients.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]domain.Client
	fallback string
}

// NewRegistry; defaultProvider is used when a request names none.
func NewRegistry(defaultProvider string) *Registry {
	return &Registry{clients: map[string]domain.Client{}, fallback: defaultProvider}
}

// Register adds or replaces a provider.
func (r *Registry) Register(name string, c domain.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = c
}

// Default provider name
func (r *Registry) Default() string { return r.fallback }

// Names of registered providers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for n := range r.clients {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether provider is registered. Empty means the default.
func (r *Registry) Has(provider string) bool {
	_, err := r.client(provider)
	return err == nil
}

// Ask dispatches to provider, or the default when provider is empty.
func (r *Registry) Ask(ctx context.Context, provider string, req domain.AskRequest) (string, error) {
	c, err := r.client(provider)
	if err != nil {
		return "", err
	}
	return c.Ask(ctx, req)
}

func (r *Registry) client(provider string) (domain.Client, error) {
	if provider == "" {
		provider = r.fallback
	}
	r.mu.RLock()
	c, ok := r.clients[provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}
	return c, nil
}
