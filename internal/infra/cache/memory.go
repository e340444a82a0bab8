package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

const defaultMaxHistory = 20

var errMissingKey = errors.New("snapshot has no prompt question id")

// Memory is the in-process metrics.Cache used when redis is not configured.
type Memory struct {
	mu         sync.RWMutex
	history    map[string][]*metrics.Snapshot // newest first
	maxHistory int
}

func NewMemory(maxHistory int) *Memory {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Memory{history: map[string][]*metrics.Snapshot{}, maxHistory: maxHistory}
}

func (m *Memory) Latest(_ context.Context, qsid string) (*metrics.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[qsid]
	if len(h) == 0 {
		return nil, nil
	}
	cp := *h[0]
	return &cp, nil
}

func (m *Memory) Put(_ context.Context, s *metrics.Snapshot) error {
	if s == nil || s.PromptQuestionID == "" {
		return errMissingKey
	}
	cp := *s
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[s.PromptQuestionID]
	if len(h) > 0 && sameSnapshot(h[0], s) {
		h[0] = &cp
		return nil
	}
	h = append([]*metrics.Snapshot{&cp}, h...)
	if len(h) > m.maxHistory {
		h = h[:m.maxHistory]
	}
	m.history[s.PromptQuestionID] = h
	return nil
}

func (m *Memory) History(_ context.Context, qsid string, limit int) ([]*metrics.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[qsid]
	if limit <= 0 || limit > len(h) {
		limit = len(h)
	}
	out := make([]*metrics.Snapshot, 0, limit)
	for _, s := range h[:limit] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

// sameSnapshot: a backend snapshot is identified by its id, else by its
// creation time.
func sameSnapshot(a, b *metrics.Snapshot) bool {
	if a == nil || b == nil {
		return false
	}
	if a.ID != "" || b.ID != "" {
		return a.ID == b.ID
	}
	return a.CreatedAt.Equal(b.CreatedAt)
}
