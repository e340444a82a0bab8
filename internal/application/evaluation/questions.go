package evaluation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/matching"
)

// NewQuestion is an operator-written question.
type NewQuestion struct {
	Text         string `json:"question"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Provider     string `json:"provider"`
}

// EditQuestion replaces a row's text; its answer is dropped.
func (s *Service) EditQuestion(ctx context.Context, id domain.ProjectID, resultID, text string) (domain.Session, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return domain.Session{}, err
	}
	return s.apply(id, domain.QuestionEdited{ID: resultID, Text: text})
}

// AddQuestion appends a custom row with a fresh custom-<uuid> id.
func (s *Service) AddQuestion(ctx context.Context, id domain.ProjectID, q NewQuestion) (domain.Session, string, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return domain.Session{}, "", err
	}
	if q.Provider != "" && !s.Assistants.Has(q.Provider) {
		cur, _ := s.current(id)
		return cur, "", fmt.Errorf("%w: %q", assistant.ErrUnknownProvider, q.Provider)
	}
	rid := "custom-" + uuid.NewString()
	cur, err := s.apply(id, domain.QuestionAdded{
		ID:           rid,
		Text:         q.Text,
		CategoryID:   q.CategoryID,
		CategoryName: q.CategoryName,
		Provider:     q.Provider,
	})
	if err != nil {
		return cur, "", err
	}
	return cur, rid, nil
}

// DeleteQuestion removes a row.
func (s *Service) DeleteQuestion(ctx context.Context, id domain.ProjectID, resultID string) (domain.Session, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return domain.Session{}, err
	}
	return s.apply(id, domain.QuestionDeleted{ID: resultID})
}

// SelectProvider sets the assistant a row is asked with.
func (s *Service) SelectProvider(ctx context.Context, id domain.ProjectID, resultID, provider string) (domain.Session, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return domain.Session{}, err
	}
	if provider != "" && !s.Assistants.Has(provider) {
		cur, _ := s.current(id)
		return cur, fmt.Errorf("%w: %q", assistant.ErrUnknownProvider, provider)
	}
	return s.apply(id, domain.ProviderSelected{ID: resultID, Provider: provider})
}

// Highlight tokenizes a row's answer against the brand and domain.
func (s *Service) Highlight(ctx context.Context, id domain.ProjectID, resultID string) ([]matching.Token, error) {
	cur, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	r, ok := cur.Find(resultID)
	if !ok {
		return nil, fmt.Errorf("%w: result %s", domain.ErrNotFound, resultID)
	}
	return matching.Collect(matching.Tokenize(r.FullAnswer, cur.TargetTerms())), nil
}
