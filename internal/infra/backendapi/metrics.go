package backendapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

type snapshotDTO struct {
	metrics.Snapshot
	ID        FlexID   `json:"_id"`
	CreatedAt flexTime `json:"createdAt"`
}

func (d snapshotDTO) toDomain() *metrics.Snapshot {
	s := d.Snapshot
	s.ID = string(d.ID)
	s.CreatedAt = d.CreatedAt.Time()
	return &s
}

// Generated fetches the stored snapshot; nil, nil when none exists yet.
func (c *HTTPClient) Generated(ctx context.Context, promptQuestionID string) (*metrics.Snapshot, error) {
	var d snapshotDTO
	path := "/geo-metrics/generated/" + url.PathEscape(promptQuestionID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &d, "Failed to fetch generated metrics"); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s := d.toDomain()
	if s.Empty() {
		return nil, nil
	}
	if s.PromptQuestionID == "" {
		s.PromptQuestionID = promptQuestionID
	}
	return s, nil
}

// Calculate always computes a fresh snapshot.
func (c *HTTPClient) Calculate(ctx context.Context, promptQuestionID string) (*metrics.Snapshot, error) {
	var d snapshotDTO
	body := map[string]string{"prompt_question_id": promptQuestionID}
	if err := c.doJSON(ctx, http.MethodPost, "/geo-metrics/calculate", body, &d, "Failed to calculate metrics"); err != nil {
		return nil, err
	}
	s := d.toDomain()
	if s.PromptQuestionID == "" {
		s.PromptQuestionID = promptQuestionID
	}
	return s, nil
}
