package metrics

import (
	"context"
	"time"
)

// Snapshot is an externally computed GEO metrics result for one question set.
// Each recalculation yields a new snapshot; old ones are never mutated.
type Snapshot struct {
	ID                 string         `json:"_id,omitempty"`
	PromptQuestionID   string         `json:"prompt_question_id,omitempty"`
	BrandName          string         `json:"brand_name"`
	TotalPrompts       int            `json:"total_prompts"`
	BrandAgnostic      *Group         `json:"brand_agnostic_metrics,omitempty"`
	BrandIncluded      *Group         `json:"brand_included_metrics,omitempty"`
	CompetitorMentions map[string]int `json:"competitor_mentions,omitempty"`
	BrandFeatures      []string       `json:"brand_features,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// Group holds the rates of one prompt subset (brand-agnostic or brand-included).
type Group struct {
	TotalPrompts       int       `json:"total_prompts"`
	Mentions           int       `json:"mentions"`
	BrandMentionRate   float64   `json:"brand_mention_rate"`
	Top3PositionRate   float64   `json:"top_3_position_rate"`
	RecommendationRate float64   `json:"recommendation_rate"`
	ZeroMentionCount   int       `json:"zero_mention_count"`
	Sentiment          Sentiment `json:"sentiment"`
}

// Sentiment counts answers by tone.
type Sentiment struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total number of classified answers.
func (s Sentiment) Total() int { return s.Positive + s.Neutral + s.Negative }

// Empty reports a snapshot that carries no data; the backend answers with an
// empty object when nothing was generated yet.
func (s *Snapshot) Empty() bool {
	return s == nil || (s.BrandName == "" && s.TotalPrompts == 0)
}

// Source is the external metrics collaborator.
type Source interface {
	Generated(ctx context.Context, promptQuestionID string) (*Snapshot, error)
	Calculate(ctx context.Context, promptQuestionID string) (*Snapshot, error)
}

// Cache keeps the latest snapshot per question set plus its history.
type Cache interface {
	Latest(ctx context.Context, promptQuestionID string) (*Snapshot, error)
	Put(ctx context.Context, s *Snapshot) error
	History(ctx context.Context, promptQuestionID string, limit int) ([]*Snapshot, error)
}
