package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/bryanwahyu/geo-authority/internal/application"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// ErrNoQuestionSet: metrics are keyed by a question set id.
var ErrNoQuestionSet = errors.New("no prompt question id")

// Service consumes externally computed GEO metrics. A cache (redis or
// memory) keeps the latest snapshot and the recalculation history.
type Service struct {
	Source domain.Source
	Cache  domain.Cache // optional
	Clock  application.Clock
}

// CheckGenerated returns the stored snapshot without computing one.
// nil, nil means none exists yet.
func (s *Service) CheckGenerated(ctx context.Context, qsid string) (*domain.Snapshot, error) {
	if qsid == "" {
		return nil, ErrNoQuestionSet
	}
	log := observability.LoggerFromContext(ctx).With().Str("prompt_question_id", qsid).Logger()

	if s.Cache != nil {
		cached, err := s.Cache.Latest(ctx, qsid)
		if err != nil {
			log.Warn().Err(err).Msg("metrics cache read failed")
		} else if !cached.Empty() {
			return cached, nil
		}
	}

	snap, err := s.Source.Generated(ctx, qsid)
	if err != nil {
		return nil, fmt.Errorf("get generated metrics: %w", err)
	}
	if snap.Empty() {
		return nil, nil
	}
	s.remember(ctx, qsid, snap)
	return snap, nil
}

// Recalculate always asks the collaborator for a fresh snapshot.
func (s *Service) Recalculate(ctx context.Context, qsid string) (*domain.Snapshot, error) {
	if qsid == "" {
		return nil, ErrNoQuestionSet
	}
	snap, err := s.Source.Calculate(ctx, qsid)
	if err != nil {
		return nil, fmt.Errorf("calculate metrics: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("calculate metrics: empty response")
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.Clock.Now()
	}
	s.remember(ctx, qsid, snap)
	return snap, nil
}

// History lists earlier snapshots, newest first. Empty without a cache.
func (s *Service) History(ctx context.Context, qsid string, limit int) ([]*domain.Snapshot, error) {
	if qsid == "" {
		return nil, ErrNoQuestionSet
	}
	if s.Cache == nil {
		return []*domain.Snapshot{}, nil
	}
	return s.Cache.History(ctx, qsid, limit)
}

func (s *Service) remember(ctx context.Context, qsid string, snap *domain.Snapshot) {
	if s.Cache == nil {
		return
	}
	if snap.PromptQuestionID == "" {
		snap.PromptQuestionID = qsid
	}
	if err := s.Cache.Put(ctx, snap); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("prompt_question_id", qsid).Msg("metrics cache write failed")
	}
}
