package evaluation

import (
	"context"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// checkMetrics looks up a stored snapshot once per completed session.
// "none yet" and "lookup failed" both leave metrics absent.
func (s *Service) checkMetrics(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	cur, ok := s.current(id)
	if !ok || cur.Status != domain.StatusCompleted || cur.MetricsChecked {
		return cur, nil
	}
	var snap *metrics.Snapshot
	if s.Metrics != nil && cur.PromptQuestionsID != "" {
		log := observability.LoggerFromContext(ctx).With().
			Str("project_id", string(id)).
			Str("prompt_question_id", cur.PromptQuestionsID).
			Logger()
		var err error
		snap, err = s.Metrics.CheckGenerated(ctx, cur.PromptQuestionsID)
		switch {
		case err != nil:
			log.Error().Err(err).Msg("failed to get generated metrics")
			snap = nil
		case snap.Empty():
			log.Info().Msg("no pre-generated metrics found")
		default:
			log.Info().Msg("using pre-generated metrics")
		}
	}
	return s.apply(id, domain.MetricsChecked{Snapshot: snap})
}

// RecalculateMetrics always asks the metrics collaborator for a fresh
// snapshot. On failure the previous snapshot stays.
func (s *Service) RecalculateMetrics(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	cur, err := s.Session(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if s.Metrics == nil {
		return cur, errMetricsDisabled
	}
	if cur, err = s.apply(id, domain.MetricsCalculationStarted{}); err != nil {
		return cur, err
	}
	snap, err := s.Metrics.Recalculate(ctx, cur.PromptQuestionsID)
	if err == nil && snap == nil {
		err = errEmptySnapshot
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("project_id", string(id)).
			Msg("failed to calculate geo metrics")
		s.recordFailure(ctx, cur, failures.PhaseMetrics, "", "", err)
		cur, _ = s.apply(id, domain.MetricsCalculationFailed{})
		return cur, err
	}
	return s.apply(id, domain.MetricsCalculated{Snapshot: snap})
}
