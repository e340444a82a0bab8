package evaluation

import (
	"context"
	"encoding/json"
	"errors"

	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

var (
	errMetricsDisabled = errors.New("metrics source not configured")
	errEmptySnapshot   = errors.New("metrics collaborator returned no snapshot")
)

// statusCoder is implemented by collaborator errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// recordFailure persists a collaborator failure when a ledger is configured.
// Ledger errors are logged and never surface to the operator.
func (s *Service) recordFailure(ctx context.Context, sess domain.Session, phase failures.Phase, resultID, provider string, cause error) {
	if s.Failures == nil || cause == nil {
		return
	}
	details := map[string]any{"error": cause.Error()}
	var sc statusCoder
	if errors.As(cause, &sc) {
		details["status"] = sc.HTTPStatus()
	}
	raw, _ := json.Marshal(details)

	f := &failures.QuestionFailure{
		ProjectID:         string(sess.ProjectID),
		PromptQuestionsID: sess.PromptQuestionsID,
		ResultID:          resultID,
		Provider:          provider,
		Phase:             phase,
		Message:           cause.Error(),
		DetailsJSON:       string(raw),
		CreatedAt:         s.now(),
	}
	if err := s.Failures.Save(context.WithoutCancel(ctx), f); err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("project_id", string(sess.ProjectID)).
			Str("phase", string(phase)).
			Msg("failed to record question failure")
	}
}

// FailureLog lists recorded collaborator failures of a project, newest first.
func (s *Service) FailureLog(ctx context.Context, id domain.ProjectID, limit int) ([]*failures.QuestionFailure, error) {
	if s.Failures == nil {
		return []*failures.QuestionFailure{}, nil
	}
	out, err := s.Failures.ListByProject(ctx, string(id), limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*failures.QuestionFailure{}
	}
	return out, nil
}
