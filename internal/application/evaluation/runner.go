package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// task is the running queue of a run-all. Pause blocks the queue between
// questions; cancel aborts the in-flight call.
type task struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	paused bool
	wake   chan struct{}
}

func (t *task) pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return false
	}
	t.paused = true
	t.wake = make(chan struct{})
	return true
}

func (t *task) resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return false
	}
	t.paused = false
	close(t.wake)
	return true
}

// wait blocks while paused; it returns ctx.Err() once cancelled.
func (t *task) wait(ctx context.Context) error {
	t.mu.Lock()
	if !t.paused {
		t.mu.Unlock()
		return ctx.Err()
	}
	wake := t.wake
	t.mu.Unlock()
	select {
	case <-wake:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evaluate asks every unanswered question, one at a time, and ends in
// completed. A failing question is logged and left unanswered; the run goes on.
// Cancel returns the session to questions_ready.
func (s *Service) Evaluate(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	run, err := s.PrepareEvaluate(ctx, id)
	if err != nil {
		cur, _ := s.current(id)
		return cur, err
	}
	return run(ctx)
}

// PrepareEvaluate claims the run-all slot and checks the session can be
// evaluated. The returned Operation runs the queue.
func (s *Service) PrepareEvaluate(ctx context.Context, id domain.ProjectID) (Operation, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return nil, err
	}
	if err := s.acquire(id, opRunAll); err != nil {
		return nil, err
	}
	cur, _ := s.current(id)
	if cur.Status != domain.StatusQuestionsReady && cur.Status != domain.StatusCompleted {
		s.release(id, opRunAll)
		return nil, fmt.Errorf("%w: cannot run questions while %s", domain.ErrInvalidTransition, cur.Status)
	}
	return func(ctx context.Context) (domain.Session, error) {
		defer s.release(id, opRunAll)
		return s.evaluate(ctx, id)
	}, nil
}

func (s *Service) evaluate(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	log := observability.LoggerFromContext(ctx).With().Str("project_id", string(id)).Logger()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	t := &task{cancel: cancel}
	s.mu.Lock()
	if e, ok := s.sessions[id]; ok {
		e.task = t
	}
	s.mu.Unlock()

	cur, err := s.apply(id, domain.EvaluationStarted{})
	if err != nil {
		return cur, err
	}

	var queue []string
	for _, r := range cur.Results {
		if !r.HasAnswer() {
			queue = append(queue, r.ID)
		}
	}
	log.Info().Int("queued", len(queue)).Int("total", len(cur.Results)).Msg("evaluation started")

	failed := 0
	for i, rid := range queue {
		if err := t.wait(runCtx); err != nil {
			return s.cancelled(ctx, id, err)
		}
		ok, err := s.ask(runCtx, id, rid, failures.PhaseRunAll)
		if runCtx.Err() != nil {
			return s.cancelled(ctx, id, runCtx.Err())
		}
		// rows deleted or started elsewhere meanwhile count as attempted
		if !ok && !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrBusy) {
			failed++
		}
		if i+1 < len(queue) {
			if cur, err = s.apply(id, domain.ProgressAdvanced{Done: i + 1, Total: len(queue)}); err != nil {
				return cur, err
			}
		}
	}

	if cur, err = s.apply(id, domain.EvaluationCompleted{}); err != nil {
		return cur, err
	}
	log.Info().Int("failed", failed).Int("score", cur.Stats().Score).Msg("evaluation completed")
	return s.checkMetrics(ctx, id)
}

func (s *Service) cancelled(ctx context.Context, id domain.ProjectID, cause error) (domain.Session, error) {
	observability.LoggerFromContext(ctx).Info().Str("project_id", string(id)).Msg("evaluation cancelled")
	cur, err := s.apply(id, domain.EvaluationCancelled{})
	if err != nil {
		return cur, err
	}
	return cur, cause
}

// RunSingle (re)asks one question with the given provider, or the row's own.
// The session status is left as is.
func (s *Service) RunSingle(ctx context.Context, id domain.ProjectID, resultID, provider string) (domain.Session, error) {
	cur, err := s.Session(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if s.Busy(id) == opAnalyze {
		return cur, fmt.Errorf("%w: analysis in progress", domain.ErrBusy)
	}
	if provider != "" {
		if !s.Assistants.Has(provider) {
			return cur, fmt.Errorf("%w: %q", assistant.ErrUnknownProvider, provider)
		}
		if cur, err = s.apply(id, domain.ProviderSelected{ID: resultID, Provider: provider}); err != nil {
			return cur, err
		}
	}
	if _, err := s.ask(ctx, id, resultID, failures.PhaseSingle); err != nil {
		cur, _ = s.current(id)
		return cur, err
	}
	cur, _ = s.current(id)
	return cur, nil
}

// ask runs one question through start → assistant → answered|failed.
// ok is false when the assistant call failed.
func (s *Service) ask(ctx context.Context, id domain.ProjectID, resultID string, phase failures.Phase) (bool, error) {
	cur, err := s.apply(id, domain.QuestionStarted{ID: resultID})
	if err != nil {
		return false, err
	}
	r, _ := cur.Find(resultID)
	provider := r.Provider
	if provider == "" {
		provider = cur.Provider
	}

	answer, err := s.Assistants.Ask(ctx, provider, assistant.AskRequest{
		Question:          r.Question,
		Nation:            cur.Nation,
		State:             cur.LocationState(),
		PromptQuestionsID: cur.PromptQuestionsID,
		CategoryID:        r.CategoryID,
		UUID:              r.UUID,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("project_id", string(id)).
			Str("result_id", resultID).
			Str("provider", provider).
			Msg("question evaluation failed")
		if ctx.Err() == nil {
			s.recordFailure(ctx, cur, phase, resultID, provider, err)
		}
		_, _ = s.apply(id, domain.QuestionFailed{ID: resultID})
		return false, err
	}
	if _, err := s.apply(id, domain.QuestionAnswered{ID: resultID, Answer: answer}); err != nil {
		return false, err
	}
	return true, nil
}

// Pause holds a running evaluation before its next question.
func (s *Service) Pause(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	t, err := s.runningTask(id)
	if err != nil {
		return domain.Session{}, err
	}
	if !t.pause() {
		cur, _ := s.current(id)
		return cur, nil
	}
	return s.apply(id, domain.EvaluationPaused{})
}

// Resume continues a paused evaluation.
func (s *Service) Resume(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	t, err := s.runningTask(id)
	if err != nil {
		return domain.Session{}, err
	}
	if !t.resume() {
		cur, _ := s.current(id)
		return cur, nil
	}
	return s.apply(id, domain.EvaluationResumed{})
}

// Cancel aborts a running evaluation. The run itself moves the session back
// to questions_ready once the in-flight call returns.
func (s *Service) Cancel(ctx context.Context, id domain.ProjectID) error {
	t, err := s.runningTask(id)
	if err != nil {
		return err
	}
	t.cancel()
	return nil
}

func (s *Service) runningTask(id domain.ProjectID) (*task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok || e.task == nil {
		return nil, fmt.Errorf("%w: no evaluation running", domain.ErrInvalidTransition)
	}
	return e.task, nil
}

// Forget drops a project's session, aborting any running evaluation. Used
// when the project itself is deleted.
func (s *Service) Forget(id domain.ProjectID) {
	var t *task
	s.mu.Lock()
	if e, ok := s.sessions[id]; ok {
		t = e.task
	}
	delete(s.sessions, id)
	s.mu.Unlock()
	if t != nil {
		t.cancel()
	}
}
