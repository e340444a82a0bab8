package evaluation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bryanwahyu/geo-authority/internal/application"
	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
	"github.com/bryanwahyu/geo-authority/internal/observability"
)

// Asker routes a question to a named assistant provider ("" = default).
type Asker interface {
	Ask(ctx context.Context, provider string, req assistant.AskRequest) (string, error)
	Has(provider string) bool
}

// MetricsSource is the metrics consumer as seen by the orchestrator.
type MetricsSource interface {
	CheckGenerated(ctx context.Context, promptQuestionID string) (*metrics.Snapshot, error)
	Recalculate(ctx context.Context, promptQuestionID string) (*metrics.Snapshot, error)
}

// Long operations; at most one runs per project.
const (
	opAnalyze = "analyze"
	opRunAll  = "run-all"
)

// Service owns one Session per project and drives the evaluation pipeline.
// Every session change goes through domain.Reduce under the service lock.
// Safe for concurrent use.
type Service struct {
	Projects   domain.ProjectSource
	Pipeline   domain.Pipeline
	Assistants Asker
	Metrics    MetricsSource       // optional
	Failures   failures.Repository // optional
	Clock      application.Clock
	Provider   string // default provider for new sessions

	// Observer, if set, sees every session state after a change.
	Observer func(domain.Session)

	mu       sync.Mutex
	sessions map[domain.ProjectID]*entry
}

type entry struct {
	session domain.Session
	op      string
	task    *task
}

// Input is the evaluation form. Empty domain/nation/state keep the
// session's current values.
type Input struct {
	Domain       string `json:"domain"`
	Nation       string `json:"nation"`
	State        string `json:"state"`
	QueryContext string `json:"queryContext"`
}

// Session returns the project's view-model, loading it on first use.
func (s *Service) Session(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	if sess, ok := s.current(id); ok {
		return sess, nil
	}
	return s.Load(ctx, id)
}

// Load (re)builds the session from the project and its stored question set.
func (s *Service) Load(ctx context.Context, id domain.ProjectID) (domain.Session, error) {
	log := observability.LoggerFromContext(ctx)

	p, err := s.Projects.GetProject(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load project %s: %w", id, err)
	}
	if p == nil {
		return domain.Session{}, fmt.Errorf("%w: project %s", domain.ErrNotFound, id)
	}
	sess := domain.NewSession(*p, s.Provider)

	pq, err := s.Projects.GetPromptQuestions(ctx, id)
	if err != nil {
		// a project without a readable question set still opens, just empty
		log.Warn().Err(err).Str("project_id", string(id)).Msg("failed to load prompt questions")
	} else if pq != nil {
		sess, err = domain.Reduce(sess, domain.Hydrated{Snapshot: pq})
		if err != nil {
			return domain.Session{}, err
		}
	}

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = map[domain.ProjectID]*entry{}
	}
	if e, ok := s.sessions[id]; ok && (e.op != "" || e.session.AnyLoading()) {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrBusy
	}
	s.sessions[id] = &entry{session: sess}
	s.mu.Unlock()
	s.notify(sess)

	if sess.Status == domain.StatusCompleted {
		return s.checkMetrics(ctx, id)
	}
	return sess, nil
}

// UpdateInput changes the form fields of an idle or settled session.
func (s *Service) UpdateInput(ctx context.Context, id domain.ProjectID, in Input) (domain.Session, error) {
	if _, err := s.Session(ctx, id); err != nil {
		return domain.Session{}, err
	}
	return s.update(id, func(cur domain.Session) domain.Event {
		return inputEvent(cur, in)
	})
}

// Operation is a long operation whose slot on the project is already
// claimed. It must be run exactly once; the slot is freed when it returns.
type Operation func(ctx context.Context) (domain.Session, error)

// Start validates the form, then analyzes the website and generates the
// question list. The session ends in questions_ready or error.
func (s *Service) Start(ctx context.Context, id domain.ProjectID, in Input) (domain.Session, error) {
	run, err := s.PrepareStart(ctx, id, in)
	if err != nil {
		cur, _ := s.current(id)
		return cur, err
	}
	return run(ctx)
}

// PrepareStart claims the analyze slot now, so a caller that queues the
// returned Operation knows it will not collide with another run.
func (s *Service) PrepareStart(ctx context.Context, id domain.ProjectID, in Input) (Operation, error) {
	cur, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.AnyLoading() {
		return nil, fmt.Errorf("%w: a question is running", domain.ErrBusy)
	}
	if err := s.acquire(id, opAnalyze); err != nil {
		return nil, err
	}
	return func(ctx context.Context) (domain.Session, error) {
		defer s.release(id, opAnalyze)
		return s.start(ctx, id, in)
	}, nil
}

func (s *Service) start(ctx context.Context, id domain.ProjectID, in Input) (domain.Session, error) {
	log := observability.LoggerFromContext(ctx).With().Str("project_id", string(id)).Logger()

	cur, err := s.update(id, func(c domain.Session) domain.Event { return inputEvent(c, in) })
	if err != nil {
		return cur, err
	}
	if cur.Domain == "" || cur.Nation == "" {
		cur, _ = s.apply(id, domain.InputRejected{Message: "Please enter a valid domain and nation."})
		return cur, fmt.Errorf("%w: domain and nation are required", domain.ErrInvalidInput)
	}

	if cur, err = s.apply(id, domain.AnalysisStarted{}); err != nil {
		return cur, err
	}
	res, err := s.Pipeline.Analyze(ctx, domain.AnalyzeRequest{
		Domain:       cur.Domain,
		Nation:       cur.Nation,
		State:        cur.LocationState(),
		QueryContext: cur.QueryContext,
		ProjectID:    id,
	})
	if err != nil {
		log.Error().Err(err).Str("domain", cur.Domain).Msg("website analysis failed")
		s.recordFailure(ctx, cur, failures.PhaseAnalyze, "", "", err)
		cur, _ = s.apply(id, domain.Failed{Message: err.Error()})
		return cur, err
	}
	if cur, err = s.apply(id, domain.AnalysisCompleted{Analysis: res.Analysis, PromptQuestionsID: res.PromptQuestionsID}); err != nil {
		return cur, err
	}

	qs, err := s.Pipeline.GenerateQuestions(ctx, domain.GenerateRequest{
		Analysis:          res.Analysis,
		Domain:            cur.Domain,
		Nation:            cur.Nation,
		State:             cur.LocationState(),
		PromptQuestionsID: cur.PromptQuestionsID,
	})
	if err != nil {
		log.Error().Err(err).Msg("question generation failed")
		s.recordFailure(ctx, cur, failures.PhaseGenerate, "", "", err)
		cur, _ = s.apply(id, domain.Failed{Message: err.Error()})
		return cur, err
	}
	cur, err = s.apply(id, domain.QuestionsGenerated{Questions: qs})
	if err != nil {
		return cur, err
	}
	log.Info().Str("brand", cur.BrandName()).Int("questions", len(qs)).Msg("questions ready")
	return cur, nil
}

func inputEvent(cur domain.Session, in Input) domain.Event {
	ev := domain.InputChanged{
		Domain:       cur.Domain,
		Nation:       cur.Nation,
		State:        cur.State,
		QueryContext: cur.QueryContext,
	}
	if strings.TrimSpace(in.Domain) != "" {
		ev.Domain = in.Domain
	}
	if strings.TrimSpace(in.Nation) != "" {
		ev.Nation = in.Nation
	}
	if strings.TrimSpace(in.State) != "" {
		ev.State = in.State
	}
	if in.QueryContext != "" {
		ev.QueryContext = in.QueryContext
	}
	return ev
}

// apply reduces one event into the stored session.
func (s *Service) apply(id domain.ProjectID, ev domain.Event) (domain.Session, error) {
	return s.update(id, func(domain.Session) domain.Event { return ev })
}

// update builds the event from the current session under the lock, so
// read-modify-write sequences are atomic.
func (s *Service) update(id domain.ProjectID, build func(domain.Session) domain.Event) (domain.Session, error) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return domain.Session{}, fmt.Errorf("%w: session %s not loaded", domain.ErrNotFound, id)
	}
	cur := e.session
	next, err := domain.Reduce(cur, build(cur))
	if err != nil {
		s.mu.Unlock()
		return cur, err
	}
	e.session = next
	s.mu.Unlock()
	s.notify(next)
	return next, nil
}

func (s *Service) notify(sess domain.Session) {
	if s.Observer != nil {
		s.Observer(sess)
	}
}

func (s *Service) acquire(id domain.ProjectID, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %s not loaded", domain.ErrNotFound, id)
	}
	if e.op != "" {
		return fmt.Errorf("%w: %s in progress", domain.ErrBusy, e.op)
	}
	e.op = op
	return nil
}

func (s *Service) release(id domain.ProjectID, op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok && e.op == op {
		e.op = ""
		e.task = nil
	}
}

func (s *Service) current(id domain.ProjectID) (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return e.session, true
}

// Busy reports the long operation active on a project, if any.
func (s *Service) Busy(id domain.ProjectID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[id]; ok {
		return e.op
	}
	return ""
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
