package evaluation

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/geo-authority/internal/domain/matching"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

// Event is a single state change of a Session.
type Event interface {
	apply(s Session) (Session, error)
}

// Reduce applies ev to s. On error the original session is returned untouched.
func Reduce(s Session, ev Event) (Session, error) {
	next, err := ev.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

// InputChanged updates the evaluation form fields.
type InputChanged struct {
	Domain       string
	Nation       string
	State        string
	QueryContext string
}

func (e InputChanged) apply(s Session) (Session, error) {
	if s.Status.InFlight() {
		return s, ErrBusy
	}
	s.Domain = NormalizeDomain(e.Domain)
	s.Nation = strings.TrimSpace(e.Nation)
	s.State = strings.TrimSpace(e.State)
	s.QueryContext = e.QueryContext
	s.Error = ""
	return s, nil
}

// InputRejected surfaces a validation message without a status change.
type InputRejected struct{ Message string }

func (e InputRejected) apply(s Session) (Session, error) {
	s.Error = e.Message
	return s, nil
}

// Hydrated loads a stored question set into an idle session.
type Hydrated struct {
	Snapshot *PromptQuestions
}

func (e Hydrated) apply(s Session) (Session, error) {
	if s.Status != StatusIdle {
		return s, fmt.Errorf("%w: hydrate in %s", ErrInvalidTransition, s.Status)
	}
	pq := e.Snapshot
	if pq == nil || pq.Analysis == nil {
		return s, nil
	}
	if pq.WebsiteURL != "" {
		s.Domain = NormalizeDomain(pq.WebsiteURL)
	}
	if pq.Nation != "" {
		s.Nation = pq.Nation
	}
	if pq.State != "" {
		s.State = pq.State
	}
	if pq.Context != "" {
		s.QueryContext = pq.Context
	}
	s.Analysis = pq.Analysis
	s.PromptQuestionsID = pq.ID
	s.Results = ResultsFromSnapshot(pq.QnA)
	if len(s.Results) == 0 {
		return s, nil
	}
	to, progress := StatusCompleted, 100
	if s.HasUnanswered() {
		to, progress = StatusQuestionsReady, 30
	}
	if !CanHydrate(s.Status, to) {
		return s, fmt.Errorf("%w: hydrate %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	s.Status = to
	s.Progress = progress
	return s, nil
}

// AnalysisStarted resets the session for a fresh pipeline run.
type AnalysisStarted struct{}

func (AnalysisStarted) apply(s Session) (Session, error) {
	if err := transition(s.Status, StatusAnalyzing); err != nil {
		return s, err
	}
	s.Status = StatusAnalyzing
	s.Progress = 5
	s.Results = []Result{}
	s.Analysis = nil
	s.PromptQuestionsID = ""
	s.Error = ""
	s.Metrics = nil
	s.MetricsChecked = false
	s.MetricsDate = nil
	s.Paused = false
	return s, nil
}

// AnalysisCompleted stores the brand profile.
type AnalysisCompleted struct {
	Analysis          Analysis
	PromptQuestionsID string
}

func (e AnalysisCompleted) apply(s Session) (Session, error) {
	if err := transition(s.Status, StatusGenerating); err != nil {
		return s, err
	}
	a := e.Analysis
	s.Analysis = &a
	s.PromptQuestionsID = e.PromptQuestionsID
	s.Status = StatusGenerating
	s.Progress = 20
	return s, nil
}

// QuestionsGenerated replaces every row with the new question list.
type QuestionsGenerated struct {
	Questions []Question
}

func (e QuestionsGenerated) apply(s Session) (Session, error) {
	if err := step(s.Status, StatusGenerating, StatusQuestionsReady); err != nil {
		return s, err
	}
	s.Results = ResultsFromQuestions(e.Questions)
	s.Status = StatusQuestionsReady
	s.Progress = 30
	return s, nil
}

// Failed moves an in-flight session to error with a user-visible message.
type Failed struct{ Message string }

func (e Failed) apply(s Session) (Session, error) {
	if err := transition(s.Status, StatusError); err != nil {
		return s, err
	}
	msg := e.Message
	if msg == "" {
		msg = "An unexpected error occurred during analysis."
	}
	s.Status = StatusError
	s.Error = msg
	s.Results = mapResults(s.Results, func(r Result) Result { r.Loading = false; return r })
	return s, nil
}

// EvaluationStarted begins a sequential run over unanswered rows.
type EvaluationStarted struct{}

func (EvaluationStarted) apply(s Session) (Session, error) {
	if s.Analysis == nil {
		return s, ErrNoAnalysis
	}
	if len(s.Results) == 0 {
		return s, fmt.Errorf("%w: no questions to evaluate", ErrInvalidInput)
	}
	if err := transition(s.Status, StatusEvaluating); err != nil {
		return s, err
	}
	s.Status = StatusEvaluating
	s.Progress = 30
	s.Paused = false
	return s, nil
}

// ProgressAdvanced records done of total rows attempted. The final row is
// reported through EvaluationCompleted instead.
type ProgressAdvanced struct {
	Done  int
	Total int
}

func (e ProgressAdvanced) apply(s Session) (Session, error) {
	if s.Status != StatusEvaluating {
		return s, fmt.Errorf("%w: progress in %s", ErrInvalidTransition, s.Status)
	}
	if e.Total <= 0 || e.Done < 0 || e.Done >= e.Total {
		return s, fmt.Errorf("%w: progress %d/%d", ErrInvalidInput, e.Done, e.Total)
	}
	if p := EvaluationProgress(e.Done, e.Total); p > s.Progress {
		s.Progress = p
	}
	return s, nil
}

// EvaluationCompleted closes a run once every row was attempted.
type EvaluationCompleted struct{}

func (EvaluationCompleted) apply(s Session) (Session, error) {
	if err := step(s.Status, StatusEvaluating, StatusCompleted); err != nil {
		return s, err
	}
	s.Status = StatusCompleted
	s.Progress = 100
	s.Paused = false
	return s, nil
}

// EvaluationCancelled stops a run and keeps every answer gathered so far.
type EvaluationCancelled struct{}

func (EvaluationCancelled) apply(s Session) (Session, error) {
	if err := step(s.Status, StatusEvaluating, StatusQuestionsReady); err != nil {
		return s, err
	}
	s.Status = StatusQuestionsReady
	s.Paused = false
	s.Results = mapResults(s.Results, func(r Result) Result { r.Loading = false; return r })
	return s, nil
}

// EvaluationPaused / EvaluationResumed flip the pause flag of a running task.
type EvaluationPaused struct{}
type EvaluationResumed struct{}

func (EvaluationPaused) apply(s Session) (Session, error) {
	if s.Status != StatusEvaluating {
		return s, fmt.Errorf("%w: pause in %s", ErrInvalidTransition, s.Status)
	}
	s.Paused = true
	return s, nil
}

func (EvaluationResumed) apply(s Session) (Session, error) {
	if s.Status != StatusEvaluating {
		return s, fmt.Errorf("%w: resume in %s", ErrInvalidTransition, s.Status)
	}
	s.Paused = false
	return s, nil
}

// QuestionStarted marks a row as loading.
type QuestionStarted struct{ ID string }

func (e QuestionStarted) apply(s Session) (Session, error) {
	if s.Analysis == nil {
		return s, ErrNoAnalysis
	}
	r, ok := s.Find(e.ID)
	if !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	if r.Loading {
		return s, fmt.Errorf("%w: result %s is running", ErrBusy, e.ID)
	}
	s.Results = updateResult(s.Results, e.ID, func(r Result) Result { r.Loading = true; return r })
	return s, nil
}

// QuestionAnswered stores an answer and derives the found flag.
type QuestionAnswered struct {
	ID     string
	Answer string
}

func (e QuestionAnswered) apply(s Session) (Session, error) {
	if _, ok := s.Find(e.ID); !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	brand, domain := s.BrandName(), s.Domain
	s.Results = updateResult(s.Results, e.ID, func(r Result) Result {
		r.FullAnswer = e.Answer
		r.Found = matching.IsFound(e.Answer, brand, domain)
		r.Loading = false
		return r
	})
	return s, nil
}

// QuestionFailed clears the loading flag and leaves the row unanswered.
type QuestionFailed struct{ ID string }

func (e QuestionFailed) apply(s Session) (Session, error) {
	if _, ok := s.Find(e.ID); !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	s.Results = updateResult(s.Results, e.ID, func(r Result) Result { r.Loading = false; return r })
	return s, nil
}

// QuestionEdited replaces a row's text and drops its answer.
type QuestionEdited struct {
	ID   string
	Text string
}

func (e QuestionEdited) apply(s Session) (Session, error) {
	r, ok := s.Find(e.ID)
	if !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	if r.Loading {
		return s, fmt.Errorf("%w: result %s is running", ErrBusy, e.ID)
	}
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return s, fmt.Errorf("%w: question text is empty", ErrInvalidInput)
	}
	s.Results = updateResult(s.Results, e.ID, func(r Result) Result {
		r.Question = text
		r.FullAnswer = ""
		r.Found = false
		return r
	})
	return s, nil
}

// QuestionAdded appends a custom question row.
type QuestionAdded struct {
	ID           string
	Text         string
	CategoryID   string
	CategoryName string
	Provider     string
}

func (e QuestionAdded) apply(s Session) (Session, error) {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return s, fmt.Errorf("%w: question text is empty", ErrInvalidInput)
	}
	if _, dup := s.Find(e.ID); dup || e.ID == "" {
		return s, fmt.Errorf("%w: duplicate or empty id %q", ErrInvalidInput, e.ID)
	}
	category := e.CategoryName
	if category == "" {
		category = "Custom Question"
	}
	next := make([]Result, 0, len(s.Results)+1)
	next = append(next, s.Results...)
	next = append(next, Result{
		ID:         e.ID,
		Category:   category,
		CategoryID: e.CategoryID,
		Question:   text,
		Provider:   e.Provider,
	})
	s.Results = next
	return s, nil
}

// QuestionDeleted removes a row.
type QuestionDeleted struct{ ID string }

func (e QuestionDeleted) apply(s Session) (Session, error) {
	r, ok := s.Find(e.ID)
	if !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	if r.Loading {
		return s, fmt.Errorf("%w: result %s is running", ErrBusy, e.ID)
	}
	next := make([]Result, 0, len(s.Results))
	for _, r := range s.Results {
		if r.ID != e.ID {
			next = append(next, r)
		}
	}
	s.Results = next
	return s, nil
}

// ProviderSelected sets the assistant used for one row.
type ProviderSelected struct {
	ID       string
	Provider string
}

func (e ProviderSelected) apply(s Session) (Session, error) {
	if _, ok := s.Find(e.ID); !ok {
		return s, fmt.Errorf("%w: result %s", ErrNotFound, e.ID)
	}
	s.Results = updateResult(s.Results, e.ID, func(r Result) Result { r.Provider = e.Provider; return r })
	return s, nil
}

// MetricsChecked records the one-shot lookup of a stored snapshot.
// A nil snapshot means none was found or the lookup failed.
type MetricsChecked struct {
	Snapshot *metrics.Snapshot
}

func (e MetricsChecked) apply(s Session) (Session, error) {
	s.MetricsChecked = true
	if !e.Snapshot.Empty() {
		s = withMetrics(s, e.Snapshot)
	}
	return s, nil
}

// MetricsCalculationStarted flags a recalculation in flight.
type MetricsCalculationStarted struct{}

func (MetricsCalculationStarted) apply(s Session) (Session, error) {
	if s.PromptQuestionsID == "" {
		return s, fmt.Errorf("%w: no question set to calculate metrics for", ErrInvalidInput)
	}
	if s.CalculatingMetrics {
		return s, ErrBusy
	}
	s.CalculatingMetrics = true
	return s, nil
}

// MetricsCalculated replaces the held snapshot with a fresh one.
type MetricsCalculated struct {
	Snapshot *metrics.Snapshot
}

func (e MetricsCalculated) apply(s Session) (Session, error) {
	if e.Snapshot == nil {
		return s, fmt.Errorf("%w: nil metrics snapshot", ErrInvalidInput)
	}
	s.CalculatingMetrics = false
	s.MetricsChecked = true
	return withMetrics(s, e.Snapshot), nil
}

// MetricsCalculationFailed clears the in-flight flag; the old snapshot stays.
type MetricsCalculationFailed struct{}

func (MetricsCalculationFailed) apply(s Session) (Session, error) {
	s.CalculatingMetrics = false
	return s, nil
}

func withMetrics(s Session, snap *metrics.Snapshot) Session {
	s.Metrics = snap
	if !snap.CreatedAt.IsZero() {
		t := snap.CreatedAt
		s.MetricsDate = &t
	} else {
		s.MetricsDate = nil
	}
	return s
}

// updateResult returns a new slice with fn applied to the row with id.
func updateResult(in []Result, id string, fn func(Result) Result) []Result {
	return mapResults(in, func(r Result) Result {
		if r.ID == id {
			return fn(r)
		}
		return r
	})
}

func mapResults(in []Result, fn func(Result) Result) []Result {
	out := make([]Result, len(in))
	for i, r := range in {
		out[i] = fn(r)
	}
	return out
}
