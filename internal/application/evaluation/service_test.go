package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/geo-authority/internal/domain/assistant"
	domain "github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeProjects struct {
	project *domain.Project
	pq      *domain.PromptQuestions
	pqErr   error
}

func (f *fakeProjects) GetProject(_ context.Context, id domain.ProjectID) (*domain.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, nil
	}
	p := *f.project
	return &p, nil
}

func (f *fakeProjects) GetPromptQuestions(context.Context, domain.ProjectID) (*domain.PromptQuestions, error) {
	return f.pq, f.pqErr
}

type fakePipeline struct {
	analyzeErr error
	questions  []domain.Question
	gotAnalyze domain.AnalyzeRequest
	// block, if set, holds Analyze until closed
	block chan struct{}
}

func (f *fakePipeline) Analyze(_ context.Context, req domain.AnalyzeRequest) (domain.AnalyzeResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.gotAnalyze = req
	if f.analyzeErr != nil {
		return domain.AnalyzeResult{}, f.analyzeErr
	}
	return domain.AnalyzeResult{Analysis: domain.Analysis{BrandName: "Acme", Niche: "plumbing"}, PromptQuestionsID: "pq1"}, nil
}

func (f *fakePipeline) GenerateQuestions(context.Context, domain.GenerateRequest) ([]domain.Question, error) {
	return f.questions, nil
}

// scriptedAsker answers call n (1-based) with script(n, req).
type scriptedAsker struct {
	mu     sync.Mutex
	calls  []assistant.AskRequest
	used   []string
	script func(ctx context.Context, n int, req assistant.AskRequest) (string, error)
}

func (a *scriptedAsker) Ask(ctx context.Context, provider string, req assistant.AskRequest) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, req)
	a.used = append(a.used, provider)
	n := len(a.calls)
	a.mu.Unlock()
	return a.script(ctx, n, req)
}

func (a *scriptedAsker) Has(p string) bool { return p == "chatgpt" || p == "gemini" }

func (a *scriptedAsker) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type fakeMetrics struct {
	generated *metrics.Snapshot
	genErr    error
	calcErr   error
	checks    int
}

func (f *fakeMetrics) CheckGenerated(context.Context, string) (*metrics.Snapshot, error) {
	f.checks++
	return f.generated, f.genErr
}

func (f *fakeMetrics) Recalculate(_ context.Context, qsid string) (*metrics.Snapshot, error) {
	if f.calcErr != nil {
		return nil, f.calcErr
	}
	return &metrics.Snapshot{PromptQuestionID: qsid, BrandName: "Acme", TotalPrompts: 5, CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}, nil
}

type memFailures struct {
	mu    sync.Mutex
	saved []*failures.QuestionFailure
}

func (m *memFailures) Save(_ context.Context, f *failures.QuestionFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, f)
	return nil
}

func (m *memFailures) ListByProject(context.Context, string, int) ([]*failures.QuestionFailure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved, nil
}

func questions(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{ID: fmt.Sprintf("q%d", i+1), Category: "Local", Text: fmt.Sprintf("question %d", i+1)}
	}
	return qs
}

type harness struct {
	svc      *Service
	pipeline *fakePipeline
	asker    *scriptedAsker
	metrics  *fakeMetrics
	failures *memFailures
	projects *fakeProjects

	mu      sync.Mutex
	history []domain.Session
}

func newHarness(n int, script func(ctx context.Context, n int, req assistant.AskRequest) (string, error)) *harness {
	h := &harness{
		pipeline: &fakePipeline{questions: questions(n)},
		asker:    &scriptedAsker{script: script},
		metrics:  &fakeMetrics{},
		failures: &memFailures{},
		projects: &fakeProjects{project: &domain.Project{ID: "p1", CompanyID: "c1", Domain: "https://Acme.com/about", Nation: "USA"}},
	}
	h.svc = &Service{
		Projects:   h.projects,
		Pipeline:   h.pipeline,
		Assistants: h.asker,
		Metrics:    h.metrics,
		Failures:   h.failures,
		Clock:      fixedClock{time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)},
		Provider:   "chatgpt",
		Observer: func(s domain.Session) {
			h.mu.Lock()
			h.history = append(h.history, s)
			h.mu.Unlock()
		},
	}
	return h
}

func (h *harness) snapshots() []domain.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Session(nil), h.history...)
}

func answerAll(_ context.Context, n int, req assistant.AskRequest) (string, error) {
	return "Acme Plumbing is the best for " + req.Question, nil
}

func TestStartReachesQuestionsReady(t *testing.T) {
	h := newHarness(3, answerAll)
	ctx := context.Background()

	sess, err := h.svc.Start(ctx, "p1", Input{QueryContext: "emergency repairs"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuestionsReady, sess.Status)
	assert.Equal(t, 30, sess.Progress)
	assert.Equal(t, "Acme", sess.BrandName())
	assert.Equal(t, "pq1", sess.PromptQuestionsID)
	require.Len(t, sess.Results, 3)

	assert.Equal(t, "acme.com", h.pipeline.gotAnalyze.Domain)
	assert.Equal(t, domain.FallbackState, h.pipeline.gotAnalyze.State)
	assert.Equal(t, "emergency repairs", h.pipeline.gotAnalyze.QueryContext)

	var progress []int
	for _, s := range h.snapshots() {
		progress = append(progress, s.Progress)
	}
	assert.Subset(t, progress, []int{5, 20, 30})
	assert.Empty(t, h.svc.Busy("p1"))
}

func TestStartRejectsMissingDomain(t *testing.T) {
	h := newHarness(1, answerAll)
	h.projects.project.Domain = ""

	sess, err := h.svc.Start(context.Background(), "p1", Input{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "Please enter a valid domain and nation.", sess.Error)
	assert.Equal(t, domain.StatusIdle, sess.Status)
}

func TestStartAnalyzeFailure(t *testing.T) {
	h := newHarness(1, answerAll)
	h.pipeline.analyzeErr = errors.New("Domain unreachable")

	sess, err := h.svc.Start(context.Background(), "p1", Input{})
	require.Error(t, err)
	assert.Equal(t, domain.StatusError, sess.Status)
	assert.Equal(t, "Domain unreachable", sess.Error)

	require.Len(t, h.failures.saved, 1)
	assert.Equal(t, failures.PhaseAnalyze, h.failures.saved[0].Phase)

	// error → analyzing is allowed, so the operator can retry
	h.pipeline.analyzeErr = nil
	sess, err = h.svc.Start(context.Background(), "p1", Input{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuestionsReady, sess.Status)
	assert.Empty(t, sess.Error)
}

func TestEvaluateContinuesPastFailures(t *testing.T) {
	h := newHarness(5, func(_ context.Context, n int, req assistant.AskRequest) (string, error) {
		switch n {
		case 1:
			return "We recommend Acme Plumbing.", nil
		case 3:
			return "Try Bob's Plumbing.", nil
		}
		return "", errors.New("upstream timeout")
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	sess, err := h.svc.Evaluate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, 100, sess.Progress)

	answered, empty := 0, 0
	for _, r := range sess.Results {
		assert.False(t, r.Loading)
		if r.HasAnswer() {
			answered++
		} else {
			empty++
			assert.False(t, r.Found)
		}
	}
	assert.Equal(t, 2, answered)
	assert.Equal(t, 3, empty)
	assert.True(t, sess.Results[0].Found)
	assert.False(t, sess.Results[2].Found)

	assert.Equal(t, 5, h.asker.count())
	assert.Len(t, h.failures.saved, 3)
	for _, f := range h.failures.saved {
		assert.Equal(t, failures.PhaseRunAll, f.Phase)
		assert.Equal(t, "pq1", f.PromptQuestionsID)
	}
	assert.True(t, sess.MetricsChecked)
	assert.Equal(t, 1, h.metrics.checks)
}

func TestEvaluateProgressMonotonic(t *testing.T) {
	h := newHarness(7, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)
	_, err = h.svc.Evaluate(ctx, "p1")
	require.NoError(t, err)

	started := false
	last := 0
	for _, s := range h.snapshots() {
		if s.Status == domain.StatusEvaluating {
			started = true
		}
		if !started {
			continue
		}
		assert.GreaterOrEqual(t, s.Progress, last)
		last = s.Progress
		if s.Progress == 100 {
			assert.Equal(t, domain.StatusCompleted, s.Status)
		}
	}
	assert.Equal(t, 100, last)
}

func TestEvaluateSkipsAnsweredRows(t *testing.T) {
	h := newHarness(3, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	_, err = h.svc.RunSingle(ctx, "p1", "q2", "gemini")
	require.NoError(t, err)
	require.Equal(t, 1, h.asker.count())

	sess, err := h.svc.Evaluate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, h.asker.count())
	assert.Equal(t, []string{"question 1", "question 3"}, []string{h.asker.calls[1].Question, h.asker.calls[2].Question})
	assert.Equal(t, []string{"gemini", "chatgpt", "chatgpt"}, h.asker.used)
	assert.Equal(t, domain.StatusCompleted, sess.Status)
}

func TestEvaluateRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(2, func(ctx context.Context, n int, req assistant.AskRequest) (string, error) {
		<-release
		return "Acme", nil
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Evaluate(ctx, "p1")
		done <- err
	}()
	require.Eventually(t, func() bool { return h.asker.count() == 1 }, time.Second, 5*time.Millisecond)

	_, err = h.svc.Evaluate(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrBusy)
	_, err = h.svc.Start(ctx, "p1", Input{})
	assert.ErrorIs(t, err, domain.ErrBusy)
	_, err = h.svc.UpdateInput(ctx, "p1", Input{Domain: "other.com"})
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(release)
	require.NoError(t, <-done)
}

func TestPauseResume(t *testing.T) {
	first := make(chan struct{})
	h := newHarness(3, func(ctx context.Context, n int, req assistant.AskRequest) (string, error) {
		if n == 1 {
			<-first
		}
		return "Acme", nil
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Evaluate(ctx, "p1")
		done <- err
	}()
	require.Eventually(t, func() bool { return h.asker.count() == 1 }, time.Second, 5*time.Millisecond)

	sess, err := h.svc.Pause(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, sess.Paused)
	close(first)

	// the queue holds after the in-flight question
	require.Eventually(t, func() bool {
		s, _ := h.svc.Session(ctx, "p1")
		return s.Results[0].HasAnswer()
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, h.asker.count())

	sess, err = h.svc.Resume(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, sess.Paused)

	require.NoError(t, <-done)
	sess, _ = h.svc.Session(ctx, "p1")
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, 3, h.asker.count())
}

func TestCancelKeepsAnswers(t *testing.T) {
	h := newHarness(3, func(ctx context.Context, n int, req assistant.AskRequest) (string, error) {
		if n == 2 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "Acme", nil
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Evaluate(ctx, "p1")
		done <- err
	}()
	require.Eventually(t, func() bool { return h.asker.count() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.svc.Cancel(ctx, "p1"))
	assert.ErrorIs(t, <-done, context.Canceled)

	sess, _ := h.svc.Session(ctx, "p1")
	assert.Equal(t, domain.StatusQuestionsReady, sess.Status)
	assert.True(t, sess.Results[0].HasAnswer())
	assert.False(t, sess.AnyLoading())
	assert.Empty(t, h.failures.saved)
	assert.Empty(t, h.svc.Busy("p1"))

	assert.ErrorIs(t, h.svc.Cancel(ctx, "p1"), domain.ErrInvalidTransition)
}

func TestLoadHydratesAndChecksMetrics(t *testing.T) {
	h := newHarness(0, answerAll)
	h.projects.pq = &domain.PromptQuestions{
		ID:       "pq9",
		Nation:   "USA",
		State:    "TX",
		Analysis: &domain.Analysis{BrandName: "Acme"},
		QnA: []domain.QnA{
			{UUID: "u1", CategoryName: "Local", Question: "Best?", Answer: "Acme", Capture: true},
			{UUID: "u2", Question: "Cheap?", Answer: "Bob", Capture: false},
		},
	}
	h.metrics.generated = &metrics.Snapshot{BrandName: "Acme", TotalPrompts: 2, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	sess, err := h.svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Equal(t, "TX", sess.State)
	require.Len(t, sess.Results, 2)
	assert.Equal(t, "qna-1", sess.Results[1].ID)
	assert.Equal(t, "General", sess.Results[1].Category)
	assert.True(t, sess.MetricsChecked)
	require.NotNil(t, sess.Metrics)
	require.NotNil(t, sess.MetricsDate)
	assert.True(t, sess.CanExport())
}

func TestLoadSurvivesPromptQuestionError(t *testing.T) {
	h := newHarness(0, answerAll)
	h.projects.pqErr = errors.New("backend down")

	sess, err := h.svc.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, sess.Status)
	assert.Equal(t, "acme.com", sess.Domain)

	_, err = h.svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetricsLookupFailureLeavesMetricsAbsent(t *testing.T) {
	h := newHarness(1, answerAll)
	h.metrics.genErr = errors.New("boom")
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	sess, err := h.svc.Evaluate(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, sess.MetricsChecked)
	assert.Nil(t, sess.Metrics)
	assert.False(t, sess.CanExport())
}

func TestRecalculateMetrics(t *testing.T) {
	h := newHarness(1, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	sess, err := h.svc.RecalculateMetrics(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, sess.Metrics)
	assert.Equal(t, "pq1", sess.Metrics.PromptQuestionID)
	assert.False(t, sess.CalculatingMetrics)
	assert.Equal(t, 2026, sess.MetricsDate.Year())

	h.metrics.calcErr = errors.New("nope")
	sess, err = h.svc.RecalculateMetrics(ctx, "p1")
	require.Error(t, err)
	assert.False(t, sess.CalculatingMetrics)
	assert.NotNil(t, sess.Metrics)
	require.Len(t, h.failures.saved, 1)
	assert.Equal(t, failures.PhaseMetrics, h.failures.saved[0].Phase)
}

func TestQuestionEditing(t *testing.T) {
	h := newHarness(2, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	sess, rid, err := h.svc.AddQuestion(ctx, "p1", NewQuestion{Text: "Who is open on Sunday?"})
	require.NoError(t, err)
	assert.Regexp(t, `^custom-[0-9a-f-]{36}$`, rid)
	require.Len(t, sess.Results, 3)
	assert.Equal(t, "Custom Question", sess.Results[2].Category)

	_, _, err = h.svc.AddQuestion(ctx, "p1", NewQuestion{Text: "x", Provider: "bard"})
	assert.ErrorIs(t, err, assistant.ErrUnknownProvider)

	_, err = h.svc.RunSingle(ctx, "p1", rid, "")
	require.NoError(t, err)
	sess, err = h.svc.EditQuestion(ctx, "p1", rid, "Who is open on Monday?")
	require.NoError(t, err)
	r, _ := sess.Find(rid)
	assert.Empty(t, r.FullAnswer)

	sess, err = h.svc.DeleteQuestion(ctx, "p1", "q1")
	require.NoError(t, err)
	assert.Len(t, sess.Results, 2)

	_, err = h.svc.DeleteQuestion(ctx, "p1", "q1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHighlight(t *testing.T) {
	h := newHarness(1, func(context.Context, int, assistant.AskRequest) (string, error) {
		return "Call Acme or visit yelp.com", nil
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)
	_, err = h.svc.RunSingle(ctx, "p1", "q1", "")
	require.NoError(t, err)

	toks, err := h.svc.Highlight(ctx, "p1", "q1")
	require.NoError(t, err)
	var kinds []string
	for _, tk := range toks {
		if tk.Text != " " {
			kinds = append(kinds, string(tk.Kind))
		}
	}
	assert.Equal(t, []string{"plain", "target", "plain", "plain", "external-link"}, kinds)

	_, err = h.svc.Highlight(ctx, "p1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForgetDropsSession(t *testing.T) {
	h := newHarness(2, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	h.svc.Forget("p1")

	// the next read starts over from the project
	sess, err := h.svc.Session(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, sess.Status)
	assert.Empty(t, sess.Results)
}

func TestUpdateInputKeepsUnsetFields(t *testing.T) {
	h := newHarness(1, answerAll)
	ctx := context.Background()

	sess, err := h.svc.UpdateInput(ctx, "p1", Input{Domain: "HTTPS://www.Other.com/x", State: " TX "})
	require.NoError(t, err)
	assert.Equal(t, "www.other.com", sess.Domain)
	assert.Equal(t, "USA", sess.Nation)
	assert.Equal(t, "TX", sess.State)

	sess, err = h.svc.UpdateInput(ctx, "p1", Input{QueryContext: "24/7"})
	require.NoError(t, err)
	assert.Equal(t, "www.other.com", sess.Domain)
	assert.Equal(t, "24/7", sess.QueryContext)
}

func TestFailureLog(t *testing.T) {
	h := newHarness(2, func(context.Context, int, assistant.AskRequest) (string, error) {
		return "", errors.New("rate limited upstream")
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)
	_, err = h.svc.RunSingle(ctx, "p1", "q1", "")
	require.Error(t, err)

	log, err := h.svc.FailureLog(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, failures.PhaseSingle, log[0].Phase)

	h.svc.Failures = nil
	log, err = h.svc.FailureLog(ctx, "p1", 10)
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Empty(t, log)
}

func TestSessionPollingDuringRun(t *testing.T) {
	h := newHarness(20, answerAll)
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Evaluate(ctx, "p1")
		done <- err
	}()

	last := 0
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			sess, err := h.svc.Session(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, sess.Status)
			assert.Equal(t, 100, sess.Progress)
			return
		default:
		}
		sess, err := h.svc.Session(ctx, "p1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sess.Progress, last)
		last = sess.Progress
		_ = h.svc.Busy("p1")
	}
}

func TestForgetDuringRun(t *testing.T) {
	h := newHarness(2, func(ctx context.Context, n int, req assistant.AskRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx := context.Background()
	_, err := h.svc.Start(ctx, "p1", Input{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.Evaluate(ctx, "p1")
		done <- err
	}()
	require.Eventually(t, func() bool { return h.asker.count() == 1 }, time.Second, 5*time.Millisecond)

	h.svc.Forget("p1")

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after Forget")
	}
	assert.Equal(t, 1, h.asker.count())
}

func TestPrepareClaimsSlotBeforeRun(t *testing.T) {
	h := newHarness(2, answerAll)
	ctx := context.Background()

	_, err := h.svc.PrepareEvaluate(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, h.svc.Busy("p1"))

	run, err := h.svc.PrepareStart(ctx, "p1", Input{})
	require.NoError(t, err)
	assert.Equal(t, "analyze", h.svc.Busy("p1"))

	// a second claim is refused while the first is still queued
	_, err = h.svc.PrepareStart(ctx, "p1", Input{})
	assert.ErrorIs(t, err, domain.ErrBusy)
	_, err = h.svc.Start(ctx, "p1", Input{})
	assert.ErrorIs(t, err, domain.ErrBusy)

	sess, err := run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuestionsReady, sess.Status)
	assert.Empty(t, h.svc.Busy("p1"))

	run, err = h.svc.PrepareEvaluate(ctx, "p1")
	require.NoError(t, err)
	_, err = h.svc.PrepareEvaluate(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrBusy)
	sess, err = run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, sess.Status)
	assert.Empty(t, h.svc.Busy("p1"))
}
