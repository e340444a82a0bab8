package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

func readySession(t *testing.T, n int) Session {
	t.Helper()
	s := NewSession(Project{ID: "p1", Domain: "https://Acme.com/home", Nation: "USA", State: "TX"}, "chatgpt")
	var err error
	s, err = Reduce(s, AnalysisStarted{})
	require.NoError(t, err)
	s, err = Reduce(s, AnalysisCompleted{Analysis: Analysis{BrandName: "Acme"}, PromptQuestionsID: "pq1"})
	require.NoError(t, err)
	var qs []Question
	for i := 0; i < n; i++ {
		qs = append(qs, Question{ID: string(rune('a' + i)), Category: "Local", Text: "best plumber?"})
	}
	s, err = Reduce(s, QuestionsGenerated{Questions: qs})
	require.NoError(t, err)
	return s
}

func TestNewSession_NormalizesDomainAndDefaults(t *testing.T) {
	s := NewSession(Project{ID: "p1", Domain: "https://Acme.com/about"}, "chatgpt")
	assert.Equal(t, "acme.com", s.Domain)
	assert.Equal(t, DefaultNation, s.Nation)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, FallbackState, s.LocationState())
}

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"acme.com":              "acme.com",
		"HTTP://ACME.com/x/y":   "acme.com",
		"https://www.acme.com":  "www.acme.com",
		"acme.com/services?x=1": "acme.com",
		"  Acme.COM  ":          "acme.com",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDomain(in), in)
	}
}

func TestReduce_PipelineHappyPath(t *testing.T) {
	s := readySession(t, 2)
	assert.Equal(t, StatusQuestionsReady, s.Status)
	assert.Equal(t, 30, s.Progress)
	assert.Equal(t, "pq1", s.PromptQuestionsID)
	require.Len(t, s.Results, 2)

	s, err := Reduce(s, EvaluationStarted{})
	require.NoError(t, err)
	s, err = Reduce(s, QuestionStarted{ID: "a"})
	require.NoError(t, err)
	assert.True(t, s.Results[0].Loading)

	s, err = Reduce(s, QuestionAnswered{ID: "a", Answer: "We recommend Acme Plumbing for this job."})
	require.NoError(t, err)
	assert.True(t, s.Results[0].Found)
	assert.False(t, s.Results[0].Loading)

	s, err = Reduce(s, ProgressAdvanced{Done: 1, Total: 2})
	require.NoError(t, err)
	assert.Equal(t, 65, s.Progress)

	s, err = Reduce(s, QuestionStarted{ID: "b"})
	require.NoError(t, err)
	s, err = Reduce(s, QuestionAnswered{ID: "b", Answer: "We suggest Bob's Plumbing instead."})
	require.NoError(t, err)
	assert.False(t, s.Results[1].Found)

	s, err = Reduce(s, EvaluationCompleted{})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 100, s.Progress)
	assert.Equal(t, Stats{Score: 50, FoundCount: 1, Total: 2}, s.Stats())
}

func TestReduce_RejectsTransitionsOutsideTable(t *testing.T) {
	s := NewSession(Project{ID: "p1", Domain: "acme.com"}, "")

	_, err := Reduce(s, EvaluationCompleted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Reduce(s, AnalysisCompleted{Analysis: Analysis{BrandName: "Acme"}})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Reduce(s, Failed{Message: "boom"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ready := readySession(t, 1)
	_, err = Reduce(ready, ProgressAdvanced{Done: 0, Total: 1})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReduce_RunEventsNeedTheirSourceStatus(t *testing.T) {
	idle := NewSession(Project{ID: "p1", Domain: "acme.com", Nation: "USA"}, "")

	for name, ev := range map[string]Event{
		"completed": EvaluationCompleted{},
		"cancelled": EvaluationCancelled{},
		"generated": QuestionsGenerated{Questions: []Question{{ID: "q1", Text: "x"}}},
	} {
		got, err := Reduce(idle, ev)
		assert.ErrorIs(t, err, ErrInvalidTransition, name)
		assert.Equal(t, StatusIdle, got.Status, name)
		assert.Equal(t, idle.Progress, got.Progress, name)
	}

	// generating never jumps straight to evaluating
	s, err := Reduce(idle, AnalysisStarted{})
	require.NoError(t, err)
	s, err = Reduce(s, AnalysisCompleted{Analysis: Analysis{BrandName: "Acme"}})
	require.NoError(t, err)
	s.Results = ResultsFromQuestions([]Question{{ID: "q1", Text: "x"}})
	_, err = Reduce(s, EvaluationStarted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// a settled session cannot be cancelled or completed again
	ready := readySession(t, 1)
	_, err = Reduce(ready, EvaluationCancelled{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = Reduce(ready, EvaluationCompleted{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionTables(t *testing.T) {
	assert.False(t, CanTransition(StatusIdle, StatusQuestionsReady))
	assert.False(t, CanTransition(StatusIdle, StatusCompleted))
	assert.False(t, CanTransition(StatusGenerating, StatusEvaluating))
	assert.True(t, CanHydrate(StatusIdle, StatusQuestionsReady))
	assert.True(t, CanHydrate(StatusIdle, StatusCompleted))
	assert.False(t, CanHydrate(StatusError, StatusCompleted))
}

func TestReduce_ErrorLeavesSessionUntouched(t *testing.T) {
	s := readySession(t, 1)
	before := s
	got, err := Reduce(s, QuestionEdited{ID: "missing", Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, got)
}

func TestReduce_CopyOnWrite(t *testing.T) {
	s := readySession(t, 2)
	original := s.Results

	next, err := Reduce(s, QuestionEdited{ID: "a", Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "best plumber?", original[0].Question)
	assert.Equal(t, "edited", next.Results[0].Question)
}

func TestReduce_FailureSurfacesMessage(t *testing.T) {
	s := NewSession(Project{ID: "p1", Domain: "acme.com"}, "")
	s, err := Reduce(s, AnalysisStarted{})
	require.NoError(t, err)
	s, err = Reduce(s, Failed{Message: "Domain not reachable"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "Domain not reachable", s.Error)

	s, err = Reduce(s, AnalysisStarted{})
	require.NoError(t, err)
	assert.Empty(t, s.Error)
}

func TestReduce_EditAddDelete(t *testing.T) {
	s := readySession(t, 2)
	s, err := Reduce(s, EvaluationStarted{})
	require.NoError(t, err)
	s, err = Reduce(s, QuestionAnswered{ID: "a", Answer: "Acme is great"})
	require.NoError(t, err)

	s, err = Reduce(s, QuestionEdited{ID: "a", Text: "  who fixes pipes?  "})
	require.NoError(t, err)
	r, _ := s.Find("a")
	assert.Equal(t, "who fixes pipes?", r.Question)
	assert.Empty(t, r.FullAnswer)
	assert.False(t, r.Found)
	assert.Equal(t, "pending", r.Outcome())

	s, err = Reduce(s, QuestionAdded{ID: "custom-1", Text: "emergency plumber near me"})
	require.NoError(t, err)
	added, ok := s.Find("custom-1")
	require.True(t, ok)
	assert.Equal(t, "Custom Question", added.Category)

	_, err = Reduce(s, QuestionAdded{ID: "custom-1", Text: "dup"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = Reduce(s, QuestionAdded{ID: "custom-2", Text: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	s, err = Reduce(s, QuestionDeleted{ID: "b"})
	require.NoError(t, err)
	assert.Len(t, s.Results, 2)
	_, ok = s.Find("b")
	assert.False(t, ok)
}

func TestReduce_LoadingRowsAreLocked(t *testing.T) {
	s := readySession(t, 1)
	s, err := Reduce(s, QuestionStarted{ID: "a"})
	require.NoError(t, err)

	_, err = Reduce(s, QuestionStarted{ID: "a"})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = Reduce(s, QuestionDeleted{ID: "a"})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = Reduce(s, QuestionEdited{ID: "a", Text: "x"})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestReduce_CancelKeepsAnswers(t *testing.T) {
	s := readySession(t, 2)
	s, _ = Reduce(s, EvaluationStarted{})
	s, _ = Reduce(s, QuestionAnswered{ID: "a", Answer: "Acme"})
	s, _ = Reduce(s, QuestionStarted{ID: "b"})

	s, err := Reduce(s, EvaluationCancelled{})
	require.NoError(t, err)
	assert.Equal(t, StatusQuestionsReady, s.Status)
	assert.Equal(t, "Acme", s.Results[0].FullAnswer)
	assert.False(t, s.AnyLoading())
}

func TestReduce_PauseResume(t *testing.T) {
	s := readySession(t, 1)
	_, err := Reduce(s, EvaluationPaused{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, _ = Reduce(s, EvaluationStarted{})
	s, err = Reduce(s, EvaluationPaused{})
	require.NoError(t, err)
	assert.True(t, s.Paused)
	s, err = Reduce(s, EvaluationResumed{})
	require.NoError(t, err)
	assert.False(t, s.Paused)
}

func TestReduce_Hydrated(t *testing.T) {
	s := NewSession(Project{ID: "p1", Domain: "old.com", Nation: "USA"}, "")
	pq := &PromptQuestions{
		ID:         "pq9",
		WebsiteURL: "acme.com",
		State:      "TX",
		Context:    "plumbing",
		Analysis:   &Analysis{BrandName: "Acme"},
		QnA: []QnA{
			{UUID: "u1", CategoryName: "Local", Question: "q1", Answer: "Acme rocks", Capture: true},
			{UUID: "u2", Question: "q2", Answer: "Not available yet", Capture: true},
		},
	}
	s, err := Reduce(s, Hydrated{Snapshot: pq})
	require.NoError(t, err)
	assert.Equal(t, StatusQuestionsReady, s.Status)
	assert.Equal(t, "acme.com", s.Domain)
	assert.Equal(t, "pq9", s.PromptQuestionsID)
	require.Len(t, s.Results, 2)
	assert.Equal(t, "qna-0", s.Results[0].ID)
	assert.True(t, s.Results[0].Found)
	assert.Equal(t, "General", s.Results[1].Category)
	assert.Empty(t, s.Results[1].FullAnswer)
	assert.False(t, s.Results[1].Found)

	pq.QnA = pq.QnA[:1]
	done, err := Reduce(NewSession(Project{ID: "p1"}, ""), Hydrated{Snapshot: pq})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
}

func TestReduce_Metrics(t *testing.T) {
	s := readySession(t, 1)

	s, err := Reduce(s, MetricsChecked{Snapshot: &metrics.Snapshot{}})
	require.NoError(t, err)
	assert.True(t, s.MetricsChecked)
	assert.Nil(t, s.Metrics)

	s, err = Reduce(s, MetricsCalculationStarted{})
	require.NoError(t, err)
	_, err = Reduce(s, MetricsCalculationStarted{})
	assert.ErrorIs(t, err, ErrBusy)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err = Reduce(s, MetricsCalculated{Snapshot: &metrics.Snapshot{BrandName: "Acme", TotalPrompts: 1, CreatedAt: at}})
	require.NoError(t, err)
	assert.False(t, s.CalculatingMetrics)
	require.NotNil(t, s.MetricsDate)
	assert.Equal(t, at, *s.MetricsDate)
}

func TestEvaluationProgress(t *testing.T) {
	assert.Equal(t, 30, EvaluationProgress(0, 5))
	assert.Equal(t, 44, EvaluationProgress(1, 5))
	assert.Equal(t, 100, EvaluationProgress(5, 5))
	assert.Equal(t, 53, EvaluationProgress(1, 3))
}
