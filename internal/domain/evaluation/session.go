package evaluation

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/geo-authority/internal/domain/metrics"
)

// DefaultNation is used when a project has no nation set.
const DefaultNation = "USA"

// FallbackState is sent to collaborators when the project has no state.
const FallbackState = "across country"

// unavailableAnswer marks stored questions that were never answered.
const unavailableAnswer = "Not available yet"

// Session is the dashboard view-model of one project. It is a plain value:
// Reduce returns a new Session and never mutates the Results slice it got.
type Session struct {
	ProjectID          ProjectID         `json:"project_id"`
	Domain             string            `json:"domain"`
	Nation             string            `json:"nation"`
	State              string            `json:"state"`
	QueryContext       string            `json:"query_context"`
	Status             Status            `json:"status"`
	Analysis           *Analysis         `json:"analysis,omitempty"`
	Results            []Result          `json:"results"`
	Error              string            `json:"error,omitempty"`
	Progress           int               `json:"progress"`
	PromptQuestionsID  string            `json:"prompt_questions_id,omitempty"`
	Metrics            *metrics.Snapshot `json:"geo_metrics,omitempty"`
	MetricsChecked     bool              `json:"metrics_checked"`
	CalculatingMetrics bool              `json:"is_calculating_metrics"`
	MetricsDate        *time.Time        `json:"metrics_date,omitempty"`
	Provider           string            `json:"provider,omitempty"`
	Paused             bool              `json:"paused"`
}

// NewSession returns an idle session for a project.
func NewSession(p Project, provider string) Session {
	nation := p.Nation
	if nation == "" {
		nation = DefaultNation
	}
	return Session{
		ProjectID: p.ID,
		Domain:    NormalizeDomain(p.Domain),
		Nation:    nation,
		State:     p.State,
		Status:    StatusIdle,
		Results:   []Result{},
		Provider:  provider,
	}
}

// LocationState is the state value sent to collaborators.
func (s Session) LocationState() string {
	if s.State == "" {
		return FallbackState
	}
	return s.State
}

// Stats is the headline visibility figure.
type Stats struct {
	Score      int `json:"score"`
	FoundCount int `json:"found_count"`
	Total      int `json:"total"`
}

// Stats computes the visibility score over all rows.
func (s Session) Stats() Stats {
	total := len(s.Results)
	if total == 0 {
		return Stats{}
	}
	found := 0
	for _, r := range s.Results {
		if r.Found && r.HasAnswer() {
			found++
		}
	}
	return Stats{
		Score:      int(math.Round(float64(found) / float64(total) * 100)),
		FoundCount: found,
		Total:      total,
	}
}

// HasUnanswered reports rows still waiting for an answer.
func (s Session) HasUnanswered() bool {
	for _, r := range s.Results {
		if !r.HasAnswer() {
			return true
		}
	}
	return false
}

// AnyLoading reports a row with a call in flight.
func (s Session) AnyLoading() bool {
	for _, r := range s.Results {
		if r.Loading {
			return true
		}
	}
	return false
}

// CanExport: comprehensive export needs rows and a metrics snapshot.
func (s Session) CanExport() bool {
	return s.Status == StatusCompleted && len(s.Results) > 0 && !s.Metrics.Empty()
}

// Find returns the row with the given id.
func (s Session) Find(id string) (Result, bool) {
	for _, r := range s.Results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

// BrandName of the current analysis, empty before analysis.
func (s Session) BrandName() string {
	if s.Analysis == nil {
		return ""
	}
	return s.Analysis.BrandName
}

// TargetTerms are the strings highlighted as the operator's own brand.
func (s Session) TargetTerms() []string {
	var terms []string
	for _, t := range []string{s.BrandName(), s.Domain} {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// NormalizeDomain strips scheme and path and lowercases the host.
func NormalizeDomain(raw string) string {
	v := strings.TrimSpace(raw)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if u, err := url.Parse(v); err == nil && u.Host != "" {
			return strings.ToLower(u.Host)
		}
		v = v[strings.Index(v, "://")+3:]
	}
	if i := strings.Index(v, "/"); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(v)
}

// ResultsFromQuestions maps generated questions onto fresh dashboard rows.
func ResultsFromQuestions(qs []Question) []Result {
	out := make([]Result, 0, len(qs))
	for _, q := range qs {
		out = append(out, Result{
			ID:         q.ID,
			Category:   q.Category,
			CategoryID: q.CategoryID,
			UUID:       q.UUID,
			Question:   q.Text,
		})
	}
	return out
}

// ResultsFromSnapshot maps a stored question set onto dashboard rows.
func ResultsFromSnapshot(qna []QnA) []Result {
	out := make([]Result, 0, len(qna))
	for i, q := range qna {
		answer := q.Answer
		if answer == unavailableAnswer {
			answer = ""
		}
		category := q.CategoryName
		if category == "" {
			category = "General"
		}
		out = append(out, Result{
			ID:         "qna-" + strconv.Itoa(i),
			Category:   category,
			CategoryID: q.CategoryID,
			UUID:       q.UUID,
			Question:   q.Question,
			FullAnswer: answer,
			Found:      q.Capture && answer != "",
		})
	}
	return out
}

// EvaluationProgress is the run-all progress value after done of total rows.
func EvaluationProgress(done, total int) int {
	if total <= 0 {
		return 100
	}
	return 30 + int(math.Floor(float64(done)/float64(total)*70))
}
