package failures

import "time"

// Phase of the pipeline a failure happened in
type Phase string

const (
	PhaseAnalyze  Phase = "analyze"
	PhaseGenerate Phase = "generate"
	PhaseRunAll   Phase = "run-all"
	PhaseSingle   Phase = "single"
	PhaseMetrics  Phase = "metrics"
)

// QuestionFailure is a persisted failure of one collaborator call
type QuestionFailure struct {
	ID                int64     `json:"id"`
	ProjectID         string    `json:"project_id"`
	PromptQuestionsID string    `json:"prompt_questions_id,omitempty"`
	ResultID          string    `json:"result_id,omitempty"`
	Provider          string    `json:"provider,omitempty"`
	Phase             Phase     `json:"phase"`
	Message           string    `json:"message"`
	DetailsJSON       string    `json:"details_json,omitempty"` // raw JSON string
	CreatedAt         time.Time `json:"created_at"`
}
