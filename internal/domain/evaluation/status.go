package evaluation

import "fmt"

// Status enum
type Status string

const (
	StatusIdle           Status = "idle"
	StatusAnalyzing      Status = "analyzing"
	StatusGenerating     Status = "generating"
	StatusQuestionsReady Status = "questions_ready"
	StatusEvaluating     Status = "evaluating"
	StatusCompleted      Status = "completed"
	StatusError          Status = "error"
)

// transitions is the closed table of allowed status changes.
var transitions = map[Status][]Status{
	StatusIdle:           {StatusAnalyzing},
	StatusAnalyzing:      {StatusGenerating, StatusError},
	StatusGenerating:     {StatusQuestionsReady, StatusError},
	StatusQuestionsReady: {StatusEvaluating, StatusAnalyzing},
	StatusEvaluating:     {StatusCompleted, StatusQuestionsReady, StatusError},
	StatusCompleted:      {StatusEvaluating, StatusAnalyzing},
	StatusError:          {StatusAnalyzing},
}

// hydrations are the edges only a stored question set may take.
var hydrations = map[Status][]Status{
	StatusIdle: {StatusQuestionsReady, StatusCompleted},
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InFlight statuses block a new pipeline start.
func (s Status) InFlight() bool {
	switch s {
	case StatusAnalyzing, StatusGenerating, StatusEvaluating:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanHydrate reports whether a snapshot load may move from -> to.
func CanHydrate(from, to Status) bool {
	for _, s := range hydrations[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// step is transition for events that only fire from one source status.
func step(from, want, to Status) error {
	if from != want {
		return fmt.Errorf("%w: %s -> %s (needs %s)", ErrInvalidTransition, from, to, want)
	}
	return transition(from, to)
}
