package evaluation

import "errors"

var (
	// ErrInvalidTransition is returned for status changes outside the table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBusy means another long operation is already running for the project.
	ErrBusy = errors.New("evaluation already in progress")
	// ErrNotFound covers unknown projects and unknown result ids.
	ErrNotFound = errors.New("not found")
	// ErrNoAnalysis: questions cannot be run before the brand profile exists.
	ErrNoAnalysis = errors.New("no analysis available, start an evaluation first")
	// ErrInvalidInput wraps operator input that fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
