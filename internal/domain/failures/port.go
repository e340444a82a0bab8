package failures

import (
	"context"
)

// Repository defines persistence for collaborator failures
type Repository interface {
	Save(ctx context.Context, f *QuestionFailure) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]*QuestionFailure, error)
}
