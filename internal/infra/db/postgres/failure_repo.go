package postgres

import (
	"context"
	"database/sql"

	"github.com/bryanwahyu/geo-authority/internal/domain/failures"
)

type QuestionFailureRepository struct {
	db *sql.DB
}

func NewQuestionFailureRepository(db *sql.DB) *QuestionFailureRepository {
	return &QuestionFailureRepository{db: db}
}

func (r *QuestionFailureRepository) Save(ctx context.Context, f *failures.QuestionFailure) error {
	const q = `
INSERT INTO geo_question_failures
  (project_id, prompt_questions_id, result_id, provider, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(f.ProjectID), stringOrDash(f.PromptQuestionsID), stringOrDash(f.ResultID),
		stringOrDash(f.Provider), stringOrDash(string(f.Phase)), stringOrDash(f.Message),
		validJSON(f.DetailsJSON), orNow(f.CreatedAt),
	).Scan(&f.ID)
}

func (r *QuestionFailureRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*failures.QuestionFailure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, project_id, prompt_questions_id, result_id, provider, phase, message, details_json::text, created_at
FROM geo_question_failures
WHERE project_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*failures.QuestionFailure
	for rows.Next() {
		var f failures.QuestionFailure
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.PromptQuestionsID, &f.ResultID, &f.Provider,
			&f.Phase, &f.Message, &f.DetailsJSON, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.PromptQuestionsID = dashToEmpty(f.PromptQuestionsID)
		f.ResultID = dashToEmpty(f.ResultID)
		f.Provider = dashToEmpty(f.Provider)
		out = append(out, &f)
	}
	return out, rows.Err()
}
