package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bryanwahyu/geo-authority/internal/domain/exports"
)

type ExportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Save inserts an export record; re-saving the same id refreshes the artifact
func (r *ExportRepository) Save(ctx context.Context, e *exports.Export) error {
	const q = `
INSERT INTO geo_exports
  (id, project_id, variant, filename, artifact_url, visibility_rate, total_questions, created_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  artifact_url=VALUES(artifact_url), visibility_rate=VALUES(visibility_rate), total_questions=VALUES(total_questions);
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.ProjectID, stringOrDash(string(e.Variant)), e.Filename, stringOrDash(e.ArtifactURL),
		e.VisibilityRate, e.TotalQuestions, orNow(e.CreatedAt),
	)
	return err
}

// Paginate returns a page of exports ordered by created_at desc, plus the total
func (r *ExportRepository) Paginate(ctx context.Context, projectID string, page, pageSize int) ([]*exports.Export, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geo_exports WHERE project_id=?`, projectID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT id, project_id, variant, filename, artifact_url, visibility_rate, total_questions, created_at
FROM geo_exports
WHERE project_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, projectID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*exports.Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// LatestByProject returns nil, nil when the project was never exported
func (r *ExportRepository) LatestByProject(ctx context.Context, projectID string) (*exports.Export, error) {
	const q = `
SELECT id, project_id, variant, filename, artifact_url, visibility_rate, total_questions, created_at
FROM geo_exports
WHERE project_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	e, err := scanExport(r.db.QueryRowContext(ctx, q, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(s scanner) (*exports.Export, error) {
	var e exports.Export
	if err := s.Scan(&e.ID, &e.ProjectID, &e.Variant, &e.Filename, &e.ArtifactURL,
		&e.VisibilityRate, &e.TotalQuestions, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ArtifactURL = dashToEmpty(e.ArtifactURL)
	return &e, nil
}
