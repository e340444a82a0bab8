package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS geo_exports (
  id              TEXT PRIMARY KEY,
  project_id      TEXT        NOT NULL,
  variant         TEXT        NOT NULL,
  filename        TEXT        NOT NULL,
  artifact_url    TEXT        NOT NULL DEFAULT '-',
  visibility_rate INTEGER     NOT NULL DEFAULT 0,
  total_questions INTEGER     NOT NULL DEFAULT 0,
  created_at      TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_geo_exports_project ON geo_exports (project_id, created_at DESC)`,
	`
CREATE TABLE IF NOT EXISTS geo_question_failures (
  id                  BIGSERIAL PRIMARY KEY,
  project_id          TEXT        NOT NULL,
  prompt_questions_id TEXT        NOT NULL DEFAULT '-',
  result_id           TEXT        NOT NULL DEFAULT '-',
  provider            TEXT        NOT NULL DEFAULT '-',
  phase               TEXT        NOT NULL,
  message             TEXT        NOT NULL,
  details_json        JSONB       NOT NULL DEFAULT '{}',
  created_at          TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_geo_failures_project ON geo_question_failures (project_id, created_at DESC)`,
}

// Migrate creates the ledger tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
