package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS geo_exports (
  id              VARCHAR(64)  NOT NULL PRIMARY KEY,
  project_id      VARCHAR(64)  NOT NULL,
  variant         VARCHAR(32)  NOT NULL,
  filename        VARCHAR(255) NOT NULL,
  artifact_url    VARCHAR(1024) NOT NULL DEFAULT '-',
  visibility_rate INT          NOT NULL DEFAULT 0,
  total_questions INT          NOT NULL DEFAULT 0,
  created_at      DATETIME(3)  NOT NULL,
  KEY idx_geo_exports_project (project_id, created_at)
)`, `
CREATE TABLE IF NOT EXISTS geo_question_failures (
  id                  BIGINT AUTO_INCREMENT PRIMARY KEY,
  project_id          VARCHAR(64)  NOT NULL,
  prompt_questions_id VARCHAR(64)  NOT NULL DEFAULT '-',
  result_id           VARCHAR(128) NOT NULL DEFAULT '-',
  provider            VARCHAR(32)  NOT NULL DEFAULT '-',
  phase               VARCHAR(32)  NOT NULL,
  message             TEXT         NOT NULL,
  details_json        JSON         NOT NULL,
  created_at          DATETIME(3)  NOT NULL,
  KEY idx_geo_failures_project (project_id, created_at)
)`}

// Migrate creates the ledger tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
