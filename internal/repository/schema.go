package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/ballooning/constants"
)

const (
	tableDocuments  = "documents"
	tableDimensions = "dimensions"
)

// Column types stay within what both SQLite and Postgres accept. Timestamps
// are unix milliseconds.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
	id              TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	source_path     TEXT NOT NULL,
	content_hash    TEXT NOT NULL UNIQUE,
	file_ext        TEXT NOT NULL,
	file_size       BIGINT NOT NULL DEFAULT 0,
	page_count      INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	error_message   TEXT,
	preview_path    TEXT,
	part_number     TEXT NOT NULL DEFAULT '',
	part_name       TEXT NOT NULL DEFAULT '',
	material        TEXT NOT NULL DEFAULT '',
	heat_treatment  TEXT NOT NULL DEFAULT '',
	surface_coating TEXT NOT NULL DEFAULT '',
	created_at      BIGINT NOT NULL,
	started_at      BIGINT,
	finished_at     BIGINT
)`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS dimensions (
	id               TEXT PRIMARY KEY,
	document_id      TEXT NOT NULL REFERENCES documents(id),
	page             INTEGER NOT NULL,
	sequence         INTEGER NOT NULL,
	kind             TEXT NOT NULL CHECK (kind IN (%s)),
	nominal          TEXT NOT NULL,
	nominal_value    DOUBLE PRECISION NOT NULL,
	tolerance        TEXT NOT NULL,
	tolerance_source TEXT NOT NULL,
	upper_limit      DOUBLE PRECISION,
	lower_limit      DOUBLE PRECISION,
	x0               DOUBLE PRECISION NOT NULL,
	y0               DOUBLE PRECISION NOT NULL,
	x1               DOUBLE PRECISION NOT NULL,
	y1               DOUBLE PRECISION NOT NULL,
	UNIQUE (document_id, sequence)
)`, quoteList(constants.KindsAsStringSlice())),
	`CREATE INDEX IF NOT EXISTS dimensions_document_id ON dimensions (document_id)`,
	`CREATE INDEX IF NOT EXISTS documents_status ON documents (status)`,
}

// Migrate creates the tables when they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if err := d.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			d.logger.Error("migration failed", "step", i, "error", err)
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	d.logger.Info("database schema ready", "dialect", d.Dialect())
	return nil
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
