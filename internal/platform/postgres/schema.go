// Package postgres owns the relational schema. EnsureSchema is idempotent so
// a fresh environment (or a test container) can bootstrap itself.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the full DDL. candidate_emails is the table that makes email
// ownership a storage-level constraint: one row per address, primary key on
// the address, so two candidates can never own the same email no matter how
// requests interleave.
const Schema = `
CREATE TABLE IF NOT EXISTS forms (
	id                    UUID PRIMARY KEY,
	cycle_id              UUID NOT NULL,
	provider              TEXT NOT NULL,
	provider_form_ref     TEXT NOT NULL,
	title                 TEXT NOT NULL DEFAULT '',
	sections              JSONB NOT NULL DEFAULT '[]',
	field_mappings        JSONB NOT NULL DEFAULT '{}',
	can_create_candidates BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL,
	UNIQUE (provider, provider_form_ref)
);
CREATE INDEX IF NOT EXISTS forms_cycle_idx ON forms (cycle_id);

CREATE TABLE IF NOT EXISTS responses (
	id               UUID PRIMARY KEY,
	form_id          UUID NOT NULL REFERENCES forms (id),
	cycle_id         UUID NOT NULL,
	respondent_email TEXT NOT NULL DEFAULT '',
	answers          JSONB NOT NULL DEFAULT '{}',
	processed        BOOLEAN NOT NULL DEFAULT FALSE,
	candidate_id     UUID,
	submitted_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS responses_unprocessed_idx
	ON responses (cycle_id, submitted_at) WHERE NOT processed;

CREATE TABLE IF NOT EXISTS candidates (
	id               UUID PRIMARY KEY,
	cycle_id         UUID NOT NULL,
	email            TEXT NOT NULL,
	alternate_emails TEXT[] NOT NULL DEFAULT '{}',
	full_name        TEXT NOT NULL DEFAULT '',
	active           BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS candidate_emails (
	email        TEXT PRIMARY KEY,
	candidate_id UUID NOT NULL REFERENCES candidates (id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS candidate_emails_candidate_idx ON candidate_emails (candidate_id);

CREATE TABLE IF NOT EXISTS incidents (
	id          UUID PRIMARY KEY,
	severity    TEXT NOT NULL,
	details     TEXT NOT NULL,
	form_id     UUID,
	response_id UUID,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	resolved_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS incidents_open_idx ON incidents (severity) WHERE status = 'OPEN';

CREATE TABLE IF NOT EXISTS audit_events (
	id           BIGSERIAL PRIMARY KEY,
	ts           TIMESTAMPTZ NOT NULL,
	actor        TEXT NOT NULL,
	action       TEXT NOT NULL,
	form_id      TEXT,
	response_id  TEXT,
	candidate_id TEXT,
	incident_id  TEXT,
	details      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_response_idx ON audit_events (response_id);
`

// EnsureSchema applies the DDL; safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
