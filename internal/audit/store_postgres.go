package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists the audit trail in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (ts, actor, action, form_id, response_id, candidate_id, incident_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, event.Actor, string(event.Action),
		nullableRef(event.FormID), nullableRef(event.ResponseID),
		nullableRef(event.CandidateID), nullableRef(event.IncidentID),
		event.Details)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByResponse(ctx context.Context, responseID string) ([]Event, error) {
	query := `
		SELECT ts, actor, action, form_id, response_id, candidate_id, incident_id, details
		FROM audit_events
		WHERE response_id = $1
		ORDER BY ts ASC
	`
	rows, err := s.db.QueryContext(ctx, query, responseID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e           Event
			formID      sql.NullString
			respID      sql.NullString
			candidateID sql.NullString
			incidentID  sql.NullString
		)
		if err := rows.Scan(&e.Timestamp, &e.Actor, &e.Action, &formID, &respID, &candidateID, &incidentID, &e.Details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.FormID = formID.String
		e.ResponseID = respID.String
		e.CandidateID = candidateID.String
		e.IncidentID = incidentID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableRef(ref string) any {
	if ref == "" {
		return nil
	}
	return ref
}
