package incident

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

// PostgresStore persists the incident ledger in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed incident store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const incidentColumns = `id, severity, details, form_id, response_id, status, created_at, resolved_at`

func (s *PostgresStore) Append(ctx context.Context, inc Incident) error {
	query := `
		INSERT INTO incidents (id, severity, details, form_id, response_id, status, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(inc.ID), string(inc.Severity), inc.Details,
		nullableFormID(inc.FormID), nullableResponseID(inc.ResponseID),
		string(inc.Status), inc.CreatedAt, nullableTime(inc.ResolvedAt))
	if err != nil {
		return fmt.Errorf("append incident: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.IncidentID) (Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	inc, err := scanIncident(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return Incident{}, sentinel.ErrNotFound
		}
		return Incident{}, fmt.Errorf("find incident: %w", err)
	}
	return inc, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	var args []any
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Resolve(ctx context.Context, id domain.IncidentID, at time.Time) error {
	query := `UPDATE incidents SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4`
	res, err := s.db.ExecContext(ctx, query, string(StatusResolved), at, uuid.UUID(id), string(StatusOpen))
	if err != nil {
		return fmt.Errorf("resolve incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or already resolved; look up which.
		if _, ferr := s.FindByID(ctx, id); ferr != nil {
			return ferr
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.IncidentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountOpen(ctx context.Context, severity Severity) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM incidents WHERE status = $1 AND severity = $2`,
		string(StatusOpen), string(severity)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open incidents: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (Incident, error) {
	var (
		inc        Incident
		id         uuid.UUID
		formID     uuid.NullUUID
		responseID uuid.NullUUID
		resolvedAt sql.NullTime
	)
	err := row.Scan(&id, &inc.Severity, &inc.Details, &formID, &responseID, &inc.Status, &inc.CreatedAt, &resolvedAt)
	if err != nil {
		return Incident{}, err
	}
	inc.ID = domain.IncidentID(id)
	if formID.Valid {
		fid := domain.FormID(formID.UUID)
		inc.FormID = &fid
	}
	if responseID.Valid {
		rid := domain.ResponseID(responseID.UUID)
		inc.ResponseID = &rid
	}
	if resolvedAt.Valid {
		inc.ResolvedAt = &resolvedAt.Time
	}
	return inc, nil
}

func nullableFormID(id *domain.FormID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}

func nullableResponseID(id *domain.ResponseID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
