package response

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

// PostgresStore persists responses in PostgreSQL. Answers are stored as JSONB
// verbatim; the engine interprets them at reconciliation time.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed response store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const responseColumns = `id, form_id, cycle_id, respondent_email, answers, processed, candidate_id, submitted_at`

func (s *PostgresStore) Append(ctx context.Context, r Response) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("marshal response answers: %w", err)
	}
	query := `
		INSERT INTO responses (id, form_id, cycle_id, respondent_email, answers, processed, candidate_id, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.FormID), uuid.UUID(r.CycleID),
		r.RespondentEmail, answers, r.Processed, nullableCandidateID(r.CandidateID), r.SubmittedAt)
	if err != nil {
		return fmt.Errorf("append response: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ResponseID) (Response, error) {
	query := `SELECT ` + responseColumns + ` FROM responses WHERE id = $1`
	r, err := scanResponse(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return Response{}, sentinel.ErrNotFound
		}
		return Response{}, fmt.Errorf("find response: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListUnprocessed(ctx context.Context, cycleID domain.CycleID, after time.Time) ([]Response, error) {
	query := `
		SELECT ` + responseColumns + `
		FROM responses
		WHERE processed = FALSE AND cycle_id = $1 AND submitted_at > $2
		ORDER BY submitted_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(cycleID), after)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed responses: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetResolution(ctx context.Context, id domain.ResponseID, candidateID domain.CandidateID, processed bool) error {
	query := `UPDATE responses SET candidate_id = $1, processed = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(candidateID), processed, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("set response resolution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.ResponseID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete response: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (Response, error) {
	var (
		r                    Response
		id, formID, cycleID  uuid.UUID
		answers              []byte
		candidateID          uuid.NullUUID
	)
	err := row.Scan(&id, &formID, &cycleID, &r.RespondentEmail, &answers, &r.Processed, &candidateID, &r.SubmittedAt)
	if err != nil {
		return Response{}, err
	}
	r.ID = domain.ResponseID(id)
	r.FormID = domain.FormID(formID)
	r.CycleID = domain.CycleID(cycleID)
	if candidateID.Valid {
		cid := domain.CandidateID(candidateID.UUID)
		r.CandidateID = &cid
	}
	if err := json.Unmarshal(answers, &r.Answers); err != nil {
		return Response{}, fmt.Errorf("unmarshal response answers: %w", err)
	}
	return r, nil
}

func nullableCandidateID(id *domain.CandidateID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}
