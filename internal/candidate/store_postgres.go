package candidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/email"
	"talenttrack/pkg/platform/sentinel"
)

// PostgresStore persists candidates in PostgreSQL. Email ownership lives in a
// side table with a unique index over the address, which is what turns the
// engine's read-check-then-write race into an ErrConflict instead of a
// duplicate person.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed candidate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) CreateIfEmailsAvailable(ctx context.Context, c Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create candidate: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO candidates (id, cycle_id, email, alternate_emails, full_name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.CycleID), c.Email, pq.Array(c.AlternateEmails),
		c.FullName, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}

	for _, addr := range c.Emails() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO candidate_emails (email, candidate_id) VALUES ($1, $2)`,
			addr, uuid.UUID(c.ID))
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("claim candidate email: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create candidate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CandidateID) (Candidate, error) {
	query := `
		SELECT id, cycle_id, email, alternate_emails, full_name, active, created_at, updated_at
		FROM candidates WHERE id = $1
	`
	c, err := scanCandidate(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return Candidate{}, sentinel.ErrNotFound
		}
		return Candidate{}, fmt.Errorf("find candidate: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByEmails(ctx context.Context, emails []string, cycleID domain.CycleID) ([]Candidate, error) {
	normalized := email.NormalizeSet(emails...)
	if len(normalized) == 0 {
		return nil, nil
	}
	query := `
		SELECT DISTINCT c.id, c.cycle_id, c.email, c.alternate_emails, c.full_name, c.active, c.created_at, c.updated_at
		FROM candidates c
		JOIN candidate_emails ce ON ce.candidate_id = c.id
		WHERE ce.email = ANY($1)
	`
	args := []any{pq.Array(normalized)}
	if !cycleID.IsZero() {
		query += ` AND c.cycle_id = $2`
		args = append(args, uuid.UUID(cycleID))
	}
	query += ` ORDER BY c.created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find candidates by emails: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendAlternateEmails(ctx context.Context, id domain.CandidateID, emails []string) error {
	normalized := email.NormalizeSet(emails...)
	if len(normalized) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append alternate emails: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	c, err := scanCandidate(tx.QueryRowContext(ctx, `
		SELECT id, cycle_id, email, alternate_emails, full_name, active, created_at, updated_at
		FROM candidates WHERE id = $1 FOR UPDATE
	`, uuid.UUID(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("load candidate for update: %w", err)
	}

	toAdd := make([]string, 0, len(normalized))
	for _, addr := range normalized {
		if !c.OwnsEmail(addr) {
			toAdd = append(toAdd, addr)
		}
	}
	if len(toAdd) == 0 {
		return tx.Commit()
	}

	for _, addr := range toAdd {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO candidate_emails (email, candidate_id) VALUES ($1, $2)`,
			addr, uuid.UUID(id))
		if err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("claim alternate email: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE candidates SET alternate_emails = $1, updated_at = $2 WHERE id = $3`,
		pq.Array(append(c.AlternateEmails, toAdd...)), time.Now().UTC(), uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("update candidate alternate emails: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append alternate emails: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (Candidate, error) {
	var (
		c           Candidate
		id, cycleID uuid.UUID
		alternates  pq.StringArray
	)
	err := row.Scan(&id, &cycleID, &c.Email, &alternates, &c.FullName, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Candidate{}, err
	}
	c.ID = domain.CandidateID(id)
	c.CycleID = domain.CycleID(cycleID)
	c.AlternateEmails = alternates
	return c, nil
}
