package form

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/platform/sentinel"
)

// PostgresStore persists forms in PostgreSQL.
// This store is pure I/O—mapping semantics live in the Form model.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed form store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const formColumns = `id, cycle_id, provider, provider_form_ref, title, sections, field_mappings, can_create_candidates, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, f Form) error {
	sections, err := json.Marshal(f.Sections)
	if err != nil {
		return fmt.Errorf("marshal form sections: %w", err)
	}
	mappings, err := json.Marshal(f.FieldMappings)
	if err != nil {
		return fmt.Errorf("marshal form field mappings: %w", err)
	}
	query := `
		INSERT INTO forms (id, cycle_id, provider, provider_form_ref, title, sections, field_mappings, can_create_candidates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			sections = EXCLUDED.sections,
			field_mappings = EXCLUDED.field_mappings,
			can_create_candidates = EXCLUDED.can_create_candidates,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(f.ID), uuid.UUID(f.CycleID), f.Provider, f.ProviderFormRef, f.Title,
		sections, mappings, f.CanCreateCandidates, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save form: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FormID) (Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE id = $1`
	f, err := scanForm(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if err == sql.ErrNoRows {
			return Form{}, sentinel.ErrNotFound
		}
		return Form{}, fmt.Errorf("find form: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) FindByProviderRef(ctx context.Context, provider, providerFormRef string) (Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE provider = $1 AND provider_form_ref = $2`
	f, err := scanForm(s.db.QueryRowContext(ctx, query, provider, providerFormRef))
	if err != nil {
		if err == sql.ErrNoRows {
			return Form{}, sentinel.ErrNotFound
		}
		return Form{}, fmt.Errorf("find form by provider ref: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) ListByCycle(ctx context.Context, cycleID domain.CycleID) ([]Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE cycle_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(cycleID))
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var forms []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (Form, error) {
	var (
		f            Form
		id, cycleID  uuid.UUID
		sections     []byte
		fieldMapping []byte
	)
	err := row.Scan(&id, &cycleID, &f.Provider, &f.ProviderFormRef, &f.Title,
		&sections, &fieldMapping, &f.CanCreateCandidates, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return Form{}, err
	}
	f.ID = domain.FormID(id)
	f.CycleID = domain.CycleID(cycleID)
	if err := json.Unmarshal(sections, &f.Sections); err != nil {
		return Form{}, fmt.Errorf("unmarshal form sections: %w", err)
	}
	if err := json.Unmarshal(fieldMapping, &f.FieldMappings); err != nil {
		return Form{}, fmt.Errorf("unmarshal form field mappings: %w", err)
	}
	f.Reindex()
	return f, nil
}
