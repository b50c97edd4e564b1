package form

import (
	"context"

	"talenttrack/pkg/domain"
)

// Store is interface-driven to keep the registry testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring callers.
type Store interface {
	// Save upserts a form; replacing a form keeps its ID so responses that
	// reference it stay valid.
	Save(ctx context.Context, f Form) error
	FindByID(ctx context.Context, id domain.FormID) (Form, error)
	// FindByProviderRef locates the form a webhook submission belongs to.
	FindByProviderRef(ctx context.Context, provider, providerFormRef string) (Form, error)
	ListByCycle(ctx context.Context, cycleID domain.CycleID) ([]Form, error)
}
