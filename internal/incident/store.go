package incident

import (
	"context"
	"time"

	"talenttrack/pkg/domain"
)

// Filter narrows List to a review queue.
type Filter struct {
	Status   Status   // zero value: any
	Severity Severity // zero value: any
}

// Store persists the incident ledger.
type Store interface {
	Append(ctx context.Context, inc Incident) error
	FindByID(ctx context.Context, id domain.IncidentID) (Incident, error)
	List(ctx context.Context, f Filter) ([]Incident, error)
	// Resolve flips an open incident to RESOLVED at the given instant.
	Resolve(ctx context.Context, id domain.IncidentID, at time.Time) error
	// Delete removes an incident; only the manual discard action calls this.
	Delete(ctx context.Context, id domain.IncidentID) error
	// CountOpen returns the number of open incidents of one severity.
	CountOpen(ctx context.Context, severity Severity) (int, error)
}
