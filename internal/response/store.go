package response

import (
	"context"
	"time"

	"talenttrack/pkg/domain"
)

// Store is the append-only response log plus the two mutations the pipeline
// is allowed to make: resolution linking and explicit discard.
type Store interface {
	// Append writes a raw response. It never overwrites an existing row.
	Append(ctx context.Context, r Response) error
	FindByID(ctx context.Context, id domain.ResponseID) (Response, error)
	// ListUnprocessed returns unresolved responses for a cycle submitted
	// strictly after the cutoff, oldest first. The cutoff guards against
	// resweeping historical backlog.
	ListUnprocessed(ctx context.Context, cycleID domain.CycleID, after time.Time) ([]Response, error)
	// SetResolution links a response to a candidate and finalizes the
	// processed flag. The two are always set together.
	SetResolution(ctx context.Context, id domain.ResponseID, candidateID domain.CandidateID, processed bool) error
	// Delete removes a response; only the manual discard action calls this.
	Delete(ctx context.Context, id domain.ResponseID) error
}
