package candidate

import (
	"context"

	"talenttrack/pkg/domain"
)

// Store persists candidates. Email ownership uniqueness is enforced here, at
// the storage layer, so the engine's read-check-then-write sequence cannot
// mint duplicate people under concurrency: CreateIfEmailsAvailable must fail
// with sentinel.ErrConflict when any of the candidate's addresses is already
// owned.
type Store interface {
	// CreateIfEmailsAvailable inserts the candidate only if none of its
	// emails is owned by another candidate; returns sentinel.ErrConflict
	// otherwise.
	CreateIfEmailsAvailable(ctx context.Context, c Candidate) error
	FindByID(ctx context.Context, id domain.CandidateID) (Candidate, error)
	// FindByEmails returns the distinct candidates whose primary or
	// alternate emails intersect the given normalized set. cycleID scopes
	// the lookup when non-zero.
	FindByEmails(ctx context.Context, emails []string, cycleID domain.CycleID) ([]Candidate, error)
	// AppendAlternateEmails records newly observed addresses. Addresses the
	// candidate already owns are ignored; addresses owned by another
	// candidate yield sentinel.ErrConflict.
	AppendAlternateEmails(ctx context.Context, id domain.CandidateID, emails []string) error
}
