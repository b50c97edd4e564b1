package candidate

import (
	"context"
	"fmt"

	"talenttrack/pkg/domain"
)

// Resolver answers one question: which existing candidates already own any of
// a submission's emails. It is a pure read; the reconciliation engine decides
// what the answer means.
type Resolver struct {
	store Store
	// scopeToCycle restricts matching to the submission's recruiting cycle.
	// Left false, returning applicants from earlier cycles are matched too.
	scopeToCycle bool
}

func NewResolver(store Store, scopeToCycle bool) *Resolver {
	return &Resolver{store: store, scopeToCycle: scopeToCycle}
}

// Resolve returns the distinct candidates whose primary or alternate emails
// intersect the given set. Distinctness is by candidate ID: one candidate
// matching through several addresses is still one match. The input must
// already be normalized; an empty set returns no matches.
func (r *Resolver) Resolve(ctx context.Context, emails []string, cycleID domain.CycleID) ([]Candidate, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	scope := domain.CycleID{}
	if r.scopeToCycle {
		scope = cycleID
	}
	matches, err := r.store.FindByEmails(ctx, emails, scope)
	if err != nil {
		return nil, fmt.Errorf("resolve candidates: %w", err)
	}

	// The 0/1/many outcome taxonomy counts distinct candidate IDs, never
	// email hits, so collapse duplicates here regardless of the store.
	seen := make(map[domain.CandidateID]struct{}, len(matches))
	distinct := matches[:0]
	for _, c := range matches {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		distinct = append(distinct, c)
	}
	return distinct, nil
}
