// Package candidate holds the deduplicated person records the reconciliation
// pipeline protects. The one invariant that matters: no email address may be
// owned by two candidates.
package candidate

import (
	"time"

	"talenttrack/pkg/domain"
	"talenttrack/pkg/email"
)

// Candidate is a deduplicated person tracked through a recruiting cycle.
type Candidate struct {
	ID      domain.CandidateID
	CycleID domain.CycleID
	// Email is the primary address, stored normalized (lower-case, trimmed).
	Email string
	// AlternateEmails are additional addresses observed for this person,
	// normalized, deduplicated, and disjoint from Email.
	AlternateEmails []string
	FullName        string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds an active candidate with normalized emails. Addresses equal to
// the primary are dropped from the alternates.
func New(cycleID domain.CycleID, primaryEmail, fullName string, alternates []string) Candidate {
	primary := email.Normalize(primaryEmail)
	now := time.Now().UTC()
	c := Candidate{
		ID:        domain.NewCandidateID(),
		CycleID:   cycleID,
		Email:     primary,
		FullName:  fullName,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, alt := range email.NormalizeSet(alternates...) {
		if alt != primary {
			c.AlternateEmails = append(c.AlternateEmails, alt)
		}
	}
	return c
}

// Emails returns every address owned by the candidate, primary first.
func (c Candidate) Emails() []string {
	out := make([]string, 0, len(c.AlternateEmails)+1)
	if c.Email != "" {
		out = append(out, c.Email)
	}
	return append(out, c.AlternateEmails...)
}

// OwnsEmail reports whether the candidate already owns the address.
// Comparison is exact equality over normalized addresses, never fuzzy.
func (c Candidate) OwnsEmail(addr string) bool {
	normalized := email.Normalize(addr)
	if normalized == "" {
		return false
	}
	for _, own := range c.Emails() {
		if own == normalized {
			return true
		}
	}
	return false
}

// MergeAlternates returns the alternates extended with any of the given
// addresses the candidate does not own yet.
func (c Candidate) MergeAlternates(addrs []string) []string {
	merged := append([]string{}, c.AlternateEmails...)
	for _, a := range email.NormalizeSet(addrs...) {
		if !c.OwnsEmail(a) {
			merged = append(merged, a)
		}
	}
	return merged
}
