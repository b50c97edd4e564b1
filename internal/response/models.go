// Package response is the append-only record of inbound form submissions.
// Rows are written on webhook receipt and mutated only by the reconciliation
// engine or a recruiter's manual action; discard is the only delete.
package response

import (
	"time"

	"talenttrack/pkg/domain"
)

// Response is one inbound submission.
type Response struct {
	ID     domain.ResponseID
	FormID domain.FormID
	// CycleID is denormalized from the owning form at append time so the
	// batch sweep can select by cycle without a join.
	CycleID domain.CycleID
	// RespondentEmail is the self-reported address from submission metadata,
	// kept verbatim; normalization happens at reconciliation time.
	RespondentEmail string
	// Answers maps question IDs to arbitrary scalar, list, or nested values
	// exactly as the provider delivered them.
	Answers map[string]any
	// Processed is true once the response has been linked to a candidate.
	Processed bool
	// CandidateID is nil until reconciliation (or a manual attach) resolves
	// the submission to a candidate.
	CandidateID *domain.CandidateID
	SubmittedAt time.Time
}

// New builds an unprocessed Response ready to append.
func New(f domain.FormID, cycle domain.CycleID, respondentEmail string, answers map[string]any, submittedAt time.Time) Response {
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}
	return Response{
		ID:              domain.NewResponseID(),
		FormID:          f,
		CycleID:         cycle,
		RespondentEmail: respondentEmail,
		Answers:         answers,
		SubmittedAt:     submittedAt,
	}
}
