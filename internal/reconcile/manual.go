package reconcile

import (
	"context"
	"errors"
	"fmt"

	"talenttrack/internal/audit"
	"talenttrack/internal/response"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
	"talenttrack/pkg/email"
	"talenttrack/pkg/platform/sentinel"
)

// AttachResult tells the caller whether the respondent's address still needs
// to be confirmed onto the chosen candidate. The engine never adds an
// unknown address on its own during an attach; the recruiter decides.
type AttachResult struct {
	NeedsEmailConfirmation bool   `json:"needsEmailConfirmation"`
	Email                  string `json:"email,omitempty"`
}

// Attach force-links a response to the chosen candidate, bypassing the
// resolver entirely. The human has already judged the match.
func (e *Engine) Attach(ctx context.Context, actor string, responseID domain.ResponseID, candidateID domain.CandidateID) (AttachResult, error) {
	r, err := e.responses.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AttachResult{}, dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return AttachResult{}, fmt.Errorf("find response: %w", err)
	}
	cand, err := e.candidates.FindByID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return AttachResult{}, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return AttachResult{}, fmt.Errorf("find candidate: %w", err)
	}

	if err := e.responses.SetResolution(ctx, r.ID, cand.ID, true); err != nil {
		return AttachResult{}, fmt.Errorf("link response: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:       actor,
		Action:      audit.ActionManualAttach,
		FormID:      r.FormID.String(),
		ResponseID:  r.ID.String(),
		CandidateID: cand.ID.String(),
	})

	respondent := email.Normalize(r.RespondentEmail)
	if respondent != "" && !cand.OwnsEmail(respondent) {
		return AttachResult{NeedsEmailConfirmation: true, Email: respondent}, nil
	}
	return AttachResult{}, nil
}

// ForceCreate unblocks a stuck response by creating a candidate from it
// without re-checking for existing matches. Storage-level email uniqueness
// still applies; a collision surfaces as an explicit conflict instead of
// minting a duplicate.
func (e *Engine) ForceCreate(ctx context.Context, actor string, responseID domain.ResponseID) (domain.CandidateID, error) {
	r, err := e.responses.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.CandidateID{}, dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return domain.CandidateID{}, fmt.Errorf("find response: %w", err)
	}
	if r.Processed {
		return domain.CandidateID{}, dErrors.New(dErrors.CodeConflict, "response is already processed")
	}
	f, err := e.forms.FindByID(ctx, r.FormID)
	if err != nil {
		return domain.CandidateID{}, fmt.Errorf("find form: %w", err)
	}

	emails := extractEmails(f, r)
	if len(emails) == 0 {
		return domain.CandidateID{}, dErrors.New(dErrors.CodeInvalidInput, "no email found in response or metadata")
	}
	name := extractName(f, r)
	cand := buildCandidate(f, r, emails, name)
	if cand.FullName == "" {
		cand.FullName = email.DeriveDisplayName(cand.Email)
	}

	if err := e.candidates.CreateIfEmailsAvailable(ctx, cand); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.CandidateID{}, dErrors.New(dErrors.CodeConflict, "an email from this response is already owned by an existing candidate")
		}
		return domain.CandidateID{}, fmt.Errorf("create candidate: %w", err)
	}
	if err := e.responses.SetResolution(ctx, r.ID, cand.ID, true); err != nil {
		return domain.CandidateID{}, fmt.Errorf("link response: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:       actor,
		Action:      audit.ActionManualForceCreate,
		FormID:      f.ID.String(),
		ResponseID:  r.ID.String(),
		CandidateID: cand.ID.String(),
		Details:     fmt.Sprintf("primary email %s", cand.Email),
	})
	return cand.ID, nil
}

// DiscardResponse deletes the response row. Linked incidents are left on the
// ledger for the reviewer to resolve or discard separately.
func (e *Engine) DiscardResponse(ctx context.Context, actor string, responseID domain.ResponseID) error {
	if err := e.responses.Delete(ctx, responseID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return fmt.Errorf("delete response: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:      actor,
		Action:     audit.ActionResponseDiscarded,
		ResponseID: responseID.String(),
	})
	return nil
}

// ConfirmEmail records an address onto a candidate after an attach reported
// that confirmation was needed.
func (e *Engine) ConfirmEmail(ctx context.Context, actor string, candidateID domain.CandidateID, addr string) error {
	normalized := email.Normalize(addr)
	if normalized == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "email must not be empty")
	}
	if err := e.candidates.AppendAlternateEmails(ctx, candidateID, []string{normalized}); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "email is owned by another candidate")
		}
		return fmt.Errorf("append alternate email: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:       actor,
		Action:      audit.ActionEmailConfirmed,
		CandidateID: candidateID.String(),
		Details:     normalized,
	})
	return nil
}

// Unprocessed lists the responses waiting for reconciliation in one cycle,
// restricted to the configured cutoff. The incidents UI uses it to build the
// review queue; the batch sweep iterates the same list.
func (e *Engine) Unprocessed(ctx context.Context, cycleID domain.CycleID) ([]response.Response, error) {
	return e.responses.ListUnprocessed(ctx, cycleID, e.reprocessAfter)
}
