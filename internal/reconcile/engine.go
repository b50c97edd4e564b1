// Package reconcile implements the decision procedure that turns an inbound
// form submission into either a candidate linkage or one or more incidents.
// It is the only writer of the candidate link on responses and the only
// opener of incidents.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"talenttrack/internal/audit"
	"talenttrack/internal/candidate"
	"talenttrack/internal/form"
	"talenttrack/internal/incident"
	"talenttrack/internal/reconcile/metrics"
	"talenttrack/internal/response"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
	"talenttrack/pkg/email"
	"talenttrack/pkg/platform/sentinel"
)

// CountsInvalidator drops cached incident counts after the engine appends to
// the ledger. The incident service implements it; nil disables invalidation.
type CountsInvalidator interface {
	InvalidateCounts(ctx context.Context)
}

// Outcome reports what one processing attempt did.
type Outcome struct {
	// Succeeded is true when the response ended up processed.
	Succeeded bool
	Created   bool
	Attached  bool
	// AlreadyProcessed marks the idempotent no-op case.
	AlreadyProcessed bool
	CandidateID      domain.CandidateID
	Incidents        []incident.Incident
}

// Engine drives automatic reconciliation. Each call handles one response,
// synchronously, to completion or to a recorded incident.
type Engine struct {
	forms       form.Store
	responses   response.Store
	candidates  candidate.Store
	resolver    *candidate.Resolver
	incidents   incident.Store
	invalidator CountsInvalidator
	auditor     *audit.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	// reprocessAfter is the batch sweep's cutoff; responses submitted at or
	// before it are never swept again (guards against reprocessing
	// historical backlog after a fix).
	reprocessAfter time.Time
}

func NewEngine(
	forms form.Store,
	responses response.Store,
	candidates candidate.Store,
	resolver *candidate.Resolver,
	incidents incident.Store,
	invalidator CountsInvalidator,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	reprocessAfter time.Time,
) *Engine {
	return &Engine{
		forms:          forms,
		responses:      responses,
		candidates:     candidates,
		resolver:       resolver,
		incidents:      incidents,
		invalidator:    invalidator,
		auditor:        auditor,
		metrics:        m,
		logger:         logger,
		reprocessAfter: reprocessAfter,
	}
}

// Submit stores a raw inbound submission and triggers immediate
// reconciliation best-effort. The raw append is the only part that may fail;
// a reconciliation failure is recorded as an incident and never returned, so
// the webhook transport can acknowledge the sender unconditionally.
func (e *Engine) Submit(ctx context.Context, provider, providerFormRef, respondentEmail string, answers map[string]any, submittedAt time.Time) (domain.ResponseID, error) {
	f, err := e.forms.FindByProviderRef(ctx, provider, providerFormRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ResponseID{}, dErrors.New(dErrors.CodeNotFound, "no form registered for this provider reference")
		}
		return domain.ResponseID{}, fmt.Errorf("find form: %w", err)
	}

	r := response.New(f.ID, f.CycleID, respondentEmail, answers, submittedAt)
	if err := e.responses.Append(ctx, r); err != nil {
		return domain.ResponseID{}, fmt.Errorf("append response: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:      audit.SystemActor,
		Action:     audit.ActionResponseReceived,
		FormID:     f.ID.String(),
		ResponseID: r.ID.String(),
		Details:    fmt.Sprintf("provider %s form %s", provider, providerFormRef),
	})

	e.ProcessBestEffort(ctx, r.ID)
	return r.ID, nil
}

// Process runs one reconciliation attempt and returns the outcome. Callers
// on the manual path get the error; the webhook and sweep paths go through
// ProcessBestEffort instead.
func (e *Engine) Process(ctx context.Context, responseID domain.ResponseID) (Outcome, error) {
	ctx, span := otel.Tracer("reconcile").Start(ctx, "reconcile.Process",
		trace.WithAttributes(attribute.String("response_id", responseID.String())),
	)
	defer span.End()

	start := time.Now()
	out, err := e.process(ctx, responseID)
	e.metrics.ObserveProcessLatency(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconciliation failed")
		e.metrics.IncrementOutcome("failed")
		return out, err
	}
	span.SetAttributes(attribute.Bool("succeeded", out.Succeeded))
	e.metrics.IncrementOutcome(outcomeLabel(out))
	return out, nil
}

// ProcessBestEffort runs Process and converts any failure into a single
// ERROR incident on the ledger. Third-party senders must never see or retry
// our internal failures; the response simply stays unprocessed with a
// visible reason.
func (e *Engine) ProcessBestEffort(ctx context.Context, responseID domain.ResponseID) Outcome {
	out, err := e.Process(ctx, responseID)
	if err == nil {
		return out
	}
	e.logger.ErrorContext(ctx, "reconciliation failed",
		"response_id", responseID, "error", err)

	inc := incident.New(incident.SeverityError,
		fmt.Sprintf("reconciliation failed: %v", err), nil, &responseID)
	if aerr := e.incidents.Append(ctx, inc); aerr != nil {
		// Ledger down too; the sweep will retry the response later.
		e.logger.ErrorContext(ctx, "failed to record reconciliation failure",
			"response_id", responseID, "error", aerr)
		return Outcome{}
	}
	e.afterIncidents(ctx, []incident.Incident{inc})
	return Outcome{Incidents: []incident.Incident{inc}}
}

func (e *Engine) process(ctx context.Context, responseID domain.ResponseID) (Outcome, error) {
	r, err := e.responses.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Outcome{}, dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return Outcome{}, fmt.Errorf("find response: %w", err)
	}
	// Idempotence: a processed response is never reconciled twice.
	if r.Processed {
		out := Outcome{Succeeded: true, AlreadyProcessed: true}
		if r.CandidateID != nil {
			out.CandidateID = *r.CandidateID
		}
		return out, nil
	}

	f, err := e.forms.FindByID(ctx, r.FormID)
	if err != nil {
		return Outcome{}, fmt.Errorf("find form: %w", err)
	}

	emails := extractEmails(f, r)
	if len(emails) == 0 {
		return e.block(ctx, f, r, incident.SeverityError,
			"no email found in response or metadata")
	}

	if f.CanCreateCandidates {
		return e.processCreating(ctx, f, r, emails)
	}
	return e.processAttaching(ctx, f, r, emails)
}

// processCreating handles forms authorized to originate new candidates. Any
// existing match blocks creation: a human must choose attach-vs-create, the
// engine never merges on its own.
func (e *Engine) processCreating(ctx context.Context, f form.Form, r response.Response, emails []string) (Outcome, error) {
	matches, err := e.resolver.Resolve(ctx, emails, r.CycleID)
	if err != nil {
		return Outcome{}, err
	}
	if len(matches) > 0 {
		return e.block(ctx, f, r, incident.SeverityWarning,
			fmt.Sprintf("at least one of %s is already associated with an existing candidate", joinEmails(emails)))
	}

	name := extractName(f, r)
	if name == "" {
		return e.block(ctx, f, r, incident.SeverityError,
			"no candidate name found in response; candidate not created")
	}

	cand := buildCandidate(f, r, emails, name)
	if err := e.candidates.CreateIfEmailsAvailable(ctx, cand); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost the race to a concurrent submission claiming the same
			// address; same review queue as a resolver hit.
			return e.block(ctx, f, r, incident.SeverityWarning,
				fmt.Sprintf("at least one of %s is already associated with an existing candidate", joinEmails(emails)))
		}
		return Outcome{}, fmt.Errorf("create candidate: %w", err)
	}

	if err := e.responses.SetResolution(ctx, r.ID, cand.ID, true); err != nil {
		return Outcome{}, fmt.Errorf("link response: %w", err)
	}
	e.emitAudit(ctx, audit.Event{
		Actor:       audit.SystemActor,
		Action:      audit.ActionCandidateCreated,
		FormID:      f.ID.String(),
		ResponseID:  r.ID.String(),
		CandidateID: cand.ID.String(),
		Details:     fmt.Sprintf("primary email %s", cand.Email),
	})
	return Outcome{Succeeded: true, Created: true, CandidateID: cand.ID}, nil
}

// processAttaching handles non-creating forms. The distinct-match count fully
// determines the outcome.
func (e *Engine) processAttaching(ctx context.Context, f form.Form, r response.Response, emails []string) (Outcome, error) {
	matches, err := e.resolver.Resolve(ctx, emails, r.CycleID)
	if err != nil {
		return Outcome{}, err
	}
	switch len(matches) {
	case 0:
		return e.block(ctx, f, r, incident.SeverityWarning,
			fmt.Sprintf("no candidates found for %s", joinEmails(emails)))
	case 1:
		cand := matches[0]
		if err := e.responses.SetResolution(ctx, r.ID, cand.ID, true); err != nil {
			return Outcome{}, fmt.Errorf("link response: %w", err)
		}
		e.emitAudit(ctx, audit.Event{
			Actor:       audit.SystemActor,
			Action:      audit.ActionCandidateAttached,
			FormID:      f.ID.String(),
			ResponseID:  r.ID.String(),
			CandidateID: cand.ID.String(),
		})
		return Outcome{Succeeded: true, Attached: true, CandidateID: cand.ID}, nil
	default:
		return e.block(ctx, f, r, incident.SeverityWarning,
			fmt.Sprintf("%s are associated with different candidates", joinEmails(emails)))
	}
}

// block opens one incident and leaves the response unprocessed. The incident
// is persisted before the attempt returns, so every unprocessed response has
// a visible reason on the ledger.
func (e *Engine) block(ctx context.Context, f form.Form, r response.Response, severity incident.Severity, details string) (Outcome, error) {
	inc := incident.New(severity, details, &f.ID, &r.ID)
	if err := e.incidents.Append(ctx, inc); err != nil {
		return Outcome{}, fmt.Errorf("append incident: %w", err)
	}
	e.afterIncidents(ctx, []incident.Incident{inc})
	e.emitAudit(ctx, audit.Event{
		Actor:      audit.SystemActor,
		Action:     audit.ActionIncidentOpened,
		FormID:     f.ID.String(),
		ResponseID: r.ID.String(),
		IncidentID: inc.ID.String(),
		Details:    details,
	})
	return Outcome{Incidents: []incident.Incident{inc}}, nil
}

func (e *Engine) afterIncidents(ctx context.Context, incs []incident.Incident) {
	for _, inc := range incs {
		e.metrics.IncrementIncident(string(inc.Severity))
	}
	if e.invalidator != nil {
		e.invalidator.InvalidateCounts(ctx)
	}
}

func (e *Engine) emitAudit(ctx context.Context, event audit.Event) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// extractEmails derives the normalized email set for one submission: the
// answer mapped to the person-email role combined with the respondent's
// self-reported address.
func extractEmails(f form.Form, r response.Response) []string {
	var raw []string
	if qid, ok := f.QuestionForRole(form.FieldRolePersonEmail); ok {
		raw = append(raw, answerStrings(r.Answers[qid])...)
	}
	raw = append(raw, r.RespondentEmail)
	return email.NormalizeSet(raw...)
}

// extractName returns the trimmed answer mapped to the person-name role,
// empty when unmapped or blank.
func extractName(f form.Form, r response.Response) string {
	qid, ok := f.QuestionForRole(form.FieldRolePersonName)
	if !ok {
		return ""
	}
	parts := answerStrings(r.Answers[qid])
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// buildCandidate picks the mapped email as primary when present, otherwise
// the respondent email; the remaining checked addresses become alternates.
func buildCandidate(f form.Form, r response.Response, emails []string, name string) candidate.Candidate {
	primary := email.Normalize(r.RespondentEmail)
	if qid, ok := f.QuestionForRole(form.FieldRolePersonEmail); ok {
		if mapped := email.NormalizeSet(answerStrings(r.Answers[qid])...); len(mapped) > 0 {
			primary = mapped[0]
		}
	}
	if primary == "" {
		primary = emails[0]
	}
	var alternates []string
	for _, a := range emails {
		if a != primary {
			alternates = append(alternates, a)
		}
	}
	return candidate.New(r.CycleID, primary, name, alternates)
}

// answerStrings flattens one raw answer value into its string items.
// Providers deliver scalars for text questions and lists for multi-select
// ones; anything else carries no usable text.
func answerStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func joinEmails(emails []string) string {
	return strings.Join(emails, ", ")
}

func outcomeLabel(out Outcome) string {
	switch {
	case out.AlreadyProcessed:
		return "noop"
	case out.Created:
		return "created"
	case out.Attached:
		return "attached"
	case out.Succeeded:
		return "noop"
	default:
		return "blocked"
	}
}
