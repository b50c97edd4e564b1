// Package incident is the durable ledger of reconciliation failures. Every
// response left unprocessed has at least one open incident explaining why;
// incidents are closed by humans, never automatically.
package incident

import (
	"time"

	"talenttrack/pkg/domain"
)

// Severity splits incidents into the two review queues.
type Severity string

const (
	// SeverityError marks malformed or failed processing: no usable email,
	// or an unexpected infrastructure failure.
	SeverityError Severity = "ERROR"
	// SeverityWarning marks well-formed but ambiguous submissions: possible
	// duplicate, zero candidates, or multiple candidates.
	SeverityWarning Severity = "WARNING"
)

// Status tracks the manual review lifecycle.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
)

// Incident describes why automatic reconciliation could not complete.
type Incident struct {
	ID       domain.IncidentID
	Severity Severity
	// Details is the free-text diagnosis shown to the reviewing recruiter.
	Details    string
	FormID     *domain.FormID
	ResponseID *domain.ResponseID
	Status     Status
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// New builds an open incident linked to the offending form and response.
// Either reference may be nil for infra-level failures.
func New(severity Severity, details string, formID *domain.FormID, responseID *domain.ResponseID) Incident {
	return Incident{
		ID:         domain.NewIncidentID(),
		Severity:   severity,
		Details:    details,
		FormID:     formID,
		ResponseID: responseID,
		Status:     StatusOpen,
		CreatedAt:  time.Now().UTC(),
	}
}
