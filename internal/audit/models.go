// Package audit records every mutation the reconciliation pipeline performs,
// automatic or manual. The trail is what lets a recruiter answer "why does
// this person exist twice" six weeks later.
package audit

import (
	"context"
	"time"
)

// Action names one pipeline mutation.
type Action string

const (
	ActionResponseReceived  Action = "response_received"
	ActionResponseDiscarded Action = "response_discarded"
	ActionCandidateCreated  Action = "candidate_created"
	ActionCandidateAttached Action = "candidate_attached"
	ActionEmailConfirmed    Action = "email_confirmed"
	ActionIncidentOpened    Action = "incident_opened"
	ActionManualAttach      Action = "manual_attach"
	ActionManualForceCreate Action = "manual_force_create"
)

// SystemActor marks events emitted by automatic processing.
const SystemActor = "system"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// Actor is SystemActor for automatic processing or the recruiter user ID
	// for manual operations.
	Actor  string
	Action Action
	// Optional entity references, string form to stay sink-agnostic.
	FormID      string
	ResponseID  string
	CandidateID string
	IncidentID  string
	Details     string
}

// Store is the append-only persistence behind the Publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByResponse returns the trail for one response, oldest first.
	ListByResponse(ctx context.Context, responseID string) ([]Event, error)
}

// Sink receives events after they are persisted; used for the kafka export.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
