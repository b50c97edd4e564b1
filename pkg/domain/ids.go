// Package domain holds the typed identifiers shared across the application.
// IDs are distinct types over uuid.UUID so a ResponseID can never be passed
// where a CandidateID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "talenttrack/pkg/domain-errors"
)

type (
	// CycleID scopes forms, responses, and candidates to one recruiting cycle.
	CycleID uuid.UUID

	// FormID identifies one connected external form.
	FormID uuid.UUID

	// ResponseID identifies one inbound submission.
	ResponseID uuid.UUID

	// CandidateID identifies a deduplicated person record.
	CandidateID uuid.UUID

	// IncidentID identifies one reconciliation incident.
	IncidentID uuid.UUID
)

func (id CycleID) String() string     { return uuid.UUID(id).String() }
func (id FormID) String() string      { return uuid.UUID(id).String() }
func (id ResponseID) String() string  { return uuid.UUID(id).String() }
func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id IncidentID) String() string  { return uuid.UUID(id).String() }

func (id CycleID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id FormID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CandidateID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id IncidentID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// NewFormID and friends mint fresh identifiers.
func NewCycleID() CycleID         { return CycleID(uuid.New()) }
func NewFormID() FormID           { return FormID(uuid.New()) }
func NewResponseID() ResponseID   { return ResponseID(uuid.New()) }
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }
func NewIncidentID() IncidentID   { return IncidentID(uuid.New()) }

// parseUUID enforces the parsing invariant at trust boundaries: IDs must be
// valid, non-empty, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseCycleID(raw string) (CycleID, error) {
	parsed, err := parseUUID(raw)
	return CycleID(parsed), err
}

func ParseFormID(raw string) (FormID, error) {
	parsed, err := parseUUID(raw)
	return FormID(parsed), err
}

func ParseResponseID(raw string) (ResponseID, error) {
	parsed, err := parseUUID(raw)
	return ResponseID(parsed), err
}

func ParseCandidateID(raw string) (CandidateID, error) {
	parsed, err := parseUUID(raw)
	return CandidateID(parsed), err
}

func ParseIncidentID(raw string) (IncidentID, error) {
	parsed, err := parseUUID(raw)
	return IncidentID(parsed), err
}
