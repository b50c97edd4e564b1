// Package httptransport is the thin HTTP layer over the reconciliation
// pipeline. Handlers delegate to domain services without embedding business
// logic so transport concerns remain isolated.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	dErrors "talenttrack/pkg/domain-errors"
)

const timeFormat = time.RFC3339

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError centralizes domain error translation to HTTP responses. Coded
// errors map to their status and expose their message; anything else is a
// bare 500 so internals never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	env := errorEnvelope{Error: string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) {
		env.Message = de.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
