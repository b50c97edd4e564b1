package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talenttrack/internal/platform/middleware"
	"talenttrack/internal/reconcile"
	"talenttrack/internal/response"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
)

// Pipeline is the slice of the reconciliation engine the manual routes need.
type Pipeline interface {
	Process(ctx context.Context, responseID domain.ResponseID) (reconcile.Outcome, error)
	Attach(ctx context.Context, actor string, responseID domain.ResponseID, candidateID domain.CandidateID) (reconcile.AttachResult, error)
	ForceCreate(ctx context.Context, actor string, responseID domain.ResponseID) (domain.CandidateID, error)
	DiscardResponse(ctx context.Context, actor string, responseID domain.ResponseID) error
	ConfirmEmail(ctx context.Context, actor string, candidateID domain.CandidateID, addr string) error
	Unprocessed(ctx context.Context, cycleID domain.CycleID) ([]response.Response, error)
	Sweep(ctx context.Context, cycleID domain.CycleID) (reconcile.SweepSummary, error)
}

// ResponseHandler exposes the manual reconciliation operations. All routes
// here require an authenticated recruiter; the actor lands in the audit
// trail.
type ResponseHandler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

func NewResponseHandler(pipeline Pipeline, logger *slog.Logger) *ResponseHandler {
	return &ResponseHandler{pipeline: pipeline, logger: logger}
}

func (h *ResponseHandler) Register(r chi.Router) {
	r.Get("/cycles/{cycleID}/responses/unprocessed", h.handleUnprocessed)
	r.Post("/cycles/{cycleID}/responses/sweep", h.handleSweep)
	r.Post("/responses/{id}/process", h.handleProcess)
	r.Post("/responses/{id}/attach", h.handleAttach)
	r.Post("/responses/{id}/force-create", h.handleForceCreate)
	r.Delete("/responses/{id}", h.handleDiscard)
	r.Post("/candidates/{id}/emails", h.handleConfirmEmail)
}

type responseView struct {
	ID              string         `json:"id"`
	FormID          string         `json:"formId"`
	CycleID         string         `json:"cycleId"`
	RespondentEmail string         `json:"respondentEmail"`
	Answers         map[string]any `json:"answers"`
	Processed       bool           `json:"processed"`
	CandidateID     string         `json:"candidateId,omitempty"`
	SubmittedAt     string         `json:"submittedAt"`
}

func toResponseView(r response.Response) responseView {
	v := responseView{
		ID:              r.ID.String(),
		FormID:          r.FormID.String(),
		CycleID:         r.CycleID.String(),
		RespondentEmail: r.RespondentEmail,
		Answers:         r.Answers,
		Processed:       r.Processed,
		SubmittedAt:     r.SubmittedAt.Format(timeFormat),
	}
	if r.CandidateID != nil {
		v.CandidateID = r.CandidateID.String()
	}
	return v
}

func (h *ResponseHandler) handleUnprocessed(w http.ResponseWriter, r *http.Request) {
	cycleID, err := domain.ParseCycleID(chi.URLParam(r, "cycleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	pending, err := h.pipeline.Unprocessed(r.Context(), cycleID)
	if err != nil {
		h.logError(r, "list unprocessed responses", err)
		writeError(w, err)
		return
	}
	views := make([]responseView, 0, len(pending))
	for _, resp := range pending {
		views = append(views, toResponseView(resp))
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": views})
}

func (h *ResponseHandler) handleSweep(w http.ResponseWriter, r *http.Request) {
	cycleID, err := domain.ParseCycleID(chi.URLParam(r, "cycleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := h.pipeline.Sweep(r.Context(), cycleID)
	if err != nil {
		h.logError(r, "sweep", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type processResult struct {
	Succeeded        bool           `json:"succeeded"`
	AlreadyProcessed bool           `json:"alreadyProcessed,omitempty"`
	CandidateID      string         `json:"candidateId,omitempty"`
	Incidents        []incidentView `json:"incidents"`
}

func (h *ResponseHandler) handleProcess(w http.ResponseWriter, r *http.Request) {
	responseID, err := domain.ParseResponseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.pipeline.Process(r.Context(), responseID)
	if err != nil {
		h.logError(r, "process response", err)
		writeError(w, err)
		return
	}
	result := processResult{
		Succeeded:        out.Succeeded,
		AlreadyProcessed: out.AlreadyProcessed,
		Incidents:        make([]incidentView, 0, len(out.Incidents)),
	}
	if !out.CandidateID.IsZero() {
		result.CandidateID = out.CandidateID.String()
	}
	for _, inc := range out.Incidents {
		result.Incidents = append(result.Incidents, toIncidentView(inc))
	}
	writeJSON(w, http.StatusOK, result)
}

type attachRequest struct {
	CandidateID string `json:"candidateId"`
}

func (h *ResponseHandler) handleAttach(w http.ResponseWriter, r *http.Request) {
	responseID, err := domain.ParseResponseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req attachRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	candidateID, err := domain.ParseCandidateID(req.CandidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.pipeline.Attach(r.Context(), actor(r.Context()), responseID, candidateID)
	if err != nil {
		h.logError(r, "attach response", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ResponseHandler) handleForceCreate(w http.ResponseWriter, r *http.Request) {
	responseID, err := domain.ParseResponseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	candidateID, err := h.pipeline.ForceCreate(r.Context(), actor(r.Context()), responseID)
	if err != nil {
		h.logError(r, "force-create candidate", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"candidateId": candidateID.String()})
}

func (h *ResponseHandler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	responseID, err := domain.ParseResponseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.pipeline.DiscardResponse(r.Context(), actor(r.Context()), responseID); err != nil {
		h.logError(r, "discard response", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type confirmEmailRequest struct {
	Email string `json:"email"`
}

func (h *ResponseHandler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	candidateID, err := domain.ParseCandidateID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req confirmEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.pipeline.ConfirmEmail(r.Context(), actor(r.Context()), candidateID, req.Email); err != nil {
		h.logError(r, "confirm email", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ResponseHandler) logError(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
	}
}

// actor names the authenticated recruiter for the audit trail.
func actor(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}
