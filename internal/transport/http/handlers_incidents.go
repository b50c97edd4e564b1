package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talenttrack/internal/incident"
	"talenttrack/internal/platform/middleware"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
)

// IncidentService is the slice of the incident service the review routes need.
type IncidentService interface {
	List(ctx context.Context, f incident.Filter) ([]incident.Incident, error)
	Resolve(ctx context.Context, id domain.IncidentID) error
	Discard(ctx context.Context, id domain.IncidentID) error
	OpenCounts(ctx context.Context) (incident.OpenCounts, error)
}

// IncidentHandler serves the manual review queues and the navigation badge.
type IncidentHandler struct {
	incidents IncidentService
	logger    *slog.Logger
}

func NewIncidentHandler(incidents IncidentService, logger *slog.Logger) *IncidentHandler {
	return &IncidentHandler{incidents: incidents, logger: logger}
}

func (h *IncidentHandler) Register(r chi.Router) {
	r.Get("/incidents", h.handleList)
	r.Get("/incidents/counts", h.handleCounts)
	r.Post("/incidents/{id}/resolve", h.handleResolve)
	r.Delete("/incidents/{id}", h.handleDiscard)
}

type incidentView struct {
	ID         string `json:"id"`
	Severity   string `json:"severity"`
	Details    string `json:"details"`
	FormID     string `json:"formId,omitempty"`
	ResponseID string `json:"responseId,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	ResolvedAt string `json:"resolvedAt,omitempty"`
}

func toIncidentView(inc incident.Incident) incidentView {
	v := incidentView{
		ID:        inc.ID.String(),
		Severity:  string(inc.Severity),
		Details:   inc.Details,
		Status:    string(inc.Status),
		CreatedAt: inc.CreatedAt.Format(timeFormat),
	}
	if inc.FormID != nil {
		v.FormID = inc.FormID.String()
	}
	if inc.ResponseID != nil {
		v.ResponseID = inc.ResponseID.String()
	}
	if inc.ResolvedAt != nil {
		v.ResolvedAt = inc.ResolvedAt.Format(timeFormat)
	}
	return v
}

func (h *IncidentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status, err := incident.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	severity, err := incident.ParseSeverity(r.URL.Query().Get("severity"))
	if err != nil {
		writeError(w, err)
		return
	}

	incs, err := h.incidents.List(r.Context(), incident.Filter{Status: status, Severity: severity})
	if err != nil {
		h.logError(r, "list incidents", err)
		writeError(w, err)
		return
	}
	views := make([]incidentView, 0, len(incs))
	for _, inc := range incs {
		views = append(views, toIncidentView(inc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": views})
}

func (h *IncidentHandler) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.incidents.OpenCounts(r.Context())
	if err != nil {
		h.logError(r, "count incidents", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *IncidentHandler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIncidentID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.incidents.Resolve(r.Context(), id); err != nil {
		h.logError(r, "resolve incident", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IncidentHandler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIncidentID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.incidents.Discard(r.Context(), id); err != nil {
		h.logError(r, "discard incident", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IncidentHandler) logError(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
	}
}
