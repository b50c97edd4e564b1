package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talenttrack/internal/form"
	"talenttrack/internal/platform/middleware"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
	"talenttrack/pkg/platform/sentinel"
)

// FormRegistry is the slice of the form store the admin routes need.
type FormRegistry interface {
	Save(ctx context.Context, f form.Form) error
	FindByID(ctx context.Context, id domain.FormID) (form.Form, error)
	ListByCycle(ctx context.Context, cycleID domain.CycleID) ([]form.Form, error)
}

// FormHandler administers the registry of connected external forms.
type FormHandler struct {
	forms  FormRegistry
	logger *slog.Logger
}

func NewFormHandler(forms FormRegistry, logger *slog.Logger) *FormHandler {
	return &FormHandler{forms: forms, logger: logger}
}

func (h *FormHandler) Register(r chi.Router) {
	r.Put("/forms", h.handleSave)
	r.Get("/forms/{id}", h.handleGet)
	r.Get("/cycles/{cycleID}/forms", h.handleListByCycle)
}

type formPayload struct {
	ID                  string            `json:"id,omitempty"`
	CycleID             string            `json:"cycleId"`
	Provider            string            `json:"provider"`
	ProviderFormRef     string            `json:"providerFormRef"`
	Title               string            `json:"title"`
	Sections            []form.Section    `json:"sections"`
	FieldMappings       map[string]string `json:"fieldMappings"`
	CanCreateCandidates bool              `json:"canCreateCandidates"`
}

func (h *FormHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var payload formPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	cycleID, err := domain.ParseCycleID(payload.CycleID)
	if err != nil {
		writeError(w, err)
		return
	}
	if payload.Provider == "" || payload.ProviderFormRef == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "provider and providerFormRef are required"))
		return
	}
	mappings, err := parseFieldMappings(payload.FieldMappings)
	if err != nil {
		writeError(w, err)
		return
	}

	f := form.New(cycleID, payload.Provider, payload.ProviderFormRef, payload.Title,
		payload.Sections, mappings, payload.CanCreateCandidates)
	if payload.ID != "" {
		// Replacing a form keeps its ID so responses referencing it stay
		// valid.
		id, err := domain.ParseFormID(payload.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		f.ID = id
	}

	if err := h.forms.Save(r.Context(), f); err != nil {
		h.logger.ErrorContext(r.Context(), "save form failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": f.ID.String()})
}

func (h *FormHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseFormID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.forms.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeError(w, dErrors.New(dErrors.CodeNotFound, "form not found"))
			return
		}
		h.logger.ErrorContext(r.Context(), "find form failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toFormPayload(f))
}

func (h *FormHandler) handleListByCycle(w http.ResponseWriter, r *http.Request) {
	cycleID, err := domain.ParseCycleID(chi.URLParam(r, "cycleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	forms, err := h.forms.ListByCycle(r.Context(), cycleID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list forms failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		writeError(w, err)
		return
	}
	views := make([]formPayload, 0, len(forms))
	for _, f := range forms {
		views = append(views, toFormPayload(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": views})
}

func toFormPayload(f form.Form) formPayload {
	mappings := make(map[string]string, len(f.FieldMappings))
	for qid, role := range f.FieldMappings {
		mappings[qid] = string(role)
	}
	return formPayload{
		ID:                  f.ID.String(),
		CycleID:             f.CycleID.String(),
		Provider:            f.Provider,
		ProviderFormRef:     f.ProviderFormRef,
		Title:               f.Title,
		Sections:            f.Sections,
		FieldMappings:       mappings,
		CanCreateCandidates: f.CanCreateCandidates,
	}
}

func parseFieldMappings(raw map[string]string) (map[string]form.FieldRole, error) {
	mappings := make(map[string]form.FieldRole, len(raw))
	for qid, role := range raw {
		switch form.FieldRole(role) {
		case form.FieldRoleNone, form.FieldRolePersonName, form.FieldRolePersonEmail:
			mappings[qid] = form.FieldRole(role)
		default:
			return nil, dErrors.New(dErrors.CodeInvalidInput, "field mapping must be empty, person.name, or person.email")
		}
	}
	return mappings, nil
}
