package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talenttrack/internal/audit"
	"talenttrack/internal/candidate"
	"talenttrack/internal/form"
	"talenttrack/internal/incident"
	"talenttrack/internal/platform/middleware"
	"talenttrack/internal/reconcile"
	"talenttrack/internal/response"
	"talenttrack/pkg/domain"
)

// allowValidator accepts any token and names a fixed recruiter.
type allowValidator struct{}

func (allowValidator) ValidateToken(string) (*middleware.JWTClaims, error) {
	return &middleware.JWTClaims{UserID: "recruiter-1", Role: "recruiter"}, nil
}

type apiFixture struct {
	router     http.Handler
	forms      *form.InMemoryStore
	responses  *response.InMemoryStore
	candidates *candidate.InMemoryStore
	incidents  *incident.InMemoryStore
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	forms := form.NewInMemoryStore()
	responses := response.NewInMemoryStore()
	candidates := candidate.NewInMemoryStore()
	incidents := incident.NewInMemoryStore()
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), logger)
	t.Cleanup(auditor.Close)

	incidentSvc := incident.NewService(incidents, nil, time.Minute, logger)
	engine := reconcile.NewEngine(
		forms, responses, candidates,
		candidate.NewResolver(candidates, false),
		incidents, incidentSvc, auditor, nil, logger, time.Time{},
	)

	router := NewRouter(Deps{
		Webhook:   NewWebhookHandler(engine, nil, time.Hour, logger),
		Responses: NewResponseHandler(engine, logger),
		Incidents: NewIncidentHandler(incidentSvc, logger),
		Forms:     NewFormHandler(forms, logger),
		Validator: allowValidator{},
		Logger:    logger,
	})
	return &apiFixture{
		router:     router,
		forms:      forms,
		responses:  responses,
		candidates: candidates,
		incidents:  incidents,
	}
}

func (fx *apiFixture) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer token")
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

func TestRouter_ManualRoutesRequireAuth(t *testing.T) {
	fx := newAPIFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/incidents"},
		{http.MethodGet, "/forms/" + domain.NewFormID().String()},
		{http.MethodPost, "/responses/" + domain.NewResponseID().String() + "/process"},
	} {
		w := fx.do(t, route.method, route.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestRouter_WebhookIsPublicAndAlwaysAccepts(t *testing.T) {
	fx := newAPIFixture(t)

	// Unknown form: the delivery is still acknowledged.
	w := fx.do(t, http.MethodPost, "/webhooks/forms/webforms/responses", map[string]any{
		"form_ref":         "unknown",
		"respondent_email": "a@x.org",
	}, false)
	assert.Equal(t, http.StatusAccepted, w.Code)

	// Malformed body too.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/forms/webforms/responses",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRouter_EndToEndSubmissionFlow(t *testing.T) {
	fx := newAPIFixture(t)
	cycleID := domain.NewCycleID()

	// Register a creating form.
	w := fx.do(t, http.MethodPut, "/forms", formPayload{
		CycleID:         cycleID.String(),
		Provider:        "webforms",
		ProviderFormRef: "wf-1",
		Title:           "Application",
		Sections: []form.Section{{Title: "About", Questions: []form.Question{
			{ID: "q-name", Title: "Name", Type: "text"},
			{ID: "q-email", Title: "Email", Type: "text"},
		}}},
		FieldMappings:       map[string]string{"q-name": "person.name", "q-email": "person.email"},
		CanCreateCandidates: true,
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	// First submission creates a candidate.
	w = fx.do(t, http.MethodPost, "/webhooks/forms/webforms/responses", map[string]any{
		"form_ref":         "wf-1",
		"respondent_email": "new@x.org",
		"answers":          map[string]any{"q-name": "Jane Doe", "q-email": "new@x.org"},
	}, false)
	require.Equal(t, http.StatusAccepted, w.Code)

	// Second submission from the same address blocks with a warning.
	w = fx.do(t, http.MethodPost, "/webhooks/forms/webforms/responses", map[string]any{
		"form_ref":         "wf-1",
		"respondent_email": "new@x.org",
		"answers":          map[string]any{"q-name": "Jane Doe", "q-email": "new@x.org"},
	}, false)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = fx.do(t, http.MethodGet, "/incidents/counts", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var counts incident.OpenCounts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, 0, counts.Errors)
	assert.Equal(t, 1, counts.Warnings)

	// Exactly one unprocessed response remains, with its respondent email.
	w = fx.do(t, http.MethodGet, "/cycles/"+cycleID.String()+"/responses/unprocessed", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Responses []responseView `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Responses, 1)
	stuck := listing.Responses[0]
	assert.False(t, stuck.Processed)

	// The recruiter force-creates anyway... which conflicts with the
	// existing owner of the address.
	w = fx.do(t, http.MethodPost, "/responses/"+stuck.ID+"/force-create", nil, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	// ...so they attach to the existing candidate instead.
	w = fx.do(t, http.MethodPost, "/responses/"+stuck.ID+"/process", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	// Still blocked: automatic processing never attaches on a creating form.
	// Resolve via explicit attach.
	matches, err := fx.candidates.FindByEmails(t.Context(), []string{"new@x.org"}, domain.CycleID{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	w = fx.do(t, http.MethodPost, "/responses/"+stuck.ID+"/attach",
		attachRequest{CandidateID: matches[0].ID.String()}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var attachRes reconcile.AttachResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attachRes))
	assert.False(t, attachRes.NeedsEmailConfirmation)

	// Nothing unprocessed is left.
	w = fx.do(t, http.MethodGet, "/cycles/"+cycleID.String()+"/responses/unprocessed", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Empty(t, listing.Responses)
}

func TestRouter_FormRoundTrip(t *testing.T) {
	fx := newAPIFixture(t)
	cycleID := domain.NewCycleID()

	w := fx.do(t, http.MethodPut, "/forms", formPayload{
		CycleID:         cycleID.String(),
		Provider:        "webforms",
		ProviderFormRef: "wf-9",
		Title:           "Screening",
		FieldMappings:   map[string]string{"q1": "person.email"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = fx.do(t, http.MethodGet, "/forms/"+created["id"], nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var got formPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "webforms", got.Provider)
	assert.Equal(t, "person.email", got.FieldMappings["q1"])
	assert.False(t, got.CanCreateCandidates)

	w = fx.do(t, http.MethodGet, "/cycles/"+cycleID.String()+"/forms", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var forms struct {
		Forms []formPayload `json:"forms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	require.Len(t, forms.Forms, 1)
	assert.Equal(t, created["id"], forms.Forms[0].ID)

	w = fx.do(t, http.MethodGet, "/cycles/"+domain.NewCycleID().String()+"/forms", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &forms))
	assert.Empty(t, forms.Forms)
}

func TestRouter_FormRejectsUnknownRole(t *testing.T) {
	fx := newAPIFixture(t)

	w := fx.do(t, http.MethodPut, "/forms", formPayload{
		CycleID:         domain.NewCycleID().String(),
		Provider:        "webforms",
		ProviderFormRef: "wf-2",
		FieldMappings:   map[string]string{"q1": "person.phone"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Healthz(t *testing.T) {
	fx := newAPIFixture(t)
	w := fx.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}
