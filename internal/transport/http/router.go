package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"talenttrack/internal/platform/middleware"
	"talenttrack/internal/ratelimit"
)

// Deps collects everything the router mounts.
type Deps struct {
	Webhook   *WebhookHandler
	Responses *ResponseHandler
	Incidents *IncidentHandler
	Forms     *FormHandler
	Validator middleware.JWTValidator
	// WebhookLimiter throttles the public webhook per source IP; nil
	// disables it.
	WebhookLimiter *ratelimit.Middleware
	Logger         *slog.Logger
}

// NewRouter wires all endpoints. The webhook route stays outside the auth
// wall: the provider authenticates through its delivery mechanism, not ours.
// Everything a recruiter touches requires a bearer token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(d.WebhookLimiter.Handler)
		d.Webhook.Register(public)
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(d.Validator, d.Logger))
		d.Responses.Register(authed)
		d.Incidents.Register(authed)
		d.Forms.Register(authed)
	})

	return r
}
