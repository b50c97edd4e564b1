package httptransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"talenttrack/internal/platform/middleware"
	"talenttrack/internal/platform/redis"
	"talenttrack/pkg/domain"
)

// Ingestor is the slice of the reconciliation engine the webhook needs.
type Ingestor interface {
	Submit(ctx context.Context, provider, providerFormRef, respondentEmail string, answers map[string]any, submittedAt time.Time) (domain.ResponseID, error)
}

// WebhookHandler receives raw third-party submissions. Whatever happens
// inside, the sender gets 202: the provider must never reject or retry a
// delivery because of our internal state.
type WebhookHandler struct {
	ingestor  Ingestor
	dedupe    *redis.Client // nil: delivery dedupe disabled
	dedupeTTL time.Duration
	logger    *slog.Logger
}

func NewWebhookHandler(ingestor Ingestor, dedupe *redis.Client, dedupeTTL time.Duration, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor, dedupe: dedupe, dedupeTTL: dedupeTTL, logger: logger}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/forms/{provider}/responses", h.handleSubmission)
}

type webhookPayload struct {
	DeliveryID      string         `json:"delivery_id"`
	FormRef         string         `json:"form_ref"`
	RespondentEmail string         `json:"respondent_email"`
	SubmittedAt     time.Time      `json:"submitted_at"`
	Answers         map[string]any `json:"answers"`
}

func (h *WebhookHandler) handleSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	requestID := middleware.GetRequestID(ctx)

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		// Accepted anyway; a malformed delivery is our problem to debug, not
		// the provider's to retry.
		h.logger.WarnContext(ctx, "malformed webhook payload",
			"provider", provider, "request_id", requestID, "error", err)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if h.seenDelivery(ctx, provider, payload.DeliveryID) {
		h.logger.InfoContext(ctx, "duplicate webhook delivery skipped",
			"provider", provider, "delivery_id", payload.DeliveryID, "request_id", requestID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	responseID, err := h.ingestor.Submit(ctx, provider, payload.FormRef,
		payload.RespondentEmail, payload.Answers, payload.SubmittedAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "webhook submission not stored",
			"provider", provider, "form_ref", payload.FormRef,
			"request_id", requestID, "error", err)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	h.logger.InfoContext(ctx, "webhook submission stored",
		"provider", provider, "response_id", responseID, "request_id", requestID)
	w.WriteHeader(http.StatusAccepted)
}

// seenDelivery claims the provider's delivery ID in redis. First claim wins;
// a later identical delivery within the TTL is a redelivery and is dropped.
// With redis unavailable ingestion proceeds unguarded, the reconciliation
// engine's idempotence still prevents duplicate candidates.
func (h *WebhookHandler) seenDelivery(ctx context.Context, provider, deliveryID string) bool {
	if h.dedupe == nil || deliveryID == "" {
		return false
	}
	key := fmt.Sprintf("talenttrack:webhook:delivery:%s:%s", provider, deliveryID)
	claimed, err := h.dedupe.SetNX(ctx, key, 1, h.dedupeTTL).Result()
	if err != nil {
		h.logger.WarnContext(ctx, "delivery dedupe unavailable", "error", err)
		return false
	}
	return !claimed
}
