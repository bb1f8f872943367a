package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// maxWebhookBodyBytes bounds pipeline webhook payloads.
const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandlePipeline handles POST /webhooks/pipeline
// Verifies the signature over the raw body before any decoding happens.
func (h *WebhookHandler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read request body")
		return
	}

	signature := r.Header.Get("Pipeline-Signature")
	if err := h.webhookService.VerifySignature(signature, body); err != nil {
		switch {
		case errors.Is(err, service.ErrStaleSignature):
			log.Printf("[Webhook] Rejected stale signature")
			httputil.WriteUnauthorized(w, "Signature timestamp out of tolerance")
		default:
			log.Printf("[Webhook] Rejected invalid signature")
			httputil.WriteUnauthorized(w, "Invalid signature")
		}
		return
	}

	var event model.PipelineEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httputil.WriteBadRequest(w, "Invalid event payload")
		return
	}

	if err := h.webhookService.HandleEvent(r.Context(), event); err != nil {
		// The pipeline retries non-2xx deliveries.
		log.Printf("[ERROR] Pipeline webhook handler: type=%s err=%v", event.Type, err)
		httputil.WriteInternalError(w, "Failed to process event")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"received": "ok"})
}
