// Package handlers holds the HTTP boundary: inbound webhooks and the
// operator dashboard. Handlers validate and enqueue; conversation processing
// happens in the worker pool.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sidekickhq/leadline/internal/conversation"
	"github.com/sidekickhq/leadline/internal/leads"
	"github.com/sidekickhq/leadline/internal/messaging"
	"github.com/sidekickhq/leadline/pkg/logging"
)

// WebhookHandler accepts new leads and inbound SMS callbacks.
type WebhookHandler struct {
	repo      leads.Repository
	publisher *conversation.Publisher
	logger    *logging.Logger

	// Twilio signature validation is enabled when both are set.
	twilioAuthToken string
	smsWebhookURL   string
}

// NewWebhookHandler wires the webhook endpoints.
func NewWebhookHandler(repo leads.Repository, publisher *conversation.Publisher, twilioAuthToken, smsWebhookURL string, logger *logging.Logger) *WebhookHandler {
	if repo == nil {
		panic("handlers: leads repository required")
	}
	if publisher == nil {
		panic("handlers: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		repo:            repo,
		publisher:       publisher,
		logger:          logger,
		twilioAuthToken: twilioAuthToken,
		smsWebhookURL:   smsWebhookURL,
	}
}

// leadPayload matches the wire format lead sources post. service_type is the
// historical field name and maps onto the requested service.
type leadPayload struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	ServiceType string `json:"service_type"`
	Source      string `json:"source"`
}

// ReceiveLead handles POST /webhook/lead. The lead is stored synchronously;
// the outreach text goes out through the worker pool.
func (h *WebhookHandler) ReceiveLead(w http.ResponseWriter, r *http.Request) {
	var payload leadPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := &leads.CreateLeadRequest{
		Name:             payload.Name,
		Phone:            payload.Phone,
		Email:            payload.Email,
		RequestedService: payload.ServiceType,
		Source:           payload.Source,
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, leads.ErrInvalidPhone) {
			writeError(w, http.StatusBadRequest, "Phone number required")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lead, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create lead", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store lead")
		return
	}

	if err := h.publisher.EnqueueOutreach(r.Context(), lead.ID); err != nil {
		// The lead is stored; outreach can be replayed manually.
		h.logger.Error("failed to enqueue outreach", "error", err, "lead_id", lead.ID)
		writeError(w, http.StatusInternalServerError, "failed to schedule outreach")
		return
	}

	h.logger.Info("lead received", "lead_id", lead.ID, "source", lead.Source)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"lead_id": lead.ID,
		"message": "Lead received and contact scheduled",
	})
}

// ReceiveSMS handles POST /webhook/sms from Twilio. It acknowledges with
// empty TwiML; the reply is generated and sent asynchronously.
func (h *WebhookHandler) ReceiveSMS(w http.ResponseWriter, r *http.Request) {
	if h.twilioAuthToken != "" && h.smsWebhookURL != "" {
		if !messaging.ValidateTwilioSignature(r, h.twilioAuthToken, h.smsWebhookURL) {
			h.logger.Error("twilio signature validation failed", "remote_ip", r.RemoteAddr)
			writeError(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	msg, err := messaging.ParseInboundSMS(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := h.publisher.EnqueueInbound(r.Context(), msg.From, msg.Body); err != nil {
		h.logger.Error("failed to enqueue inbound sms", "error", err, "from", msg.From)
		writeError(w, http.StatusInternalServerError, "failed to queue message")
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}

// Health handles GET /health.
func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
