package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekickhq/leadline/internal/conversation"
	"github.com/sidekickhq/leadline/internal/leads"
)

type webhookFixture struct {
	handler *WebhookHandler
	repo    leads.Repository
	queue   *conversation.MemoryQueue
}

func newWebhookFixture(t *testing.T, authToken, webhookURL string) *webhookFixture {
	t.Helper()
	repo := leads.NewInMemoryRepository()
	queue := conversation.NewMemoryQueue(16)
	publisher := conversation.NewPublisher(queue, nil)
	return &webhookFixture{
		handler: NewWebhookHandler(repo, publisher, authToken, webhookURL, nil),
		repo:    repo,
		queue:   queue,
	}
}

func (fx *webhookFixture) nextJob(t *testing.T) map[string]string {
	t.Helper()
	msgs, err := fx.queue.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var job map[string]string
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Body), &job))
	return job
}

func TestReceiveLead(t *testing.T) {
	fx := newWebhookFixture(t, "", "")

	body := `{"name":"Jordan Miller","phone":"248-555-1234","email":"jordan@example.com","service_type":"furnace repair","source":"web"}`
	r := httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader(body))
	w := httptest.NewRecorder()

	fx.handler.ReceiveLead(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp struct {
		Success bool   `json:"success"`
		LeadID  string `json:"lead_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotEmpty(t, resp.LeadID)

	lead, err := fx.repo.GetByID(context.Background(), resp.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "+12485551234", lead.Phone)
	assert.Equal(t, "furnace repair", lead.RequestedService)
	assert.Equal(t, leads.StatusNew, lead.Status)

	job := fx.nextJob(t)
	assert.Equal(t, "outreach", job["kind"])
	assert.Equal(t, resp.LeadID, job["lead_id"])
}

func TestReceiveLeadMissingPhone(t *testing.T) {
	fx := newWebhookFixture(t, "", "")

	r := httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader(`{"name":"Jordan"}`))
	w := httptest.NewRecorder()

	fx.handler.ReceiveLead(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Phone number required")
}

func TestReceiveLeadBadJSON(t *testing.T) {
	fx := newWebhookFixture(t, "", "")

	r := httptest.NewRequest(http.MethodPost, "/webhook/lead", strings.NewReader("{nope"))
	w := httptest.NewRecorder()

	fx.handler.ReceiveLead(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func smsRequest(body url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/webhook/sms", strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestReceiveSMS(t *testing.T) {
	fx := newWebhookFixture(t, "", "")

	form := url.Values{}
	form.Set("From", "+12485551234")
	form.Set("Body", "my furnace died")
	w := httptest.NewRecorder()

	fx.handler.ReceiveSMS(w, smsRequest(form))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<Response></Response>")

	job := fx.nextJob(t)
	assert.Equal(t, "inbound_sms", job["kind"])
	assert.Equal(t, "+12485551234", job["from"])
	assert.Equal(t, "my furnace died", job["body"])
}

func TestReceiveSMSRejectsBadSignature(t *testing.T) {
	fx := newWebhookFixture(t, "auth-token", "https://example.com/webhook/sms")

	form := url.Values{}
	form.Set("From", "+12485551234")
	form.Set("Body", "hello")
	r := smsRequest(form)
	r.Header.Set("X-Twilio-Signature", "bogus")
	w := httptest.NewRecorder()

	fx.handler.ReceiveSMS(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	fx := newWebhookFixture(t, "", "")

	w := httptest.NewRecorder()
	fx.handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
