package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekickhq/leadline/internal/conversation"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) (*TwilioSender, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sender := NewTwilioSender("AC123", "token", "+12485550199", nil)
	sender.baseURL = server.URL
	return sender, server
}

func TestTwilioSenderSendReply(t *testing.T) {
	var got struct {
		to, from, body string
		authOK         bool
	}
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.to = r.PostFormValue("To")
		got.from = r.PostFormValue("From")
		got.body = r.PostFormValue("Body")
		user, pass, ok := r.BasicAuth()
		got.authOK = ok && user == "AC123" && pass == "token"

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	})

	meta := map[string]string{}
	err := sender.SendReply(context.Background(), conversation.OutboundReply{
		To:       "+12485551234",
		Body:     "Hi Jordan!",
		Metadata: meta,
	})
	require.NoError(t, err)

	assert.Equal(t, "+12485551234", got.to)
	assert.Equal(t, "+12485550199", got.from)
	assert.Equal(t, "Hi Jordan!", got.body)
	assert.True(t, got.authOK)
	assert.Equal(t, "SM999", meta["provider_message_id"])
	assert.Equal(t, "queued", meta["provider_status"])
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := sender.SendReply(context.Background(), conversation.OutboundReply{
		To:   "+12485551234",
		Body: "retry me",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestTwilioSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number","status":400}`))
	})

	err := sender.SendReply(context.Background(), conversation.OutboundReply{
		To:   "not-a-number",
		Body: "hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
	assert.Equal(t, 1, calls)
}

func TestTwilioSenderValidation(t *testing.T) {
	sender := NewTwilioSender("", "", "", nil)
	err := sender.SendReply(context.Background(), conversation.OutboundReply{To: "+12485551234", Body: "x"})
	assert.Error(t, err)

	sender = NewTwilioSender("AC123", "token", "", nil)
	err = sender.SendReply(context.Background(), conversation.OutboundReply{Body: "x"})
	assert.Error(t, err)

	err = sender.SendReply(context.Background(), conversation.OutboundReply{To: "+12485551234", From: "+12485550199", Body: "  "})
	assert.Error(t, err)
}
