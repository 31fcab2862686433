// Package messaging handles SMS transport: parsing inbound Twilio webhooks
// and delivering outbound replies.
package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// InboundSMS is one customer text as delivered by the Twilio webhook.
type InboundSMS struct {
	MessageSID string
	AccountSID string
	From       string
	To         string
	Body       string
}

// ParseInboundSMS decodes the form-encoded Twilio webhook body.
func ParseInboundSMS(r *http.Request) (*InboundSMS, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse webhook form: %w", err)
	}

	msg := &InboundSMS{
		MessageSID: r.FormValue("MessageSid"),
		AccountSID: r.FormValue("AccountSid"),
		From:       r.FormValue("From"),
		To:         r.FormValue("To"),
		Body:       r.FormValue("Body"),
	}
	if msg.From == "" {
		return nil, fmt.Errorf("messaging: webhook missing From")
	}
	return msg, nil
}

// ValidateTwilioSignature checks the X-Twilio-Signature header against the
// auth token. webhookURL must be the full public URL Twilio was configured
// with.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	expected := computeSignature(signaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// signaturePayload is the URL followed by the POST params concatenated in
// sorted key order, per Twilio's security docs.
func signaturePayload(webhookURL string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(webhookURL)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
