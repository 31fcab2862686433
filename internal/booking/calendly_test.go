package booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendly(t *testing.T, handler http.HandlerFunc) *CalendlyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewCalendlyClient("test-key", "https://api.calendly.com/event_types/ET1", nil)
	client.baseURL = server.URL
	return client
}

func TestCalendlyBookSlotFirstAvailable(t *testing.T) {
	client := newTestCalendly(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://api.calendly.com/event_types/ET1", r.URL.Query().Get("event_type"))
		assert.NotEmpty(t, r.URL.Query().Get("start_time"))
		assert.NotEmpty(t, r.URL.Query().Get("end_time"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collection":[
			{"start_time":"2026-09-03T14:00:00Z","scheduling_url":"https://calendly.com/s/abc","status":"available"},
			{"start_time":"2026-09-03T15:00:00Z","scheduling_url":"https://calendly.com/s/def","status":"available"}
		]}`))
	})

	confirmation, err := client.BookSlot(context.Background(), Request{Name: "Jordan Miller"})
	require.NoError(t, err)
	assert.True(t, confirmation.Time.Equal(time.Date(2026, time.September, 3, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "https://calendly.com/s/abc", confirmation.SchedulingURL)
}

func TestCalendlyBookSlotNoAvailability(t *testing.T) {
	client := newTestCalendly(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"collection":[]}`))
	})

	_, err := client.BookSlot(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoSlotAvailable)
}

func TestCalendlyBookSlotUpstreamError(t *testing.T) {
	client := newTestCalendly(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthenticated"}`))
	})

	_, err := client.BookSlot(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCalendlyBookSlotUnconfigured(t *testing.T) {
	client := NewCalendlyClient("", "", nil)

	_, err := client.BookSlot(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDisabledScheduler(t *testing.T) {
	_, err := NewDisabled().BookSlot(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
