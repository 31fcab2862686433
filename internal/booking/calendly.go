package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sidekickhq/leadline/pkg/logging"
)

const calendlyAPIBase = "https://api.calendly.com"

// bookingWindow is how far ahead we look for an open slot.
const bookingWindow = 7 * 24 * time.Hour

// CalendlyClient books the first available slot for a configured event type.
// Calendly requires the invitee to confirm through their UI, so the
// confirmation carries the scheduling URL alongside the slot time.
type CalendlyClient struct {
	apiKey     string
	eventType  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewCalendlyClient builds a scheduler for the given API key and event type
// URI.
func NewCalendlyClient(apiKey, eventType string, logger *logging.Logger) *CalendlyClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendlyClient{
		apiKey:     apiKey,
		eventType:  eventType,
		baseURL:    calendlyAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

var _ Scheduler = (*CalendlyClient)(nil)

type availableTimesResponse struct {
	Collection []struct {
		StartTime     time.Time `json:"start_time"`
		SchedulingURL string    `json:"scheduling_url"`
		Status        string    `json:"status"`
	} `json:"collection"`
}

// BookSlot reserves the earliest open slot within the booking window.
func (c *CalendlyClient) BookSlot(ctx context.Context, req Request) (*Confirmation, error) {
	if c.apiKey == "" || c.eventType == "" {
		return nil, ErrNotConfigured
	}

	now := time.Now().UTC()
	query := url.Values{}
	query.Set("event_type", c.eventType)
	query.Set("start_time", now.Format(time.RFC3339))
	query.Set("end_time", now.Add(bookingWindow).Format(time.RFC3339))

	endpoint := fmt.Sprintf("%s/event_type_available_times?%s", c.baseURL, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("booking: failed to build availability request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("booking: availability request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("booking: calendly returned status %d: %s", resp.StatusCode, string(body))
	}

	var times availableTimesResponse
	if err := json.NewDecoder(resp.Body).Decode(&times); err != nil {
		return nil, fmt.Errorf("booking: failed to decode availability: %w", err)
	}
	if len(times.Collection) == 0 {
		return nil, ErrNoSlotAvailable
	}

	slot := times.Collection[0]
	c.logger.Info("calendly slot selected", "time", slot.StartTime, "name", req.Name)

	return &Confirmation{
		Time:          slot.StartTime,
		SchedulingURL: slot.SchedulingURL,
	}, nil
}
