package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roadcall/dispatch/internal/models"
	"golang.org/x/time/rate"
)

// PushSender delivers notifications through an Expo-compatible push gateway.
type PushSender struct {
	client  HTTPClient
	url     string
	apiKey  string
	log     *slog.Logger
	limiter *rate.Limiter
}

// Common errors for the push sender.
var (
	ErrPushEmptyToken = errors.New("provider has no push token")
)

// pushPayload is the gateway request body for a single recipient.
type pushPayload struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data"`
	Priority string         `json:"priority"`
	Badge    int            `json:"badge"`
}

// NewPushSender creates a push sender with a default HTTP client. rateLimit
// is requests per second; zero falls back to a conservative default.
func NewPushSender(url, apiKey string, rateLimit int, log *slog.Logger) *PushSender {
	const timeout = 10
	if rateLimit <= 0 {
		rateLimit = 25
	}

	return &PushSender{
		client:  &http.Client{Timeout: timeout * time.Second},
		url:     url,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewPushSenderWithClient allows injecting a custom HTTP client and limiter.
func NewPushSenderWithClient(client HTTPClient, url, apiKey string, limiter *rate.Limiter, log *slog.Logger) *PushSender {
	return &PushSender{client: client, url: url, apiKey: apiKey, log: log, limiter: limiter}
}

// Channel reports the channel this sender serves.
func (ps *PushSender) Channel() models.Channel { return models.ChannelPush }

// PushTitle builds the notification title with the urgency prefix.
func PushTitle(urgency, serviceType string) string {
	var prefix string
	switch urgency {
	case models.UrgencyHigh:
		prefix = "🚨 URGENT"
	case models.UrgencyMedium:
		prefix = "⚡ Priority"
	default:
		prefix = "📋 New"
	}

	return fmt.Sprintf("%s %s Request", prefix, models.FormatServiceType(serviceType))
}

// Send posts one notification to the gateway for a single recipient.
func (ps *PushSender) Send(ctx context.Context, delivery Delivery) error {
	token := delivery.Provider.PushToken
	if token == "" {
		return ErrPushEmptyToken
	}

	if err := ps.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	request := delivery.Request
	payload := pushPayload{
		To:    token,
		Title: PushTitle(request.Urgency, request.ServiceType),
		Body: fmt.Sprintf("%s needed %.1f km away near %s",
			models.FormatServiceType(request.ServiceType), delivery.DistanceKm, request.LocationLabel),
		Data: map[string]any{
			"type":         "new_service_request",
			"request_id":   request.ID,
			"service_type": request.ServiceType,
			"urgency":      request.Urgency,
			"distance_km":  delivery.DistanceKm,
			"location":     request.LocationLabel,
		},
		Priority: "high",
		Badge:    1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ps.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if ps.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ps.apiKey)
	}

	resp, err := ps.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		ps.log.ErrorContext(ctx, "Push gateway error",
			"status", resp.StatusCode, "provider", delivery.Provider.ID, "body", string(respBody))
		return fmt.Errorf("push gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	ps.log.DebugContext(ctx, "Push notification sent",
		"provider", delivery.Provider.ID, "request", request.ID)

	return nil
}
