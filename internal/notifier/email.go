package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roadcall/dispatch/internal/models"
)

// EmailSender delivers notifications through the internal email-sending API.
type EmailSender struct {
	client HTTPClient
	url    string
	apiKey string
	sender string
	log    *slog.Logger
	tmpl   *template.Template
}

// Common errors for the email sender.
var (
	ErrEmailEmptyAddress = errors.New("provider has no email address")
)

// emailPayload is the email API request body.
type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// emailBody is the data passed to the HTML template.
type emailBody struct {
	ProviderName  string
	RequesterName string
	ServiceType   string
	Description   string
	Urgency       string
	Budget        string
	Location      string
	DistanceKm    float64
}

const emailTemplate = `<h2>New {{.ServiceType}} request near you</h2>
<p>Hi {{.ProviderName}},</p>
<p><strong>{{.RequesterName}}</strong> needs <strong>{{.ServiceType}}</strong> about {{printf "%.1f" .DistanceKm}} km from your shop.</p>
<ul>
  <li>Urgency: {{.Urgency}}</li>
  <li>Location: {{.Location}}</li>
  {{if .Budget}}<li>Budget: {{.Budget}}</li>{{end}}
</ul>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<p>Open the app to respond.</p>`

// NewEmailSender creates an email sender with a default HTTP client.
func NewEmailSender(url, apiKey, sender string, log *slog.Logger) *EmailSender {
	const timeout = 10
	return &EmailSender{
		client: &http.Client{Timeout: timeout * time.Second},
		url:    url,
		apiKey: apiKey,
		sender: sender,
		log:    log,
		tmpl:   template.Must(template.New("notify").Parse(emailTemplate)),
	}
}

// NewEmailSenderWithClient allows injecting a custom HTTP client, for tests.
func NewEmailSenderWithClient(client HTTPClient, url, apiKey, sender string, log *slog.Logger) *EmailSender {
	es := NewEmailSender(url, apiKey, sender, log)
	es.client = client

	return es
}

// Channel reports the channel this sender serves.
func (es *EmailSender) Channel() models.Channel { return models.ChannelEmail }

// Send renders the HTML template and posts one email for a single recipient.
func (es *EmailSender) Send(ctx context.Context, delivery Delivery) error {
	address := delivery.Provider.Email
	if address == "" {
		return ErrEmailEmptyAddress
	}

	request := delivery.Request
	requesterName := "A trucker"
	if delivery.Requester != nil && delivery.Requester.Name != "" {
		requesterName = delivery.Requester.Name
	}

	var html bytes.Buffer
	err := es.tmpl.Execute(&html, emailBody{
		ProviderName:  delivery.Provider.Name,
		RequesterName: requesterName,
		ServiceType:   models.FormatServiceType(request.ServiceType),
		Description:   request.Description,
		Urgency:       request.Urgency,
		Budget:        request.Budget,
		Location:      request.LocationLabel,
		DistanceKm:    delivery.DistanceKm,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	payload := emailPayload{
		From:    fmt.Sprintf("%s <no-reply@roadcall.app>", es.sender),
		To:      address,
		Subject: fmt.Sprintf("New %s request near you", models.FormatServiceType(request.ServiceType)),
		HTML:    html.String(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, es.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if es.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+es.apiKey)
	}

	resp, err := es.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		es.log.ErrorContext(ctx, "Email API error",
			"status", resp.StatusCode, "provider", delivery.Provider.ID, "body", string(respBody))
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	es.log.DebugContext(ctx, "Email notification sent",
		"provider", delivery.Provider.ID, "request", request.ID)

	return nil
}
