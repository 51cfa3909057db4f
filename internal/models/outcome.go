package models

// Notification outcome statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// NotificationOutcome records the result of one send attempt to one
// provider. Outcomes live only for the duration of a dispatch cycle and are
// returned to the caller, never persisted.
type NotificationOutcome struct {
	ProviderID string  `json:"provider_id"`
	Channel    Channel `json:"channel"`
	Status     string  `json:"status"`
	DistanceKm float64 `json:"distance_km"`
	Error      string  `json:"error,omitempty"`
}

// DispatchSummary aggregates one dispatch cycle over a single channel.
type DispatchSummary struct {
	Channel  Channel               `json:"channel"`
	Notified int                   `json:"notified"`
	Eligible int                   `json:"eligible"`
	Outcomes []NotificationOutcome `json:"outcomes"`
}
