package contracts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roadcall/dispatch/internal/location"
	"github.com/roadcall/dispatch/internal/models"
)

// WatchedTable is the table whose inserts trigger a dispatch cycle.
const WatchedTable = "service_requests"

// Sentinel errors for event classification. ErrIgnoredEvent marks payloads
// that are valid but not ours (updates, other tables); transports
// acknowledge those instead of failing.
var (
	ErrIgnoredEvent   = errors.New("event is not a service request insert")
	ErrBadCoordinates = errors.New("request coordinates are missing or malformed")
)

// InsertEvent is the database-webhook envelope delivered over HTTP or AMQP.
type InsertEvent struct {
	Type   string          `json:"type"`
	Table  string          `json:"table"`
	Record json.RawMessage `json:"record"`
}

// RequestRecord is the inserted service_requests row. Coordinates stay raw
// because the column has been stored both as a JSON object and as text over
// the app's lifetime.
type RequestRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Coordinates json.RawMessage `json:"coordinates"`
	ServiceType string          `json:"service_type"`
	Urgency     string          `json:"urgency"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Budget      string          `json:"budget"`
}

// ParseInsertEvent decodes an event payload into a ServiceRequest.
// It returns ErrIgnoredEvent for events that should be acknowledged and
// dropped, and ErrBadCoordinates when the request's own position is
// unusable; the latter aborts the invocation since no distance can be
// computed without it.
func ParseInsertEvent(payload []byte) (*models.ServiceRequest, error) {
	var event InsertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}

	if event.Type != "INSERT" || event.Table != WatchedTable {
		return nil, ErrIgnoredEvent
	}

	var record RequestRecord
	if err := json.Unmarshal(event.Record, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record payload: %w", err)
	}

	coords, err := location.ParseStrict(record.Coordinates)
	if err != nil {
		return nil, ErrBadCoordinates
	}

	return &models.ServiceRequest{
		ID:            record.ID,
		RequesterID:   record.UserID,
		Coordinates:   *coords,
		ServiceType:   record.ServiceType,
		Urgency:       record.Urgency,
		Description:   record.Description,
		LocationLabel: record.Location,
		Budget:        record.Budget,
	}, nil
}
