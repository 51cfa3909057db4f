package models

import "strings"

// Service type identifiers accepted on incoming requests.
const (
	ServiceTowing     = "towing"
	ServiceRepair     = "repair"
	ServiceMechanic   = "mechanic"
	ServiceTireRepair = "tire_repair"
	ServiceTruckWash  = "truck_wash"
	ServiceHoseRepair = "hose_repair"
)

// Urgency levels for a service request.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ServiceRequest is a newly inserted roadside-assistance request as delivered
// to the dispatcher. The dispatcher only reads it; it is created and owned by
// the requester-facing application.
type ServiceRequest struct {
	ID            string      // ID is the unique identifier of the request.
	RequesterID   string      // RequesterID identifies the trucker who created the request.
	Coordinates   Coordinates // Coordinates is the breakdown location.
	ServiceType   string      // ServiceType is one of the Service* identifiers.
	Urgency       string      // Urgency is one of the Urgency* levels.
	Description   string      // Description is the requester's free-text problem description.
	LocationLabel string      // LocationLabel is the requester's free-text location name.
	Budget        string      // Budget is the requester's stated budget, free text, may be empty.
}

// FormatServiceType renders a service type identifier for human-facing
// messages, e.g. "tire_repair" becomes "Tire Repair".
func FormatServiceType(serviceType string) string {
	words := strings.Split(serviceType, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
