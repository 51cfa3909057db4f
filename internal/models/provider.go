package models

// Channel identifies a notification delivery channel.
type Channel string

const (
	// ChannelPush delivers notifications through the push gateway.
	ChannelPush Channel = "push"
	// ChannelEmail delivers notifications through the email API.
	ChannelEmail Channel = "email"
)

// Provider is a registered service provider as stored by the marketplace.
// Location is kept raw because historical records mix a JSON coordinate
// object, a "lat,lng" string and free-text place names.
type Provider struct {
	ID          string   // ID is the unique identifier of the provider.
	Name        string   // Name is the provider's display name.
	PushToken   string   // PushToken is the push gateway recipient token, may be empty.
	Email       string   // Email is the provider's email address, may be empty.
	RawLocation string   // RawLocation is the stored location in whatever shape it was saved.
	RadiusKm    float64  // RadiusKm is the service radius; zero means "use the default".
	Services    []string // Services offered; empty means the provider takes any job.
}

// Contact returns the provider's address for the given channel, or an empty
// string when the channel is not configured for this provider.
func (p Provider) Contact(channel Channel) string {
	switch channel {
	case ChannelPush:
		return p.PushToken
	case ChannelEmail:
		return p.Email
	default:
		return ""
	}
}

// Requester holds the display name and email of the trucker who created a
// request, looked up separately for email notifications.
type Requester struct {
	ID    string
	Name  string
	Email string
}
