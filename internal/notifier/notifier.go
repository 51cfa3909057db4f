package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/roadcall/dispatch/internal/models"
)

// HTTPClient is the interface used for outbound HTTP, allowing tests to
// substitute a mock transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Delivery is one notification to one provider about one request. Requester
// is populated for the email channel only, where the message names the
// person asking for help.
type Delivery struct {
	Provider   models.Provider
	Request    models.ServiceRequest
	Requester  *models.Requester
	DistanceKm float64
}

// Sender delivers a single notification over one channel. Implementations
// must treat every call independently: a failed send returns an error and
// nothing else, so the dispatcher can record it and carry on with the rest
// of the eligible set.
type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, delivery Delivery) error
}

// Config holds everything needed to construct a channel sender.
type Config struct {
	Channel    models.Channel
	GatewayURL string       // Push gateway endpoint.
	GatewayKey string       // Push gateway access token.
	EmailURL   string       // Email API endpoint.
	EmailKey   string       // Email API key.
	SenderName string       // Display name on outgoing email.
	RateLimit  int          // Push sends per second; zero means a small default.
	Logger     *slog.Logger // Logger for the sender.
}

// ErrUnsupportedChannel is returned by the factory for unknown channels.
var ErrUnsupportedChannel = errors.New("unsupported notification channel")

// New constructs a sender for the requested channel.
func New(cfg Config) (Sender, error) {
	switch cfg.Channel {
	case models.ChannelPush:
		return NewPushSender(cfg.GatewayURL, cfg.GatewayKey, cfg.RateLimit, cfg.Logger), nil
	case models.ChannelEmail:
		return NewEmailSender(cfg.EmailURL, cfg.EmailKey, cfg.SenderName, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, cfg.Channel)
	}
}
