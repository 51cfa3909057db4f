package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roadcall/dispatch/internal/geo"
	"github.com/roadcall/dispatch/internal/location"
	"github.com/roadcall/dispatch/internal/metrics"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/roadcall/dispatch/internal/notifier"
	"github.com/roadcall/dispatch/internal/repository"
)

// DefaultRadiusKm is the service radius assumed for providers that never set
// one. Kept configurable; 50 matches the marketplace's original default.
const DefaultRadiusKm = 50.0

// Dispatcher matches a new service request against registered providers and
// fans notifications out to the eligible set.
type Dispatcher struct {
	log             *slog.Logger
	repo            repository.Interface
	resolver        *location.Resolver
	metrics         *metrics.Metrics
	senders         []notifier.Sender
	defaultRadiusKm float64
}

// candidate pairs a provider with its computed distance to the request.
type candidate struct {
	provider   models.Provider
	distanceKm float64
}

// NewDispatcher creates a dispatcher. senders lists the channels to fan out
// on, typically one push and one email sender.
func NewDispatcher(
	log *slog.Logger,
	repo repository.Interface,
	resolver *location.Resolver,
	appMetrics *metrics.Metrics,
	senders []notifier.Sender,
	defaultRadiusKm float64,
) *Dispatcher {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = DefaultRadiusKm
	}

	return &Dispatcher{
		log:             log,
		repo:            repo,
		resolver:        resolver,
		metrics:         appMetrics,
		senders:         senders,
		defaultRadiusKm: defaultRadiusKm,
	}
}

// DispatchAll runs one dispatch cycle per configured channel. The cycles are
// causally independent; an error is returned only for infrastructure
// failures (the candidate query), which abort the whole invocation.
func (d *Dispatcher) DispatchAll(
	ctx context.Context,
	request models.ServiceRequest,
) ([]models.DispatchSummary, error) {
	summaries := make([]models.DispatchSummary, 0, len(d.senders))
	for _, sender := range d.senders {
		summary, err := d.DispatchChannel(ctx, sender, request)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

// DispatchChannel selects the eligible providers for one channel and sends
// to all of them concurrently, settling every attempt before returning.
func (d *Dispatcher) DispatchChannel(
	ctx context.Context,
	sender notifier.Sender,
	request models.ServiceRequest,
) (*models.DispatchSummary, error) {
	channel := sender.Channel()

	providers, err := d.repo.ListCandidates(ctx, channel)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to fetch provider candidates",
			"channel", channel, "error", err)
		return nil, err
	}

	var requester *models.Requester
	if channel == models.ChannelEmail {
		requester, err = d.repo.GetRequester(ctx, request.RequesterID)
		if err != nil {
			// The email template degrades to a generic greeting; a missing
			// profile row must not block notifying providers.
			d.log.WarnContext(ctx, "Requester lookup failed, sending anonymous emails",
				"requester", request.RequesterID, "error", err)
			requester = nil
		}
	}

	eligible := d.selectEligible(ctx, request, providers, channel)
	d.metrics.EligibleCount.WithLabelValues(string(channel)).Observe(float64(len(eligible)))

	d.log.InfoContext(ctx, "Eligible providers selected",
		"channel", channel, "request", request.ID,
		"candidates", len(providers), "eligible", len(eligible))

	outcomes := d.fanOut(ctx, sender, request, requester, eligible)

	notified := 0
	for _, outcome := range outcomes {
		if outcome.Status == models.StatusSent {
			notified++
		}
	}

	return &models.DispatchSummary{
		Channel:  channel,
		Notified: notified,
		Eligible: len(eligible),
		Outcomes: outcomes,
	}, nil
}

// selectEligible filters candidates down to providers that can actually be
// notified: a contact address for the channel, a resolvable location within
// the effective service radius, and a matching offered service. Failures are
// silent per-provider exclusions, never errors.
func (d *Dispatcher) selectEligible(
	ctx context.Context,
	request models.ServiceRequest,
	providers []models.Provider,
	channel models.Channel,
) []candidate {
	var eligible []candidate
	for _, provider := range providers {
		if provider.Contact(channel) == "" {
			d.metrics.SkippedProviders.WithLabelValues("no_contact").Inc()
			continue
		}

		coords, err := d.resolver.Resolve(ctx, provider.RawLocation)
		if err != nil {
			d.metrics.SkippedProviders.WithLabelValues("unresolvable_location").Inc()
			d.log.DebugContext(ctx, "Skipping provider with unresolvable location",
				"provider", provider.ID)
			continue
		}

		distance := geo.Distance(request.Coordinates, *coords)

		radius := provider.RadiusKm
		if radius <= 0 {
			radius = d.defaultRadiusKm
		}
		if distance > radius {
			d.metrics.SkippedProviders.WithLabelValues("out_of_radius").Inc()
			continue
		}

		if !offersService(provider.Services, request.ServiceType) {
			d.metrics.SkippedProviders.WithLabelValues("service_mismatch").Inc()
			continue
		}

		eligible = append(eligible, candidate{provider: provider, distanceKm: distance})
	}

	return eligible
}

// offersService reports whether a provider takes the requested service type.
// An empty list means the provider takes anything. Matching is
// case-insensitive exact membership on both channels.
func offersService(services []string, serviceType string) bool {
	if len(services) == 0 {
		return true
	}
	for _, service := range services {
		if strings.EqualFold(strings.TrimSpace(service), serviceType) {
			return true
		}
	}

	return false
}

// fanOut issues one send per eligible provider concurrently and waits for
// every attempt to settle. Each goroutine writes only its own outcome slot,
// so no locking is needed; a failed send is recorded and never affects the
// other recipients.
func (d *Dispatcher) fanOut(
	ctx context.Context,
	sender notifier.Sender,
	request models.ServiceRequest,
	requester *models.Requester,
	eligible []candidate,
) []models.NotificationOutcome {
	channel := sender.Channel()
	outcomes := make([]models.NotificationOutcome, len(eligible))

	var wgr sync.WaitGroup
	for i, cand := range eligible {
		wgr.Add(1)
		go func(idx int, cand candidate) {
			defer wgr.Done()

			d.metrics.InflightSends.Inc()
			defer d.metrics.InflightSends.Dec()

			delivery := notifier.Delivery{
				Provider:   cand.provider,
				Request:    request,
				Requester:  requester,
				DistanceKm: cand.distanceKm,
			}

			startTime := time.Now()
			err := sender.Send(ctx, delivery)
			d.metrics.SendSeconds.WithLabelValues(string(channel)).Observe(time.Since(startTime).Seconds())

			outcome := models.NotificationOutcome{
				ProviderID: cand.provider.ID,
				Channel:    channel,
				Status:     models.StatusSent,
				DistanceKm: cand.distanceKm,
			}
			if err != nil {
				outcome.Status = models.StatusFailed
				outcome.Error = err.Error()
				d.log.ErrorContext(ctx, "Notification send failed",
					"provider", cand.provider.ID, "channel", channel, "error", err)
			}
			d.metrics.Notifications.WithLabelValues(string(channel), outcome.Status).Inc()

			outcomes[idx] = outcome
		}(i, cand)
	}
	wgr.Wait()

	return outcomes
}
