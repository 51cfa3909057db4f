package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Notifications    *prometheus.CounterVec
	SkippedProviders *prometheus.CounterVec
	EligibleCount    *prometheus.HistogramVec
	SendSeconds      *prometheus.HistogramVec
	InflightSends    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Notifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_notifications_total",
			Help: "Total number of notification send attempts by channel and status.",
		}, []string{"channel", "status"}),
		SkippedProviders: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_providers_skipped_total",
			Help: "Providers excluded before sending, by reason.",
		}, []string{"reason"}),
		EligibleCount: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_eligible_providers",
			Help:    "Number of eligible providers per dispatch cycle.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"channel"}),
		SendSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_send_duration_seconds",
			Help:    "Duration of individual notification sends.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),
		InflightSends: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_inflight_sends",
			Help: "Current number of notification sends in flight.",
		}),
	}
}
