package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle label values
const (
	CyclePrice  = "price"
	CycleFlight = "flight"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	AlertsChecked     prometheus.Counter
	TracksChecked     prometheus.Counter
	NotificationsSent *prometheus.CounterVec
	ErrorsCount       *prometheus.CounterVec
	ProviderRequests  *prometheus.CounterVec
	CycleDuration     *prometheus.HistogramVec
	CyclesSkipped     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics registered on reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AlertsChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_checked_total",
			Help:      "The total number of price alert checks",
		}),
		TracksChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_checked_total",
			Help:      "The total number of flight status checks",
		}),
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "The total number of notifications dispatched, by reason",
		}, []string{"reason"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Requests made to the flight data provider",
		}, []string{"endpoint", "outcome"}),
		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_cycle_duration_seconds",
			Help:      "Time taken by a full check cycle",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"cycle"}),
		CyclesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Check cycles skipped because the previous one was still running",
		}, []string{"cycle"}),
	}
}
