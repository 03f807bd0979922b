package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "barter"

var (
	exchangeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_transitions_total",
			Help:      "Number of committed exchange transitions.",
		},
		[]string{"kind", "status"},
	)
	exchangeConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exchange_conflicts_total",
		Help:      "Number of exchange updates rejected by the version check.",
	})
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of served HTTP requests.",
		},
		[]string{"method", "status"},
	)
	activeReservations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_reservations",
		Help:      "Number of inventory holds currently active.",
	})
)

func init() {
	prometheus.MustRegister(
		exchangeTransitions, exchangeConflicts, httpRequests, activeReservations,
	)
}

// RecordTransition counts a committed transition of the given kind, labeled
// with the aggregate status it led to.
func RecordTransition(kind, status string) {
	exchangeTransitions.WithLabelValues(kind, status).Inc()
}

// RecordConflict ...
func RecordConflict() {
	exchangeConflicts.Inc()
}

// RecordHTTPRequest ...
func RecordHTTPRequest(method string, status int) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// AddActiveReservations moves the active holds gauge by delta.
func AddActiveReservations(delta int) {
	activeReservations.Add(float64(delta))
}
