package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilitySaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutorcal",
			Name:      "availability_saves_total",
			Help:      "Count of availability save attempts by result.",
		},
		[]string{"result"},
	)

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutorcal",
			Name:      "booking_decisions_total",
			Help:      "Count of tutor decisions over pending bookings.",
		},
		[]string{"decision", "result"},
	)

	staleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tutorcal",
			Name:      "stale_responses_total",
			Help:      "Count of API responses dropped because a newer request or teardown superseded them.",
		},
		[]string{"source"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tutorcal",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of backend API calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"endpoint", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(availabilitySaves, bookingDecisions, staleResponses, apiDuration)
	})
}

func IncAvailabilitySave(result string) {
	availabilitySaves.WithLabelValues(result).Inc()
}

func IncBookingDecision(decision, result string) {
	bookingDecisions.WithLabelValues(decision, result).Inc()
}

func IncStaleResponse(source string) {
	staleResponses.WithLabelValues(source).Inc()
}

// ObserveAPIRequest records one backend call. Status 0 means a transport error.
func ObserveAPIRequest(endpoint string, status int, d time.Duration) {
	apiDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(d.Seconds())
}
