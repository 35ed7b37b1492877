package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the public booking flow.
type BookingMetrics struct {
	availabilityLatency *prometheus.HistogramVec
	bookingsTotal       *prometheus.CounterVec
	capacityConflicts   prometheus.Counter
	cacheLookups        *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mentorbase",
			Subsystem: "booking",
			Name:      "availability_query_seconds",
			Help:      "Latency of availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorbase",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total booking creation attempts",
		}, []string{"status"}),
		capacityConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentorbase",
			Subsystem: "booking",
			Name:      "capacity_conflicts_total",
			Help:      "Bookings rejected because the slot filled between read and write",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentorbase",
			Subsystem: "booking",
			Name:      "availability_cache_lookups_total",
			Help:      "Availability month cache lookups",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityLatency, m.bookingsTotal, m.capacityConflicts, m.cacheLookups)
	return m
}

func (m *BookingMetrics) ObserveAvailabilityQuery(query string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityLatency.WithLabelValues(query).Observe(seconds)
}

func (m *BookingMetrics) ObserveBookingCreated(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCapacityConflict() {
	if m == nil {
		return
	}
	m.capacityConflicts.Inc()
}

func (m *BookingMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
