package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters for the appointment booking flow.
type BookingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	statusTotal    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawbook",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total appointments booked",
		}, []string{"source"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pawbook",
			Subsystem: "bookings",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts that lost the slot race",
		}),
		statusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawbook",
			Subsystem: "bookings",
			Name:      "status_changes_total",
			Help:      "Appointment status transitions",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.statusTotal)
	return m
}

func (m *BookingMetrics) BookingCreated(source string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(source).Inc()
}

func (m *BookingMetrics) SlotConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusTotal.WithLabelValues(status).Inc()
}

// ConversationMetrics exposes counters/histograms for chat turns.
type ConversationMetrics struct {
	turnsTotal  *prometheus.CounterVec
	intentTotal *prometheus.CounterVec
	turnLatency prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawbook",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Total processed chat turns",
		}, []string{"state", "outcome"}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pawbook",
			Subsystem: "conversation",
			Name:      "intent_total",
			Help:      "Intent classification results",
		}, []string{"is_booking"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pawbook",
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one chat turn, store round trips included",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.intentTotal, m.turnLatency)
	return m
}

func (m *ConversationMetrics) ObserveTurn(state, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state, outcome).Inc()
	m.turnLatency.Observe(elapsed.Seconds())
}

func (m *ConversationMetrics) ObserveIntent(isBooking bool) {
	if m == nil {
		return
	}
	label := "false"
	if isBooking {
		label = "true"
	}
	m.intentTotal.WithLabelValues(label).Inc()
}
