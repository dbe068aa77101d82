// Package metrics exports booking and availability counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BookingMetrics records service outcomes. It satisfies application.Metrics.
// A nil *BookingMetrics records nothing.
type BookingMetrics struct {
	gatherer          prometheus.Gatherer
	authAttempts      *prometheus.CounterVec
	availabilityTotal *prometheus.CounterVec
	availabilityDates prometheus.Counter
	bookingTotal      *prometheus.CounterVec
	bookingLines      *prometheus.HistogramVec
}

// NewBookingMetrics registers the collectors on reg. A nil reg uses a fresh
// private registry so repeated construction in tests never panics.
func NewBookingMetrics(reg *prometheus.Registry) *BookingMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &BookingMetrics{
		gatherer: reg,
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "identity",
			Name:      "auth_attempts_total",
			Help:      "Authentication and registration attempts by outcome",
		}, []string{"operation", "outcome"}),
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "availability",
			Name:      "writes_total",
			Help:      "Availability write operations by outcome",
		}, []string{"outcome"}),
		availabilityDates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "availability",
			Name:      "dates_written_total",
			Help:      "Calendar dates whose declared hours were replaced",
		}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		bookingLines: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "lines_per_booking",
			Help:      "Service lines stored per committed booking",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		}, []string{"kind"}),
	}
	reg.MustRegister(m.authAttempts, m.availabilityTotal, m.availabilityDates, m.bookingTotal, m.bookingLines)
	return m
}

// AuthAttempt counts one authenticate or register call.
func (m *BookingMetrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// AvailabilityWrite counts one availability write covering dates calendar dates.
func (m *BookingMetrics) AvailabilityWrite(outcome string, dates int) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" && dates > 0 {
		m.availabilityDates.Add(float64(dates))
	}
}

// BookingAttempt counts one booking attempt and, on success, its line count.
func (m *BookingMetrics) BookingAttempt(outcome string, lines int) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		kind := "single"
		if lines > 1 {
			kind = "multi"
		}
		m.bookingLines.WithLabelValues(kind).Observe(float64(lines))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *BookingMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Snapshot returns the current value of every counter keyed by metric name and
// label values, for diagnostics and tests.
func (m *BookingMetrics) Snapshot() (map[string]float64, error) {
	if m == nil {
		return map[string]float64{}, nil
	}
	families, err := m.gatherer.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "|" + label.GetName() + "=" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[key+"|count"] = float64(metric.GetHistogram().GetSampleCount())
				out[key+"|sum"] = metric.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}

// FormatKey builds a Snapshot key from a metric name and label pairs.
func FormatKey(name string, labels ...string) string {
	key := name
	for i := 0; i+1 < len(labels); i += 2 {
		key += "|" + labels[i] + "=" + labels[i+1]
	}
	return key
}
