// Package metrics exposes Prometheus collectors for the back-office client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the client-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	realtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Realtime events relayed to subscribers.",
		},
		[]string{"event"},
	)

	realtimeReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "realtime",
			Name:      "reconnects_total",
			Help:      "Transport-level reconnect attempts.",
		},
	)

	realtimeConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "backoffice",
			Subsystem: "realtime",
			Name:      "connected",
			Help:      "Whether the realtime channel is currently connected (0 or 1).",
		},
	)

	configSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "config",
			Name:      "saves_total",
			Help:      "Configuration save attempts by outcome.",
		},
		[]string{"status"},
	)

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "REST requests issued, by outcome.",
		},
		[]string{"status"},
	)

	fallbackPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "dashboard",
			Name:      "fallback_polls_total",
			Help:      "Dashboard refetches taken over REST because the realtime channel was down.",
		},
	)
)

func init() {
	Registry.MustRegister(
		realtimeEvents,
		realtimeReconnects,
		realtimeConnected,
		configSaves,
		apiRequests,
		fallbackPolls,
	)
}

// Handler returns an http.Handler serving the client registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RealtimeEvent records one relayed event.
func RealtimeEvent(event string) {
	realtimeEvents.WithLabelValues(event).Inc()
}

// RealtimeReconnect records one reconnect attempt.
func RealtimeReconnect() {
	realtimeReconnects.Inc()
}

// SetRealtimeConnected reflects the current channel state.
func SetRealtimeConnected(connected bool) {
	if connected {
		realtimeConnected.Set(1)
		return
	}
	realtimeConnected.Set(0)
}

// ConfigSave records a save attempt outcome ("ok", "invalid", "error").
func ConfigSave(status string) {
	configSaves.WithLabelValues(status).Inc()
}

// APIRequest records a REST request outcome ("ok", "error").
func APIRequest(status string) {
	apiRequests.WithLabelValues(status).Inc()
}

// FallbackPoll records one REST refetch taken while disconnected.
func FallbackPoll() {
	fallbackPolls.Inc()
}
