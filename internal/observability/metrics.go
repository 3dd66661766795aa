package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the bot.
type Metrics struct {
	CommandsHandled *prometheus.CounterVec // labels: command, outcome={ok,error,cooldown}
	ChartsRendered  prometheus.Counter

	// Report pipeline metrics.
	ReportsGenerated *prometheus.CounterVec // labels: kind={single,all}, outcome={ok,not_found,unavailable,no_subscriptions,render_failed}

	// USGS client metrics.
	USGSRequests        *prometheus.CounterVec   // labels: kind={readings,site_check}, outcome={success,error}
	USGSRequestDuration *prometheus.HistogramVec // labels: kind={readings,site_check}
}

// NewMetrics creates and registers all bot metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CommandsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discord_cfs",
			Name:      "commands_handled_total",
			Help:      "Chat commands dispatched by command name and outcome.",
		}, []string{"command", "outcome"}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "discord_cfs",
			Name:      "charts_rendered_total",
			Help:      "Total streamflow charts exported as PNG.",
		}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discord_cfs",
			Name:      "reports_generated_total",
			Help:      "Station reports by kind and outcome.",
		}, []string{"kind", "outcome"}),
		USGSRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discord_cfs",
			Name:      "usgs_requests_total",
			Help:      "USGS daily values requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		USGSRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "discord_cfs",
			Name:      "usgs_request_duration_seconds",
			Help:      "USGS daily values request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
	}

	prometheus.MustRegister(
		m.CommandsHandled,
		m.ChartsRendered,
		m.ReportsGenerated,
		m.USGSRequests,
		m.USGSRequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CommandsHandled:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "discord_cfs", Name: "commands_handled_total"}, []string{"command", "outcome"}),
		ChartsRendered:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "discord_cfs", Name: "charts_rendered_total"}),
		ReportsGenerated:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "discord_cfs", Name: "reports_generated_total"}, []string{"kind", "outcome"}),
		USGSRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "discord_cfs", Name: "usgs_requests_total"}, []string{"kind", "outcome"}),
		USGSRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "discord_cfs", Name: "usgs_request_duration_seconds"}, []string{"kind"}),
	}
}
