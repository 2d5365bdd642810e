package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the host counters, registered on a registry owned by the app
type Metrics struct {
	registry             *prometheus.Registry
	updates              *prometheus.CounterVec
	membershipChecks     *prometheus.CounterVec
	webhookRegistrations *prometheus.CounterVec
	dispatchers          prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgbothost_updates_total",
			Help: "Webhook updates by routing outcome.",
		}, []string{"outcome"}),
		membershipChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgbothost_membership_checks_total",
			Help: "Required channel membership lookups by result.",
		}, []string{"result"}),
		webhookRegistrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tgbothost_webhook_registrations_total",
			Help: "setWebhook and deleteWebhook calls by action and result.",
		}, []string{"action", "result"}),
		dispatchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tgbothost_dispatchers",
			Help: "Dispatchers currently held in the LRU.",
		}),
	}

	m.registry.MustRegister(
		m.updates,
		m.membershipChecks,
		m.webhookRegistrations,
		m.dispatchers,
		prometheus.NewGoCollector(),
	)

	return m
}

func (m *Metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) webhook(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.webhookRegistrations.WithLabelValues(action, result).Inc()
}
