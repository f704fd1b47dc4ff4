// Package metrics collects and exposes Prometheus metrics for the billing
// and access-reconciliation flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	sessionsCreated *prometheus.CounterVec
	sessionsFailed  prometheus.Counter
	webhookEvents   *prometheus.CounterVec
	webhookRejected prometheus.Counter
	sweepRuns       prometheus.Counter
	sweepProcessed  prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_checkout_sessions_created_total",
			Help: "Checkout sessions successfully created, by plan type.",
		}, []string{"plan_type"}),
		sessionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_checkout_sessions_failed_total",
			Help: "Checkout session creation failures.",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Webhook events accepted after signature verification, by type.",
		}, []string{"event_type"}),
		webhookRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_webhook_rejected_total",
			Help: "Webhook requests rejected before processing.",
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_sweep_runs_total",
			Help: "Completed daily reconciliation sweep runs.",
		}),
		sweepProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billing_sweep_processed_total",
			Help: "Users granted fallback access by the daily sweep.",
		}),
	}

	c.registry.MustRegister(
		c.sessionsCreated,
		c.sessionsFailed,
		c.webhookEvents,
		c.webhookRejected,
		c.sweepRuns,
		c.sweepProcessed,
	)

	return c
}

func (c *Collector) RecordSessionCreated(planType string) {
	c.sessionsCreated.WithLabelValues(planType).Inc()
}

func (c *Collector) RecordSessionFailed() {
	c.sessionsFailed.Inc()
}

func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordWebhookRejected() {
	c.webhookRejected.Inc()
}

func (c *Collector) RecordSweepRun(processed int) {
	c.sweepRuns.Inc()
	c.sweepProcessed.Add(float64(processed))
}

// Handler exposes the collector's registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
