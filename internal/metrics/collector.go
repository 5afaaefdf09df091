package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Collector owns the Prometheus metrics for the quality gate. Each collector
// has its own registry so tests and embedded servers never collide.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal      *prometheus.CounterVec
	issuesTotal         *prometheus.CounterVec
	analyticsFailures   prometheus.Counter
	suggestionsTotal    prometheus.Counter
	policyCacheTotal    *prometheus.CounterVec
	schedulerRunsTotal  *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates and registers all metrics.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		decisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qualitygate_decisions_total",
				Help: "Total number of submission decisions",
			},
			[]string{"form_type", "level", "action"},
		),
		issuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qualitygate_issues_total",
				Help: "Total number of validation issues raised",
			},
			[]string{"field", "severity"},
		),
		analyticsFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qualitygate_analytics_failures_total",
				Help: "Total number of rule analytics queries that failed",
			},
		),
		suggestionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "qualitygate_rule_suggestions_total",
				Help: "Total number of rule suggestions generated",
			},
		),
		policyCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qualitygate_policy_cache_total",
				Help: "Active-policy cache lookups by result",
			},
			[]string{"result"},
		),
		schedulerRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qualitygate_scheduler_runs_total",
				Help: "Scheduled job runs by job and status",
			},
			[]string{"job", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qualitygate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qualitygate_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 4s
			},
			[]string{"method", "route"},
		),
	}
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveDecision(formType schema.FormType, level schema.EnforcementLevel, action schema.Action) {
	c.decisionsTotal.WithLabelValues(string(formType), string(level), string(action)).Inc()
}

func (c *Collector) ObserveIssues(issues []schema.ValidationIssue) {
	for _, i := range issues {
		c.issuesTotal.WithLabelValues(i.Field, string(i.Severity)).Inc()
	}
}

func (c *Collector) AnalyticsFailed() {
	c.analyticsFailures.Inc()
}

func (c *Collector) SuggestionsGenerated(n int) {
	c.suggestionsTotal.Add(float64(n))
}

// PolicyCache records a cache lookup result: hit, miss or error.
func (c *Collector) PolicyCache(result string) {
	c.policyCacheTotal.WithLabelValues(result).Inc()
}

func (c *Collector) SchedulerRun(job, status string) {
	c.schedulerRunsTotal.WithLabelValues(job, status).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
