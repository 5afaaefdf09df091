package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

func TestCollector_Decisions(t *testing.T) {
	c := NewCollector()
	c.ObserveDecision(schema.FormNCA, schema.LevelModerate, schema.ActionSubmissionBlocked)
	c.ObserveDecision(schema.FormNCA, schema.LevelModerate, schema.ActionSubmissionBlocked)

	got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("nca", "moderate", "submission_blocked"))
	assert.Equal(t, 2.0, got)
}

func TestCollector_Issues(t *testing.T) {
	c := NewCollector()
	c.ObserveIssues([]schema.ValidationIssue{
		{Field: "nc_description", Severity: schema.SeverityError},
		{Field: "nc_description", Severity: schema.SeverityWarning},
		{Field: "nc_description", Severity: schema.SeverityError},
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(c.issuesTotal.WithLabelValues("nc_description", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.issuesTotal.WithLabelValues("nc_description", "warning")))
}

func TestCollector_PolicyCounters(t *testing.T) {
	c := NewCollector()
	c.AnalyticsFailed()
	c.SuggestionsGenerated(3)
	c.PolicyCache("hit")
	c.SchedulerRun("rule-suggestions", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.analyticsFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.suggestionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.policyCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.schedulerRunsTotal.WithLabelValues("rule-suggestions", "ok")))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	// Two collectors in one process must not panic on duplicate registration.
	a, b := NewCollector(), NewCollector()
	a.AnalyticsFailed()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.analyticsFailures))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.RecordHTTPRequest("GET", "/health", "200", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `qualitygate_http_requests_total{method="GET",route="/health",status="200"} 1`))
}
