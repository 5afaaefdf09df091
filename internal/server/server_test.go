package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/metrics"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
)

var now = time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return now }

// memStore keeps published versions in memory.
type memStore struct {
	versions []schema.PolicyVersion
}

func (m *memStore) ReadActive(ctx context.Context) (*schema.PolicyVersion, error) {
	if len(m.versions) == 0 {
		return nil, nil
	}
	v := m.versions[len(m.versions)-1]
	return &v, nil
}

func (m *memStore) ReadMostRecentVersion(ctx context.Context) (string, error) {
	if len(m.versions) == 0 {
		return "", nil
	}
	return m.versions[len(m.versions)-1].Version, nil
}

func (m *memStore) Publish(ctx context.Context, v schema.PolicyVersion, createdBy string) (schema.PolicyVersion, error) {
	m.versions = append(m.versions, v)
	return v, nil
}

func (m *memStore) ReadVersion(ctx context.Context, version string) (*schema.PolicyVersion, error) {
	for _, v := range m.versions {
		if v.Version == version {
			v := v
			return &v, nil
		}
	}
	return nil, store.ErrNotFound
}

// memLog is an in-memory enforcement log.
type memLog struct {
	entries []schema.OutcomeEntry
}

func (m *memLog) Append(ctx context.Context, e schema.OutcomeEntry) (string, error) {
	m.entries = append(m.entries, e)
	return fmt.Sprintf("log-%d", len(m.entries)), nil
}

func (m *memLog) NextAttempt(ctx context.Context, ft schema.FormType, formID, userID string) (int, error) {
	n := 1
	for _, e := range m.entries {
		if e.FormType == ft && e.FormID == formID && e.UserID == userID && e.AttemptNumber >= n {
			n = e.AttemptNumber + 1
		}
	}
	return n, nil
}

func (m *memLog) RecordManagerApproval(ctx context.Context, d schema.ApprovalDecision) error {
	var idx int
	if _, err := fmt.Sscanf(d.LogID, "log-%d", &idx); err != nil || idx < 1 || idx > len(m.entries) {
		return store.ErrNotFound
	}
	return nil
}

func (m *memLog) Query(ctx context.Context, f policy.OutcomeFilter) ([]schema.OutcomeRecord, error) {
	return []schema.OutcomeRecord{}, nil
}

func (m *memLog) UserAttempts(ctx context.Context, userID string, since time.Time) ([]schema.EnforcementAttempt, error) {
	out := []schema.EnforcementAttempt{}
	for _, e := range m.entries {
		if e.UserID != userID || e.CreatedAt.Before(since) {
			continue
		}
		out = append(out, schema.EnforcementAttempt{
			UserID:        e.UserID,
			FormType:      e.FormType,
			FormID:        e.FormID,
			AttemptNumber: e.AttemptNumber,
			Timestamp:     e.CreatedAt,
			Issues:        e.IssuesFound,
		})
	}
	return out, nil
}

type fixture struct {
	srv   *Server
	store *memStore
	log   *memLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := &memStore{}
	lg := &memLog{}
	col := metrics.NewCollector()
	svc := policy.NewService(st, lg, logger.Nop(), policy.WithClock(fixedClock{}), policy.WithRecorder(col))
	gate := &enforcement.Gate{
		Policy:   svc,
		Attempts: lg,
		Outcomes: lg,
		Metrics:  col,
		Now:      func() time.Time { return now },
	}
	srv := New(Deps{
		Gate:     gate,
		Policy:   svc,
		Versions: st,
		History:  lg,
		Metrics:  col,
		Now:      func() time.Time { return now },
	}, gin.TestMode)
	return &fixture{srv: srv, store: st, log: lg}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func ncaSubmission(formID string) map[string]interface{} {
	return map[string]interface{}{
		"form_type": "nca",
		"form_id":   formID,
		"user_id":   "user-1",
		"nca": map[string]interface{}{
			"nc_type":        "finished-goods",
			"nc_description": "bad product",
		},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestEvaluate_EscalatesAcrossAttempts(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", ncaSubmission("NCA-1"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first schema.Decision
	decode(t, w, &first)
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, schema.LevelSoft, first.Enforcement.EnforcementLevel)
	assert.Equal(t, schema.ActionSubmissionAllowed, first.Action)
	assert.Equal(t, "log-1", first.LogID)

	w = f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", ncaSubmission("NCA-1"))
	require.Equal(t, http.StatusOK, w.Code)
	var second schema.Decision
	decode(t, w, &second)
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, schema.LevelModerate, second.Enforcement.EnforcementLevel)
	assert.Equal(t, schema.ActionSubmissionBlocked, second.Action)
	assert.NotEmpty(t, second.EscalationMessage)
}

func TestEvaluate_InvalidPayload(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", map[string]interface{}{"form_type": "nca"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManagerApproval(t *testing.T) {
	f := newFixture(t)
	sub := ncaSubmission("NCA-9")
	sub["attempt_number"] = 4
	w := f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", sub)
	require.Equal(t, http.StatusOK, w.Code)
	var d schema.Decision
	decode(t, w, &d)
	assert.Equal(t, schema.ActionManagerApprovalRequired, d.Action)

	w = f.do(t, http.MethodPost, "/api/v1/enforcement/"+d.LogID+"/approval", map[string]interface{}{"manager_id": "mgr-1", "approved": true})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/enforcement/log-99/approval", map[string]interface{}{"manager_id": "mgr-1", "approved": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/enforcement/"+d.LogID+"/approval", map[string]interface{}{"approved": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateField(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/fields/validate", map[string]string{
		"field":   "nc_description",
		"value":   "bad product",
		"nc_type": "incident",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Result    schema.ValidationResult  `json:"result"`
		Checklist []map[string]interface{} `json:"checklist"`
	}
	decode(t, w, &body)
	assert.False(t, body.Result.Valid)
	assert.Len(t, body.Checklist, 5)

	w = f.do(t, http.MethodPost, "/api/v1/fields/validate", map[string]string{"field": "supplier", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPatterns(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/patterns/user", map[string]interface{}{"attempts": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/patterns/content", map[string]interface{}{"attempts": []interface{}{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"pattern":null}`, w.Body.String())
}

func TestStoredUserPattern(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		w := f.do(t, http.MethodPost, "/api/v1/submissions/evaluate", ncaSubmission("NCA-7"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/v1/users/user-1/pattern", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Pattern        schema.UserEnforcementPattern `json:"pattern"`
		ContentPattern *schema.ContentPattern        `json:"content_pattern"`
	}
	decode(t, w, &body)
	assert.Equal(t, 3, body.Pattern.TotalAttempts)
	assert.True(t, body.Pattern.EscalationTriggered)
	assert.NotNil(t, body.ContentPattern)

	w = f.do(t, http.MethodGet, "/api/v1/users/user-2/pattern", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/users/user-1/pattern?days=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPolicyLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/policy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var current schema.PolicyVersion
	decode(t, w, &current)
	assert.Equal(t, "1.0.0", current.Version)

	rule := map[string]interface{}{
		"id":         "nc_description_min_length",
		"field":      "nc_description",
		"ruleType":   "minLength",
		"parameters": map[string]interface{}{"minLength": 120},
		"enabled":    true,
	}
	w = f.do(t, http.MethodPost, "/api/v1/policy/versions", map[string]interface{}{
		"rules":    []interface{}{rule},
		"admin_id": "admin-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var v1 schema.PolicyVersion
	decode(t, w, &v1)
	assert.Equal(t, "1.0.0", v1.Version)
	assert.Equal(t, []string{"Added rule nc_description_min_length"}, v1.Changelog)

	rule["parameters"] = map[string]interface{}{"minLength": 90}
	w = f.do(t, http.MethodPost, "/api/v1/policy/versions", map[string]interface{}{
		"rules":     []interface{}{rule},
		"changelog": []string{"Relax description minimum"},
		"admin_id":  "admin-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var v2 schema.PolicyVersion
	decode(t, w, &v2)
	assert.Equal(t, "1.1.0", v2.Version)

	w = f.do(t, http.MethodGet, "/api/v1/policy/diff?from=1.0.0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var diff struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Patch   string `json:"patch"`
		Changes struct {
			Changed []string `json:"changed"`
		} `json:"changes"`
	}
	decode(t, w, &diff)
	assert.Equal(t, "1.1.0", diff.To)
	assert.Equal(t, []string{"nc_description_min_length"}, diff.Changes.Changed)
	assert.NotEmpty(t, diff.Patch)

	w = f.do(t, http.MethodGet, "/api/v1/policy/diff?from=9.9.9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/policy/diff", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateVersion_InvalidRules(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/v1/policy/versions", map[string]interface{}{
		"rules":    []interface{}{map[string]interface{}{"id": "x", "field": "nc_description", "ruleType": "telepathy", "enabled": true}},
		"admin_id": "admin-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.store.versions)

	w = f.do(t, http.MethodPost, "/api/v1/policy/versions", map[string]interface{}{"rules": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "admin_id is required")
}

func TestAnalyticsAndSuggestions(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/policy/rules/nc_description/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var a schema.PolicyAnalytics
	decode(t, w, &a)
	assert.Equal(t, "nc_description", a.RuleID)
	assert.Equal(t, 0, a.TotalChecks)

	w = f.do(t, http.MethodGet, "/api/v1/policy/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suggestions"`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/health", nil)
	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "qualitygate_http_requests_total"), body)
}
