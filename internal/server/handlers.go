package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policydiff"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/quality"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema/validate"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
)

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": "qualitygate",
	}
	if s.deps.Scheduler != nil {
		body["tasks"] = s.deps.Scheduler.Status()
	}
	c.JSON(http.StatusOK, body)
}

type validateFieldRequest struct {
	Field  string `json:"field" binding:"required"`
	Value  string `json:"value"`
	NCType string `json:"nc_type"`
}

func (s *Server) validateField(c *gin.Context) {
	var req validateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v := quality.NewValidator(s.deps.Policy.GetCurrentPolicy(c.Request.Context()).Rules)
	res, ok := v.ValidateField(req.Field, req.Value, req.NCType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field " + strconv.Quote(req.Field)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":    res,
		"checklist": quality.Checklist(req.Field, req.Value, req.NCType),
	})
}

func (s *Server) evaluateSubmission(c *gin.Context) {
	var sub schema.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := s.deps.Gate.Evaluate(c.Request.Context(), sub)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type approvalRequest struct {
	ManagerID string `json:"manager_id"`
	Approved  bool   `json:"approved"`
	Notes     string `json:"notes"`
}

func (s *Server) managerApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := schema.ApprovalDecision{
		LogID:     c.Param("log_id"),
		ManagerID: req.ManagerID,
		Approved:  req.Approved,
		Notes:     req.Notes,
	}
	if err := s.deps.Gate.ManagerApproval(c.Request.Context(), d); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"log_id": d.LogID, "approved": d.Approved})
}

type attemptsRequest struct {
	Attempts []schema.EnforcementAttempt `json:"attempts"`
}

func (s *Server) userPattern(c *gin.Context) {
	var req attemptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := enforcement.AnalyzeUserPattern(req.Attempts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) contentPattern(c *gin.Context) {
	var req attemptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": enforcement.DetectContentPattern(req.Attempts)})
}

func (s *Server) storedUserPattern(c *gin.Context) {
	days := policy.DefaultWindowDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = n
	}
	userID := c.Param("user_id")
	since := s.deps.Now().Add(-time.Duration(days) * 24 * time.Hour)
	attempts, err := s.deps.History.UserAttempts(c.Request.Context(), userID, since)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(attempts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attempts recorded for user in window"})
		return
	}
	p, err := enforcement.AnalyzeUserPattern(attempts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pattern":         p,
		"content_pattern": enforcement.DetectContentPattern(attempts),
	})
}

func (s *Server) currentPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Policy.GetCurrentPolicy(c.Request.Context()))
}

func (s *Server) ruleAnalytics(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Policy.AnalyzeRulePerformance(c.Request.Context(), c.Param("rule_id")))
}

func (s *Server) ruleSuggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": s.deps.Policy.GenerateRuleSuggestions(c.Request.Context())})
}

type createVersionRequest struct {
	Rules     []schema.PolicyRule `json:"rules" binding:"required"`
	Changelog []string            `json:"changelog"`
	AdminID   string              `json:"admin_id" binding:"required"`
}

// createVersion derives the changelog from the active version when the
// caller supplies none.
func (s *Server) createVersion(c *gin.Context) {
	var req createVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	changelog := req.Changelog
	if len(changelog) == 0 {
		current := s.deps.Policy.GetCurrentPolicy(ctx)
		changelog = policydiff.Changelog(policydiff.Compare(current, schema.PolicyVersion{Rules: req.Rules}))
	}
	v, err := s.deps.Policy.CreatePolicyVersion(ctx, req.Rules, changelog, req.AdminID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (s *Server) policyDiff(c *gin.Context) {
	ctx := c.Request.Context()
	fromVersion := c.Query("from")
	if fromVersion == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is required"})
		return
	}
	from, err := s.deps.Versions.ReadVersion(ctx, fromVersion)
	if err != nil {
		s.fail(c, err)
		return
	}
	var to schema.PolicyVersion
	if toVersion := c.Query("to"); toVersion != "" {
		v, err := s.deps.Versions.ReadVersion(ctx, toVersion)
		if err != nil {
			s.fail(c, err)
			return
		}
		to = *v
	} else {
		to = s.deps.Policy.GetCurrentPolicy(ctx)
	}
	c.JSON(http.StatusOK, gin.H{
		"from":    from.Version,
		"to":      to.Version,
		"changes": policydiff.Compare(*from, to),
		"patch":   policydiff.Diff(*from, to),
	})
}

// fail maps domain errors onto HTTP status codes.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, validate.ErrInvalid),
		errors.Is(err, policy.ErrInvalidRule),
		errors.Is(err, enforcement.ErrNoAttempts),
		errors.Is(err, enforcement.ErrInvalidAttempt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
