// Package server exposes the quality gate over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/enforcement"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/metrics"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/scheduler"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// PolicyService is the policy surface the API needs.
type PolicyService interface {
	GetCurrentPolicy(ctx context.Context) schema.PolicyVersion
	AnalyzeRulePerformance(ctx context.Context, ruleID string) schema.PolicyAnalytics
	GenerateRuleSuggestions(ctx context.Context) []schema.RuleSuggestion
	CreatePolicyVersion(ctx context.Context, rules []schema.PolicyRule, changelog []string, adminID string) (schema.PolicyVersion, error)
}

// VersionReader loads any published version, for diffs.
type VersionReader interface {
	ReadVersion(ctx context.Context, version string) (*schema.PolicyVersion, error)
}

// AttemptHistory rebuilds a user's attempts from the enforcement log.
type AttemptHistory interface {
	UserAttempts(ctx context.Context, userID string, since time.Time) ([]schema.EnforcementAttempt, error)
}

// TaskReporter reports scheduled job status for the health endpoint.
type TaskReporter interface {
	Status() []scheduler.TaskStatus
}

// Deps wires the server. Gate and Policy are required; the rest enable
// optional routes.
type Deps struct {
	Gate      *enforcement.Gate
	Policy    PolicyService
	Versions  VersionReader
	History   AttemptHistory
	Metrics   *metrics.Collector
	Scheduler TaskReporter
	Log       *logger.Logger
	Now       func() time.Time
}

type Server struct {
	deps   Deps
	log    *logger.Logger
	router *gin.Engine
}

// New builds the router. mode is a gin mode; empty keeps gin's default.
func New(deps Deps, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	s := &Server{
		deps: deps,
		log:  deps.Log.With("component", "HTTPServer"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.requestMetrics())

	r.GET("/health", s.health)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	api.POST("/fields/validate", s.validateField)
	api.POST("/submissions/evaluate", s.evaluateSubmission)
	api.POST("/enforcement/:log_id/approval", s.managerApproval)
	api.POST("/patterns/user", s.userPattern)
	api.POST("/patterns/content", s.contentPattern)
	if s.deps.History != nil {
		api.GET("/users/:user_id/pattern", s.storedUserPattern)
	}

	p := api.Group("/policy")
	p.GET("", s.currentPolicy)
	p.GET("/rules/:rule_id/analytics", s.ruleAnalytics)
	p.GET("/suggestions", s.ruleSuggestions)
	p.POST("/versions", s.createVersion)
	if s.deps.Versions != nil {
		p.GET("/diff", s.policyDiff)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
