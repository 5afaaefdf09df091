// Package policy manages versioned enforcement rule sets and derives rule
// suggestions from enforcement outcomes.
package policy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema/validate"
)

// ErrInvalidRule is returned by CreatePolicyVersion when a rule fails validation.
var ErrInvalidRule = errors.New("invalid policy rule")

const (
	// DefaultWindowDays is the trailing analytics window.
	DefaultWindowDays = 30

	overrideRatio       = 0.3
	attemptsThreshold   = 2.5
	failureThreshold    = 10
	commonFailuresLimit = 5
	relaxFactor         = 0.9
	relaxFloor          = 50

	confidenceRelax        = 0.7
	confidenceClarity      = 0.8
	confidenceCompleteness = 0.75
)

// Service is safe for concurrent use; it holds no mutable state.
type Service struct {
	store      Store
	outcomes   OutcomeLog
	clock      Clock
	log        *logger.Logger
	windowDays int
	metrics    Recorder
}

type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// WithWindowDays sets the analytics window; values below 1 are ignored.
func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.metrics = r } }

func NewService(store Store, outcomes OutcomeLog, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:      store,
		outcomes:   outcomes,
		clock:      systemClock{},
		log:        log.With("service", "PolicyService"),
		windowDays: DefaultWindowDays,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DefaultPolicy is served whenever no active version can be read.
func (s *Service) DefaultPolicy() schema.PolicyVersion {
	return schema.PolicyVersion{
		Version:       InitialVersion,
		EffectiveDate: s.clock.Now(),
		Rules:         []schema.PolicyRule{},
		Changelog:     []string{"Initial policy version"},
	}
}

// GetCurrentPolicy returns the active policy. It never fails: a missing row
// or read error yields DefaultPolicy.
func (s *Service) GetCurrentPolicy(ctx context.Context) schema.PolicyVersion {
	if s.store == nil {
		return s.DefaultPolicy()
	}
	v, err := s.store.ReadActive(ctx)
	if err != nil {
		s.log.Warn("active policy read failed, using default", "error", err)
		return s.DefaultPolicy()
	}
	if v == nil {
		return s.DefaultPolicy()
	}
	out := *v
	if out.Rules == nil {
		out.Rules = []schema.PolicyRule{}
	}
	if out.Changelog == nil {
		out.Changelog = []string{}
	}
	return out
}

// AnalyzeRulePerformance summarises outcomes tagged with ruleID over the
// trailing window. Query failures yield zero-valued analytics.
func (s *Service) AnalyzeRulePerformance(ctx context.Context, ruleID string) schema.PolicyAnalytics {
	zero := schema.PolicyAnalytics{
		RuleID:          ruleID,
		AverageAttempts: 1,
		CommonFailures:  []schema.FailureCount{},
	}
	if s.outcomes == nil {
		return zero
	}

	since := s.clock.Now().Add(-time.Duration(s.windowDays) * 24 * time.Hour)
	records, err := s.outcomes.Query(ctx, OutcomeFilter{RuleTag: ruleID, Since: since})
	if err != nil {
		s.log.Warn("rule analytics query failed", "rule_id", ruleID, "error", err)
		if s.metrics != nil {
			s.metrics.AnalyticsFailed()
		}
		return zero
	}

	a := zero
	a.TotalChecks = len(records)
	var attemptSum, attemptN int
	for _, r := range records {
		switch schema.Action(r.ActionTaken) {
		case schema.ActionSubmissionAllowed:
			a.PassCount++
		case schema.ActionSubmissionBlocked:
			a.FailCount++
		case schema.ActionManagerApprovalRequired:
			a.OverrideCount++
		}
		// Entries without a numeric attempt still count toward TotalChecks.
		if r.AttemptNumber != nil {
			attemptSum += *r.AttemptNumber
			attemptN++
		}
	}
	if attemptN > 0 {
		a.AverageAttempts = float64(attemptSum) / float64(attemptN)
	}
	a.CommonFailures = commonFailures(records)
	return a
}

func commonFailures(records []schema.OutcomeRecord) []schema.FailureCount {
	counts := map[string]int{}
	var order []string
	for _, r := range records {
		for _, d := range r.RequirementsMissing {
			k := d.Key()
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > commonFailuresLimit {
		order = order[:commonFailuresLimit]
	}
	out := make([]schema.FailureCount, len(order))
	for i, k := range order {
		out[i] = schema.FailureCount{Element: k, Count: counts[k]}
	}
	return out
}

// GenerateRuleSuggestions evaluates every rule of the current policy against
// its analytics. A rule can contribute up to three suggestions.
func (s *Service) GenerateRuleSuggestions(ctx context.Context) []schema.RuleSuggestion {
	current := s.GetCurrentPolicy(ctx)
	out := []schema.RuleSuggestion{}

	for _, rule := range current.Rules {
		a := s.AnalyzeRulePerformance(ctx, rule.ID)

		if a.TotalChecks > 0 && float64(a.OverrideCount) > float64(a.TotalChecks)*overrideRatio {
			pct := math.Round(float64(a.OverrideCount) / float64(a.TotalChecks) * 100)
			out = append(out, schema.RuleSuggestion{
				RuleID:      rule.ID,
				Field:       rule.Field,
				RuleType:    rule.RuleType,
				Parameters:  relaxedParameters(rule),
				Reason:      fmt.Sprintf("High override rate (%.0f%%) suggests rule may be too strict", pct),
				Confidence:  confidenceRelax,
				SuggestedBy: schema.SuggestedByAnalytics,
			})
		}

		if a.AverageAttempts > attemptsThreshold {
			out = append(out, schema.RuleSuggestion{
				RuleID:      rule.ID,
				Field:       rule.Field,
				RuleType:    rule.RuleType,
				Parameters:  rule.CloneParameters(),
				Reason:      fmt.Sprintf("High average attempts (%.1f) suggests rule clarity needs improvement", a.AverageAttempts),
				Confidence:  confidenceClarity,
				SuggestedBy: schema.SuggestedByAnalytics,
			})
		}

		if len(a.CommonFailures) > 0 && a.CommonFailures[0].Count > failureThreshold {
			el := a.CommonFailures[0].Element
			out = append(out, schema.RuleSuggestion{
				Field:       rule.Field,
				RuleType:    schema.RuleCompleteness,
				Parameters:  map[string]any{"requiredElements": el},
				Reason:      fmt.Sprintf("Commonly missing: %s. Consider making this a required element.", el),
				Confidence:  confidenceCompleteness,
				SuggestedBy: schema.SuggestedByAnalytics,
			})
		}
	}

	if s.metrics != nil {
		s.metrics.SuggestionsGenerated(len(out))
	}
	s.log.Info("rule suggestions generated", "policy_version", current.Version, "count", len(out))
	return out
}

// relaxedParameters lowers a minLength threshold by 10%, never below 50.
// Other rule types keep their parameters.
func relaxedParameters(rule schema.PolicyRule) map[string]any {
	params := rule.CloneParameters()
	if rule.RuleType != schema.RuleMinLength {
		return params
	}
	if n, ok := rule.IntParam("minLength"); ok && n != 0 {
		relaxed := int(math.Floor(float64(n) * relaxFactor))
		if relaxed < relaxFloor {
			relaxed = relaxFloor
		}
		params["minLength"] = relaxed
	}
	return params
}

// CreatePolicyVersion validates rules, assigns the next minor version and
// publishes it as the single active version. Unlike the read paths, every
// failure here is returned to the caller.
func (s *Service) CreatePolicyVersion(ctx context.Context, rules []schema.PolicyRule, changelog []string, adminID string) (schema.PolicyVersion, error) {
	if s.store == nil {
		return schema.PolicyVersion{}, errors.New("create policy version: no policy store configured")
	}
	if err := validate.Rules(rules); err != nil {
		return schema.PolicyVersion{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}

	prev, err := s.store.ReadMostRecentVersion(ctx)
	if err != nil {
		return schema.PolicyVersion{}, fmt.Errorf("read latest policy version: %w", err)
	}
	next, err := NextVersion(prev)
	if err != nil {
		return schema.PolicyVersion{}, err
	}

	if rules == nil {
		rules = []schema.PolicyRule{}
	}
	if changelog == nil {
		changelog = []string{}
	}
	v := schema.PolicyVersion{
		Version:       next,
		EffectiveDate: s.clock.Now(),
		Rules:         rules,
		Changelog:     changelog,
	}
	published, err := s.store.Publish(ctx, v, adminID)
	if err != nil {
		s.log.Error("policy publish failed", "version", next, "admin_id", adminID, "error", err)
		return schema.PolicyVersion{}, fmt.Errorf("publish policy %s: %w", next, err)
	}
	s.log.Info("policy version published", "version", published.Version, "previous", prev, "admin_id", adminID, "rules", len(rules))
	return published, nil
}
