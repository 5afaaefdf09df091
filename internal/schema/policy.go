package schema

import "time"

// RuleType selects how a PolicyRule's parameters are interpreted.
type RuleType string

const (
	RuleMinLength    RuleType = "minLength"
	RulePattern      RuleType = "pattern"
	RuleCompleteness RuleType = "completeness"
	RuleSpecificity  RuleType = "specificity"
)

// IsValidRuleType reports whether t is one of the four rule types.
func IsValidRuleType(t RuleType) bool {
	switch t {
	case RuleMinLength, RulePattern, RuleCompleteness, RuleSpecificity:
		return true
	}
	return false
}

// SuggestedBy names the source of a rule suggestion.
type SuggestedBy string

const (
	SuggestedByAnalytics        SuggestedBy = "analytics"
	SuggestedByExternalStandard SuggestedBy = "external_standard"
	SuggestedByAdmin            SuggestedBy = "admin"
)

// PolicyRule is immutable once embedded in a published PolicyVersion.
// ID is stable across versions so analytics can follow a rule over time.
type PolicyRule struct {
	ID            string         `json:"id" yaml:"id" validate:"required"`
	Field         string         `json:"field" yaml:"field" validate:"required"`
	RuleType      RuleType       `json:"ruleType" yaml:"ruleType" validate:"required,oneof=minLength pattern completeness specificity"`
	Parameters    map[string]any `json:"parameters" yaml:"parameters"`
	ReferenceCode string         `json:"referenceCode,omitempty" yaml:"referenceCode,omitempty"`
	Enabled       bool           `json:"enabled" yaml:"enabled"`
}

// PolicyVersion is an append-only, published rule set.
type PolicyVersion struct {
	Version       string       `json:"version"`
	EffectiveDate time.Time    `json:"effective_date"`
	Rules         []PolicyRule `json:"rules"`
	Changelog     []string     `json:"changelog"`
}

// FailureCount is one entry of PolicyAnalytics.CommonFailures.
type FailureCount struct {
	Element string `json:"element"`
	Count   int    `json:"count"`
}

// PolicyAnalytics is recomputed on demand over a trailing window.
type PolicyAnalytics struct {
	RuleID          string         `json:"rule_id"`
	TotalChecks     int            `json:"total_checks"`
	PassCount       int            `json:"pass_count"`
	FailCount       int            `json:"fail_count"`
	OverrideCount   int            `json:"override_count"`
	AverageAttempts float64        `json:"average_attempts"`
	CommonFailures  []FailureCount `json:"common_failures"`
}

// RuleSuggestion proposes a rule change. An empty RuleID proposes a new rule.
type RuleSuggestion struct {
	RuleID      string         `json:"rule_id,omitempty"`
	Field       string         `json:"field"`
	RuleType    RuleType       `json:"rule_type"`
	Parameters  map[string]any `json:"parameters"`
	Reason      string         `json:"reason"`
	Confidence  float64        `json:"confidence"`
	SuggestedBy SuggestedBy    `json:"suggested_by"`
}

// MissingDescriptor is one recorded missing requirement in an outcome entry.
type MissingDescriptor struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// Key reduces the descriptor to the element name used for failure tallies.
func (d MissingDescriptor) Key() string {
	if d.Field != "" {
		return d.Field
	}
	return d.Message
}

// OutcomeRecord is one enforcement-outcome log entry as seen by analytics.
// AttemptNumber is nil when the stored entry had no numeric attempt.
type OutcomeRecord struct {
	ActionTaken         string              `json:"action_taken"`
	AttemptNumber       *int                `json:"attempt_number"`
	RequirementsMissing []MissingDescriptor `json:"requirements_missing"`
}
