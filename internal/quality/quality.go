// Package quality holds the rule-based content validators for NCA and MJC
// free-text fields. Validators are pure: the same input always yields the
// same result, and nothing is retained between calls.
package quality

import (
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Validator runs the built-in checks plus any enabled rules from a
// published policy version.
type Validator struct {
	rules []schema.PolicyRule
}

// Default has no policy rules and reproduces the built-in behaviour exactly.
var Default = NewValidator(nil)

// NewValidator returns a validator honouring the enabled rules in rules.
func NewValidator(rules []schema.PolicyRule) *Validator {
	enabled := make([]schema.PolicyRule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return &Validator{rules: enabled}
}

// Rules returns the enabled rules this validator applies.
func (v *Validator) Rules() []schema.PolicyRule {
	out := make([]schema.PolicyRule, len(v.rules))
	copy(out, v.rules)
	return out
}

// ValidateDescriptionCompleteness checks an NC description with the default validator.
func ValidateDescriptionCompleteness(description, ncType string) schema.ValidationResult {
	return Default.ValidateDescriptionCompleteness(description, ncType)
}

// ValidateRootCauseDepth checks a root cause analysis with the default validator.
func ValidateRootCauseDepth(analysis string) schema.ValidationResult {
	return Default.ValidateRootCauseDepth(analysis)
}

// ValidateCorrectiveActionSpecificity checks a corrective action with the default validator.
func ValidateCorrectiveActionSpecificity(action string) schema.ValidationResult {
	return Default.ValidateCorrectiveActionSpecificity(action)
}

// result accumulates issues for one validator call.
type result struct {
	issues  []schema.ValidationIssue
	missing []string
	vague   []string
}

func newResult() *result {
	return &result{
		issues:  []schema.ValidationIssue{},
		missing: []string{},
		vague:   []string{},
	}
}

func (r *result) add(issue schema.ValidationIssue) {
	r.issues = append(r.issues, issue)
}

func (r *result) build() schema.ValidationResult {
	return schema.ValidationResult{
		Valid:               !hasError(r.issues),
		Issues:              r.issues,
		MissingRequirements: r.missing,
		VaguePhrases:        r.vague,
	}
}

func emptyResult() schema.ValidationResult {
	return newResult().build()
}

func hasError(issues []schema.ValidationIssue) bool {
	for _, i := range issues {
		if i.Severity == schema.SeverityError {
			return true
		}
	}
	return false
}

// ValidateField dispatches to the validator for field. ok is false for a
// field no validator covers. An empty ncType is treated as "other".
func (v *Validator) ValidateField(field, value, ncType string) (res schema.ValidationResult, ok bool) {
	switch field {
	case schema.FieldNCDescription:
		if ncType == "" {
			ncType = "other"
		}
		return v.ValidateDescriptionCompleteness(value, ncType), true
	case schema.FieldRootCauseAnalysis:
		return v.ValidateRootCauseDepth(value), true
	case schema.FieldCorrectiveAction:
		return v.ValidateCorrectiveActionSpecificity(value), true
	case schema.FieldDescriptionRequired:
		return v.ValidateMaintenanceDescription(value), true
	case schema.FieldMaintenancePerformed:
		return v.ValidateMaintenancePerformed(value), true
	}
	return emptyResult(), false
}
