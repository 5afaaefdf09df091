// Package enforcement turns validator findings into an escalating,
// attempt-keyed enforcement decision.
package enforcement

import (
	"errors"
	"fmt"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// ErrInvalidAttempt is returned for attempt numbers below 1.
var ErrInvalidAttempt = errors.New("attempt number must be at least 1")

const (
	suffixModerateError   = " This is required for compliance."
	suffixModerateWarning = " Please address this before submitting."
	suffixStrict          = " This must be addressed before submission."
	suffixManagerApproval = " Manager approval will be required to proceed."
)

// GetEnforcementLevel maps an attempt number to its level.
// 1 soft, 2 moderate, 3 strict, 4+ manager-approval.
func GetEnforcementLevel(attempt int) (schema.EnforcementLevel, error) {
	switch {
	case attempt < 1:
		return "", fmt.Errorf("%w: got %d", ErrInvalidAttempt, attempt)
	case attempt == 1:
		return schema.LevelSoft, nil
	case attempt == 2:
		return schema.LevelModerate, nil
	case attempt == 3:
		return schema.LevelStrict, nil
	default:
		return schema.LevelManagerApproval, nil
	}
}

// Adapt converts issues into requirements and blocking errors for the level
// implied by attempt. Issue order is preserved within each output list.
func Adapt(issues []schema.ValidationIssue, attempt int) (schema.EnforcementResult, error) {
	level, err := GetEnforcementLevel(attempt)
	if err != nil {
		return schema.EnforcementResult{}, err
	}

	res := schema.EnforcementResult{
		EnforcementLevel:        level,
		Requirements:            []schema.Requirement{},
		Errors:                  []schema.EnforcementError{},
		RequiresManagerApproval: level == schema.LevelManagerApproval,
	}

	for _, issue := range issues {
		switch level {
		case schema.LevelSoft:
			res.Requirements = append(res.Requirements, requirement(issue, ""))
		case schema.LevelModerate:
			if issue.Severity == schema.SeverityError {
				res.Errors = append(res.Errors, blocking(issue, suffixModerateError))
			} else {
				res.Requirements = append(res.Requirements, requirement(issue, suffixModerateWarning))
			}
		case schema.LevelStrict:
			res.Errors = append(res.Errors, blocking(issue, suffixStrict))
		default:
			res.Errors = append(res.Errors, blocking(issue, suffixManagerApproval))
		}
	}

	if level == schema.LevelSoft {
		res.Warnings = []schema.EnforcementWarning{}
	}
	if attempt > 1 {
		res.EscalationReason = fmt.Sprintf("This is attempt %d. Previous attempts had similar issues that need to be addressed.", attempt)
	}
	return res, nil
}

func requirement(issue schema.ValidationIssue, suffix string) schema.Requirement {
	return schema.Requirement{
		Field:      issue.Field,
		Message:    issue.Message + suffix,
		Reference:  issue.RuleReference,
		ExampleFix: issue.ExampleFix,
	}
}

func blocking(issue schema.ValidationIssue, suffix string) schema.EnforcementError {
	return schema.EnforcementError{
		Field:     issue.Field,
		Message:   issue.Message + suffix,
		Reference: issue.RuleReference,
	}
}

// EscalationMessage returns the user-facing narrative for an attempt.
// The text depends on the attempt bucket only; level is accepted for
// callers that already hold it.
func EscalationMessage(attempt int, _ schema.EnforcementLevel) string {
	switch attempt {
	case 1:
		return "Please review the requirements below and update your submission."
	case 2:
		return "Some requirements from your previous attempt still need attention. Please address these before submitting."
	case 3:
		return "This submission still does not meet requirements. A manager's approval will be needed to proceed."
	default:
		return "Manager approval is required for this submission."
	}
}
