package review

import "github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"

// Score computes the deterministic quality score from raw validator issues,
// before any enforcement level is applied.
// Start: 100, -20 per error, -7 per warning, clamped at 0.
func Score(issues []schema.ValidationIssue) int {
	score := 100
	for _, issue := range issues {
		switch issue.Severity {
		case schema.SeverityError:
			score -= 20
		case schema.SeverityWarning:
			score -= 7
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Verdict summarises an enforcement result. Blocking errors or a pending
// manager approval give BLOCKED; outstanding requirements or warnings give
// NEEDS_ATTENTION.
func Verdict(res schema.EnforcementResult) schema.Verdict {
	if res.RequiresManagerApproval || len(res.Errors) > 0 {
		return schema.VerdictBlocked
	}
	if len(res.Requirements) > 0 || len(res.Warnings) > 0 {
		return schema.VerdictNeedsAttention
	}
	return schema.VerdictReady
}

// Counts returns the error and warning counts from all issues.
func Counts(issues []schema.ValidationIssue) (errors, warnings int) {
	for _, issue := range issues {
		switch issue.Severity {
		case schema.SeverityError:
			errors++
		case schema.SeverityWarning:
			warnings++
		}
	}
	return
}

// FilterBySeverity returns only issues at or above the given threshold severity.
func FilterBySeverity(issues []schema.ValidationIssue, threshold schema.Severity) []schema.ValidationIssue {
	if threshold == schema.SeverityWarning {
		return issues
	}
	min := schema.SeverityOrdinal(threshold)
	out := make([]schema.ValidationIssue, 0, len(issues))
	for _, issue := range issues {
		if schema.SeverityOrdinal(issue.Severity) >= min {
			out = append(out, issue)
		}
	}
	return out
}

// Summarize builds the report summary for a gate decision.
func Summarize(d schema.Decision, policyVersion string) schema.Summary {
	errs, warns := Counts(d.Issues)
	return schema.Summary{
		Verdict:          Verdict(d.Enforcement),
		Score:            d.Score,
		ErrorCount:       errs,
		WarningCount:     warns,
		EnforcementLevel: d.Enforcement.EnforcementLevel,
		Action:           d.Action,
		PolicyVersion:    policyVersion,
	}
}
