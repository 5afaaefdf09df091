package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

var (
	causalMarker    = regexp.MustCompile(`(?i)\b(why|because|due to|caused by|result of|reason)\b`)
	sentenceBreak   = regexp.MustCompile(`[.!?]+`)
	genericPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(operator error|human error|mistake|fault|blame)\b`),
		regexp.MustCompile(`(?i)\b(machine (issue|problem|broken|failure))\b`),
		regexp.MustCompile(`(?i)\b(bad|wrong|incorrect|defective)\b`),
	}
)

// ValidateRootCauseDepth checks that a root cause analysis reaches past the
// first symptom. The field is optional, so blank input is always valid.
func (v *Validator) ValidateRootCauseDepth(analysis string) schema.ValidationResult {
	trimmed := strings.TrimSpace(analysis)
	if trimmed == "" {
		return emptyResult()
	}

	res := newResult()
	whyCount := countMatches(causalMarker, trimmed)
	shallow := countSentences(trimmed) <= 1 && whyCount < 2
	generic := matchesAny(genericPatterns, trimmed) && whyCount < 3

	switch {
	case shallow:
		res.add(schema.ValidationIssue{
			Field:         schema.FieldRootCauseAnalysis,
			Message:       "Root cause analysis is too shallow. Use the 5-Why method: Why did this happen? → [cause]. Why? → [deeper cause]. Why? → [root cause].",
			Severity:      schema.SeverityError,
			RuleReference: "BRCGS 5.7 Section 4",
			ExampleFix:    `Example: "Why did delamination occur? → Adhesive temperature too low. Why? → Heater malfunction. Why? → Sensor drift. Why? → Calibration overdue by 3 weeks."`,
		})
		res.missing = append(res.missing, `multiple layers of "why" analysis`)
	case generic:
		res.add(schema.ValidationIssue{
			Field:      schema.FieldRootCauseAnalysis,
			Message:    `Root cause analysis is too generic. Please be more specific. Instead of "operator error", explain: Why did the operator make the error? Was training adequate? Was the procedure clear?`,
			Severity:   schema.SeverityError,
			ExampleFix: `Instead of "operator error", use: "Operator did not follow first-off checklist → Checklist not visibly posted at machine → Housekeeping procedure does not include checklist positioning verification"`,
		})
		res.missing = append(res.missing, "specific root cause identification")
	case whyCount < 3 && utf8.RuneCountInString(trimmed) > 50:
		res.add(schema.ValidationIssue{
			Field:    schema.FieldRootCauseAnalysis,
			Message:  `Root cause analysis needs more depth. Please add at least one more "why" layer to identify the underlying cause.`,
			Severity: schema.SeverityWarning,
		})
		res.missing = append(res.missing, `additional "why" layers`)
	}

	v.applyRules(res, schema.FieldRootCauseAnalysis, trimmed)
	return res.build()
}

func countMatches(re *regexp.Regexp, s string) int {
	return len(re.FindAllStringIndex(s, -1))
}

func countSentences(s string) int {
	n := 0
	for _, part := range sentenceBreak.Split(s, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
