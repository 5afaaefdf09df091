package quality

import (
	"regexp"
	"strings"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

var (
	actionVerb        = regexp.MustCompile(`(?i)\b(will|must|shall|implement|add|update|verify|check|train|calibrate|replace|install|modify|create|establish|conduct|perform|review)\b`)
	procedureRef      = regexp.MustCompile(`(?i)\b(SOP|BRCGS|procedure|section|5\.\d+|3\.\d+|2\.\d+|5\.7|5\.3|5\.6)\b`)
	verificationCue   = regexp.MustCompile(`(?i)\b(verify|check|confirm|validate|monitor|review|audit|inspect|test)\b`)
	timelineCue       = regexp.MustCompile(`(?i)\b(within|by|due|deadline|target|schedule|next|weekly|monthly|daily|immediately|within \d+ days?|by \d{1,2}-\w{3})\b`)
	minSpecificAction = 2
)

// ValidateCorrectiveActionSpecificity checks a corrective action for concrete
// actions, a procedure reference, a verification method and a timeline.
// Every built-in finding is a warning.
func (v *Validator) ValidateCorrectiveActionSpecificity(action string) schema.ValidationResult {
	trimmed := strings.TrimSpace(action)
	if trimmed == "" {
		return emptyResult()
	}

	res := newResult()

	if countMatches(actionVerb, trimmed) < minSpecificAction {
		res.add(schema.ValidationIssue{
			Field:      schema.FieldCorrectiveAction,
			Message:    `Include at least 2 specific actions (e.g., "1) Calibrate all sensors immediately. 2) Update maintenance schedule.")`,
			Severity:   schema.SeverityWarning,
			ExampleFix: `Example: "1) Calibrate all adhesive temperature sensors immediately. 2) Implement weekly sensor checks per BRCGS 5.6."`,
		})
		res.missing = append(res.missing, "multiple specific actions")
	}

	if !procedureRef.MatchString(trimmed) {
		res.add(schema.ValidationIssue{
			Field:         schema.FieldCorrectiveAction,
			Message:       `Reference relevant procedures (e.g., "as per SOP 5.7" or "BRCGS Section 5.3")`,
			Severity:      schema.SeverityWarning,
			RuleReference: "BRCGS 5.7 Section 5",
			ExampleFix:    `Example: "Update maintenance schedule per BRCGS 5.6 Calibration Procedure"`,
		})
		res.missing = append(res.missing, "procedure reference")
	}

	if !verificationCue.MatchString(trimmed) {
		res.add(schema.ValidationIssue{
			Field:      schema.FieldCorrectiveAction,
			Message:    `Include a verification method (e.g., "QA will verify on next batch" or "Maintenance will check weekly")`,
			Severity:   schema.SeverityWarning,
			ExampleFix: `Example: "QA will verify effectiveness on next batch (due 10-Oct)"`,
		})
		res.missing = append(res.missing, "verification method")
	}

	if !timelineCue.MatchString(trimmed) {
		res.add(schema.ValidationIssue{
			Field:      schema.FieldCorrectiveAction,
			Message:    `Include a timeline for verification (e.g., "due 10-Oct" or "within 5 days")`,
			Severity:   schema.SeverityWarning,
			ExampleFix: `Example: "QA will verify on next batch (due 10-Oct)"`,
		})
		res.missing = append(res.missing, "verification timeline")
	}

	v.applyRules(res, schema.FieldCorrectiveAction, trimmed)
	return res.build()
}
