package quality

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/vague"
)

var fieldLabels = map[string]string{
	schema.FieldNCDescription:        "Description",
	schema.FieldRootCauseAnalysis:    "Root cause analysis",
	schema.FieldCorrectiveAction:     "Corrective action",
	schema.FieldDescriptionRequired:  "Maintenance description",
	schema.FieldMaintenancePerformed: "Maintenance performed",
}

// hasBuiltinMinimum marks fields whose validator owns the length check.
var hasBuiltinMinimum = map[string]bool{
	schema.FieldNCDescription:       true,
	schema.FieldDescriptionRequired: true,
}

func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// applyRules evaluates the policy rules targeting field. A rule whose
// parameters cannot be interpreted is skipped. minLength on a field with a
// built-in minimum is resolved by minimumFor and ignored here.
func (v *Validator) applyRules(res *result, field, text string) {
	for _, r := range v.rules {
		if r.Field != field {
			continue
		}
		switch r.RuleType {
		case schema.RuleMinLength:
			if hasBuiltinMinimum[field] {
				continue
			}
			n, ok := r.IntParam("minLength")
			if !ok || n < 1 || text == "" || utf8.RuneCountInString(text) >= n {
				continue
			}
			res.add(ruleIssue(r, schema.SeverityError,
				fmt.Sprintf("%s must be at least %d characters.", fieldLabel(field), n)))

		case schema.RulePattern:
			expr, ok := r.StringParam("pattern")
			if !ok || expr == "" {
				continue
			}
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil || re.MatchString(text) {
				continue
			}
			msg, ok := r.StringParam("message")
			if !ok || msg == "" {
				msg = fmt.Sprintf("%s does not match the required format.", fieldLabel(field))
			}
			res.add(ruleIssue(r, schema.SeverityWarning, msg))

		case schema.RuleCompleteness:
			elements := r.StringsParam("requiredElements")
			var absent []string
			lower := strings.ToLower(text)
			for _, el := range elements {
				if el != "" && !strings.Contains(lower, strings.ToLower(el)) {
					absent = append(absent, el)
				}
			}
			if len(absent) == 0 {
				continue
			}
			res.missing = append(res.missing, absent...)
			res.add(ruleIssue(r, schema.SeverityWarning,
				fmt.Sprintf("%s must mention: %s.", fieldLabel(field), strings.Join(absent, ", "))))

		case schema.RuleSpecificity:
			found := vague.Detect(text)
			if len(found) == 0 {
				continue
			}
			res.add(ruleIssue(r, schema.SeverityWarning,
				fmt.Sprintf("%s contains vague language (%s). Please be more specific.", fieldLabel(field), strings.Join(found, ", "))))
		}
	}
}

func ruleIssue(r schema.PolicyRule, sev schema.Severity, msg string) schema.ValidationIssue {
	return schema.ValidationIssue{
		Field:         r.Field,
		Message:       msg,
		Severity:      sev,
		RuleReference: r.ReferenceCode,
		RuleID:        r.ID,
	}
}
