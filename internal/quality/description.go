package quality

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/profile"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/vague"
)

// shortTextThreshold is the length under which vague wording is reported.
const shortTextThreshold = 100

const descriptionExample = `Example: "Laminate delamination found on batch B-2045 during inspection at 14:30 in Finishing Area 2. Approximately 150 units affected. No product release yet."`

var (
	whatPattern     = regexp.MustCompile(`(?i)\b(what|found|discovered|observed|detected|identified)\b`)
	whenPattern     = regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}|\d{1,2}/\d{1,2}/\d{4}|today|yesterday|at \d+|on \w+day)\b`)
	wherePattern    = regexp.MustCompile(`(?i)\b(area|line|machine|station|location|section|zone)\b`)
	quantityPattern = regexp.MustCompile(`(?i)\b(\d+|approximately|about|around|several|many|few)\b`)
	batchPattern    = regexp.MustCompile(`(?i)\b(batch|carton|reel|box|lot|B-|C-|R-)\b`)
)

// requiredElements are checked in this order; the label is reported when
// the pattern does not match.
var requiredElements = []struct {
	label   string
	pattern *regexp.Regexp
}{
	{"what happened", whatPattern},
	{"when it occurred (time/date)", whenPattern},
	{"where it occurred (location/area)", wherePattern},
	{"quantity affected", quantityPattern},
	{"batch/carton numbers", batchPattern},
}

// ValidateDescriptionCompleteness checks length, required elements and
// wording of an NC description for the given category.
func (v *Validator) ValidateDescriptionCompleteness(description, ncType string) schema.ValidationResult {
	res := newResult()
	prof := profile.Get(ncType)

	requiredMin, rule := v.minimumFor(schema.FieldNCDescription, ncType, prof.MinDescriptionLength)
	if utf8.RuneCountInString(description) < requiredMin {
		res.add(minimumIssue(rule, schema.ValidationIssue{
			Field:         schema.FieldNCDescription,
			Message:       fmt.Sprintf("Description must be at least %d characters for %s non-conformances.", requiredMin, prof.Label()),
			Severity:      schema.SeverityError,
			RuleReference: "BRCGS 5.7.2",
			ExampleFix:    descriptionExample,
		}))
	}

	for _, el := range requiredElements {
		if !el.pattern.MatchString(description) {
			res.missing = append(res.missing, el.label)
		}
	}

	if utf8.RuneCountInString(description) < shortTextThreshold {
		res.vague = append(res.vague, vague.DetectCore(description)...)
	}

	if len(res.missing) > 0 {
		res.add(schema.ValidationIssue{
			Field:         schema.FieldNCDescription,
			Message:       fmt.Sprintf("Description incomplete. Please add: %s.", strings.Join(res.missing, ", ")),
			Severity:      schema.SeverityWarning,
			RuleReference: "BRCGS 5.7.2",
		})
	}

	if len(res.vague) > 0 {
		res.add(schema.ValidationIssue{
			Field:      schema.FieldNCDescription,
			Message:    fmt.Sprintf("Description contains vague language (%s). Please be more specific with details, measurements, and quantities.", strings.Join(res.vague, ", ")),
			Severity:   schema.SeverityWarning,
			ExampleFix: `Instead of "bad product", describe what was wrong: "Seal integrity failure - side seal temperature 5°C below specification"`,
		})
	}

	if prof.RequireTime && !whenPattern.MatchString(description) {
		res.add(schema.ValidationIssue{
			Field:         schema.FieldNCDescription,
			Message:       `Incident descriptions must include the time of occurrence (e.g., "at 14:30" or "on 10-Oct at 15:00").`,
			Severity:      schema.SeverityError,
			RuleReference: "BRCGS 5.7 Section 2.1",
		})
	}

	v.applyRules(res, schema.FieldNCDescription, description)
	return res.build()
}

// minimumFor resolves the minimum length of field. A minLength rule scoped
// to ncType wins over an unscoped one; within the same scope the later rule
// wins. The deciding rule is returned, or nil when fallback applies.
func (v *Validator) minimumFor(field, ncType string, fallback int) (int, *schema.PolicyRule) {
	min := fallback
	var winner *schema.PolicyRule
	scoped := false
	for i := range v.rules {
		r := &v.rules[i]
		if r.Field != field || r.RuleType != schema.RuleMinLength {
			continue
		}
		n, ok := r.IntParam("minLength")
		if !ok || n < 1 {
			continue
		}
		t, hasType := r.StringParam("ncType")
		switch {
		case hasType && t == ncType:
			min, winner, scoped = n, r, true
		case !hasType && !scoped:
			min, winner = n, r
		}
	}
	return min, winner
}

// minimumIssue attributes a length issue to the rule that set the minimum.
func minimumIssue(rule *schema.PolicyRule, issue schema.ValidationIssue) schema.ValidationIssue {
	if rule == nil {
		return issue
	}
	issue.RuleID = rule.ID
	if rule.ReferenceCode != "" {
		issue.RuleReference = rule.ReferenceCode
	}
	return issue
}
