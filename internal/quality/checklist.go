package quality

import (
	"regexp"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/profile"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// ChecklistItem is one line of the live requirement checklist shown beside a field.
type ChecklistItem struct {
	Label    string `json:"label"`
	Checked  bool   `json:"checked"`
	Required bool   `json:"required"`
}

var (
	richWhen        = regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}(?:\s*(?:am|pm))?|\d{1,2}\s*(?:am|pm)|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}|\d{1,2}(?:st|nd|rd|th)\s+of\s+\w+\s+\d{4}|\w+\s+\d{1,2},?\s+\d{4}|today|yesterday|this\s+(?:morning|afternoon|evening)|at\s+\d+|on\s+(?:the\s+)?\d{1,2}(?:st|nd|rd|th)?|on\s+\w+day)\b`)
	blameOnly       = regexp.MustCompile(`(?i)\b(operator error|human error|mistake|machine (issue|problem|broken))\b`)
	checklistVerb   = regexp.MustCompile(`(?i)\b(will|must|shall|implement|add|update|verify|check|train|calibrate|replace|install|modify|create|establish)\b`)
	checklistProc   = regexp.MustCompile(`(?i)\b(SOP|BRCGS|procedure|section|5\.\d+|3\.\d+|2\.\d+)\b`)
	checklistVerify = regexp.MustCompile(`(?i)\b(verify|check|confirm|validate|monitor|review|audit)\b`)
	checklistWhen   = regexp.MustCompile(`(?i)\b(within|by|due|deadline|target|schedule|next|weekly|monthly|daily)\b`)
)

// Checklist returns the requirement checklist for a field. The description
// checklist needs an ncType; without one, or for any other field, the
// checklist is empty.
func Checklist(field, value, ncType string) []ChecklistItem {
	switch field {
	case schema.FieldNCDescription:
		if ncType == "" {
			return []ChecklistItem{}
		}
		p := profile.Get(ncType)
		return []ChecklistItem{
			{"What happened", whatPattern.MatchString(value), true},
			{"When (time/date)", richWhen.MatchString(value), p.RequireTime},
			{"Where (location)", wherePattern.MatchString(value), true},
			{"Quantity affected", quantityPattern.MatchString(value), true},
			{"Batch/carton numbers", batchPattern.MatchString(value), p.RequireBatch},
		}
	case schema.FieldRootCauseAnalysis:
		whys := countMatches(causalMarker, value)
		return []ChecklistItem{
			{`First "why" answered`, whys >= 1, true},
			{`Second "why" answered`, whys >= 2, true},
			{`Third "why" answered`, whys >= 3, true},
			{"Specific root cause identified", !blameOnly.MatchString(value) || whys >= 3, true},
		}
	case schema.FieldCorrectiveAction:
		return []ChecklistItem{
			{"At least 2 specific actions", countMatches(checklistVerb, value) >= minSpecificAction, true},
			{"Procedure reference included", checklistProc.MatchString(value), true},
			{"Verification method included", checklistVerify.MatchString(value), true},
			{"Verification timeline included", checklistWhen.MatchString(value), true},
		}
	}
	return []ChecklistItem{}
}
