package enforcement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// ErrNoAttempts is returned when a pattern is requested over zero attempts.
var ErrNoAttempts = errors.New("cannot analyze pattern from empty attempts")

const (
	frequentIssueLimit   = 3
	contentPatternMinLen = 3
	persistenceRatio     = 0.8
)

// AnalyzeUserPattern summarises a user's attempts. attempts must be in
// chronological order; the last element supplies LastAttemptDate.
func AnalyzeUserPattern(attempts []schema.EnforcementAttempt) (schema.UserEnforcementPattern, error) {
	if len(attempts) == 0 {
		return schema.UserEnforcementPattern{}, ErrNoAttempts
	}

	counts := map[string]int{}
	var order []string
	forms := map[string]struct{}{}
	escalated := false

	for _, a := range attempts {
		for _, issue := range a.Issues {
			if _, seen := counts[issue.Field]; !seen {
				order = append(order, issue.Field)
			}
			counts[issue.Field]++
		}
		if a.FormID != "" {
			forms[a.FormID] = struct{}{}
		}
		if a.AttemptNumber >= 3 {
			escalated = true
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > frequentIssueLimit {
		order = order[:frequentIssueLimit]
	}
	frequent := make([]string, len(order))
	copy(frequent, order)

	avg := float64(len(attempts))
	if len(forms) > 0 {
		avg = float64(len(attempts)) / float64(len(forms))
	}

	return schema.UserEnforcementPattern{
		UserID:                 attempts[0].UserID,
		TotalAttempts:          len(attempts),
		AverageAttemptsPerForm: avg,
		FrequentIssues:         frequent,
		LastAttemptDate:        attempts[len(attempts)-1].Timestamp,
		EscalationTriggered:    escalated,
	}, nil
}

// DetectContentPattern reports the first issue that recurs in at least 80%
// of the attempts, or nil when fewer than three attempts are given or no
// issue persists. Keys are scanned in first-seen order.
func DetectContentPattern(attempts []schema.EnforcementAttempt) *schema.ContentPattern {
	if len(attempts) < contentPatternMinLen {
		return nil
	}

	type key struct{ field, message string }
	counts := map[key]int{}
	var order []key
	for _, a := range attempts {
		for _, issue := range a.Issues {
			k := key{issue.Field, issue.Message}
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	threshold := float64(len(attempts)) * persistenceRatio
	for _, k := range order {
		if float64(counts[k]) >= threshold {
			return &schema.ContentPattern{
				Pattern:    fmt.Sprintf("Persistent issue: %s", k.field),
				Suggestion: fmt.Sprintf("Consider making the requirement for %q more prominent in placeholders or adjusting validation rules if this is a common pattern.", k.field),
			}
		}
	}
	return nil
}
