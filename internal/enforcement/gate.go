package enforcement

import (
	"context"
	"fmt"
	"time"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/quality"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/review"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema/validate"
)

// PolicySource supplies the active policy version. Implementations must
// degrade to a default rather than fail.
type PolicySource interface {
	GetCurrentPolicy(ctx context.Context) schema.PolicyVersion
}

// AttemptCounter looks up the next attempt number for a form.
type AttemptCounter interface {
	NextAttempt(ctx context.Context, formType schema.FormType, formID, userID string) (int, error)
}

// OutcomeWriter persists gate decisions.
type OutcomeWriter interface {
	Append(ctx context.Context, entry schema.OutcomeEntry) (string, error)
	RecordManagerApproval(ctx context.Context, d schema.ApprovalDecision) error
}

// Recorder receives decision metrics.
type Recorder interface {
	ObserveDecision(formType schema.FormType, level schema.EnforcementLevel, action schema.Action)
	ObserveIssues(issues []schema.ValidationIssue)
}

// Gate evaluates submission attempts. Every collaborator is optional: with
// none set it validates against the built-in rules, counts every attempt as
// the first, and records nothing.
type Gate struct {
	Policy   PolicySource
	Attempts AttemptCounter
	Outcomes OutcomeWriter
	Metrics  Recorder
	Log      *logger.Logger
	Now      func() time.Time
}

// Evaluate validates one submission attempt and decides whether it may proceed.
func (g *Gate) Evaluate(ctx context.Context, sub schema.Submission) (schema.Decision, error) {
	if err := validate.Submission(&sub); err != nil {
		return schema.Decision{}, err
	}
	log := g.logger().With("form_type", sub.FormType, "form_id", sub.FormID, "user_id", sub.UserID)

	attempt := g.resolveAttempt(ctx, sub, log)
	v := quality.Default
	if g.Policy != nil {
		v = quality.NewValidator(g.Policy.GetCurrentPolicy(ctx).Rules)
	}

	results := map[string]schema.ValidationResult{}
	switch sub.FormType {
	case schema.FormNCA:
		nca := sub.NCA
		if nca.NCDescription != "" && nca.NCType != "" {
			results[schema.FieldNCDescription] = v.ValidateDescriptionCompleteness(nca.NCDescription, nca.NCType)
		}
		results[schema.FieldRootCauseAnalysis] = v.ValidateRootCauseDepth(nca.RootCauseAnalysis)
		results[schema.FieldCorrectiveAction] = v.ValidateCorrectiveActionSpecificity(nca.CorrectiveAction)
	case schema.FormMJC:
		results[schema.FieldDescriptionRequired] = v.ValidateMaintenanceDescription(sub.MJC.DescriptionRequired)
		results[schema.FieldMaintenancePerformed] = v.ValidateMaintenancePerformed(sub.MJC.MaintenancePerformed)
	}

	issues := collectIssues(sub.FormType, results)
	adapted, err := Adapt(issues, attempt)
	if err != nil {
		return schema.Decision{}, err
	}

	action := actionFor(adapted)
	d := schema.Decision{
		FormType:          sub.FormType,
		AttemptNumber:     attempt,
		Action:            action,
		Enforcement:       adapted,
		EscalationMessage: EscalationMessage(attempt, adapted.EnforcementLevel),
		Score:             review.Score(issues),
		Issues:            issues,
		Results:           results,
	}

	if g.Outcomes != nil {
		entry := schema.OutcomeEntry{
			FormType:                 sub.FormType,
			FormID:                   sub.FormID,
			UserID:                   sub.UserID,
			AttemptNumber:            attempt,
			EnforcementLevel:         adapted.EnforcementLevel,
			IssuesFound:              issues,
			RequirementsMissing:      adapted.Requirements,
			ErrorsBlocking:           adapted.Errors,
			ActionTaken:              action,
			ManagerApprovalRequested: adapted.RequiresManagerApproval,
			Tags:                     Tags(issues),
			CreatedAt:                g.now(),
		}
		id, err := g.Outcomes.Append(ctx, entry)
		if err != nil {
			log.Error("enforcement log append failed", "error", err, "attempt_number", attempt)
		} else {
			d.LogID = id
		}
	}

	if g.Metrics != nil {
		g.Metrics.ObserveDecision(sub.FormType, adapted.EnforcementLevel, action)
		g.Metrics.ObserveIssues(issues)
	}

	log.Info("submission evaluated",
		"attempt_number", attempt,
		"level", adapted.EnforcementLevel,
		"action", action,
		"issues", len(issues))
	return d, nil
}

// ManagerApproval records a manager's ruling against an enforcement log entry.
func (g *Gate) ManagerApproval(ctx context.Context, d schema.ApprovalDecision) error {
	if err := validate.Approval(d); err != nil {
		return err
	}
	if g.Outcomes == nil {
		return fmt.Errorf("manager approval: no enforcement log configured")
	}
	if err := g.Outcomes.RecordManagerApproval(ctx, d); err != nil {
		return fmt.Errorf("manager approval for %s: %w", d.LogID, err)
	}
	g.logger().Info("manager approval recorded", "log_id", d.LogID, "manager_id", d.ManagerID, "approved", d.Approved)
	return nil
}

func (g *Gate) resolveAttempt(ctx context.Context, sub schema.Submission, log *logger.Logger) int {
	if sub.AttemptNumber >= 1 {
		return sub.AttemptNumber
	}
	if g.Attempts == nil || sub.FormID == "" {
		return 1
	}
	n, err := g.Attempts.NextAttempt(ctx, sub.FormType, sub.FormID, sub.UserID)
	if err != nil {
		log.Warn("attempt lookup failed, assuming first attempt", "error", err)
		return 1
	}
	if n < 1 {
		return 1
	}
	return n
}

func (g *Gate) logger() *logger.Logger {
	if g.Log == nil {
		return logger.Nop()
	}
	return g.Log
}

func (g *Gate) now() time.Time {
	if g.Now == nil {
		return time.Now().UTC()
	}
	return g.Now()
}

// fieldOrder fixes the issue order per form so decisions are deterministic.
// collectIssues emits every error before any warning, each group in field order.
var fieldOrder = map[schema.FormType][]string{
	schema.FormNCA: {schema.FieldNCDescription, schema.FieldRootCauseAnalysis, schema.FieldCorrectiveAction},
	schema.FormMJC: {schema.FieldDescriptionRequired, schema.FieldMaintenancePerformed},
}

func collectIssues(ft schema.FormType, results map[string]schema.ValidationResult) []schema.ValidationIssue {
	issues := []schema.ValidationIssue{}
	for _, sev := range []schema.Severity{schema.SeverityError, schema.SeverityWarning} {
		for _, f := range fieldOrder[ft] {
			for _, i := range results[f].Issues {
				if i.Severity == sev {
					issues = append(issues, i)
				}
			}
		}
	}
	return issues
}

func actionFor(res schema.EnforcementResult) schema.Action {
	switch {
	case res.RequiresManagerApproval:
		return schema.ActionManagerApprovalRequired
	case len(res.Errors) > 0:
		return schema.ActionSubmissionBlocked
	default:
		return schema.ActionSubmissionAllowed
	}
}

// Tags returns every distinct issue field and rule id in first-seen order.
func Tags(issues []schema.ValidationIssue) []string {
	seen := map[string]bool{}
	tags := []string{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			tags = append(tags, s)
		}
	}
	for _, i := range issues {
		add(i.Field)
		add(i.RuleID)
	}
	return tags
}
