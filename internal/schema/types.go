package schema

import "time"

// Severity of a validation issue. Only errors block submission on their own.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// SeverityOrdinal returns warning(0) < error(1), or -1 for an unknown value.
func SeverityOrdinal(s Severity) int {
	switch s {
	case SeverityWarning:
		return 0
	case SeverityError:
		return 1
	default:
		return -1
	}
}

// Verdict summarises a decision for reports.
type Verdict string

const (
	VerdictReady          Verdict = "READY"
	VerdictNeedsAttention Verdict = "NEEDS_ATTENTION"
	VerdictBlocked        Verdict = "BLOCKED"
)

// FormType identifies the record being submitted.
type FormType string

const (
	FormNCA FormType = "nca"
	FormMJC FormType = "mjc"
)

// IsValidFormType reports whether f is nca or mjc.
func IsValidFormType(f FormType) bool {
	return f == FormNCA || f == FormMJC
}

// EnforcementLevel is the escalation tier derived from the attempt number.
type EnforcementLevel string

const (
	LevelSoft            EnforcementLevel = "soft"
	LevelModerate        EnforcementLevel = "moderate"
	LevelStrict          EnforcementLevel = "strict"
	LevelManagerApproval EnforcementLevel = "manager-approval"
)

// LevelOrdinal returns the numeric ordering for a level.
// soft(0) < moderate(1) < strict(2) < manager-approval(3).
// Returns -1 for an unrecognised level.
func LevelOrdinal(l EnforcementLevel) int {
	switch l {
	case LevelSoft:
		return 0
	case LevelModerate:
		return 1
	case LevelStrict:
		return 2
	case LevelManagerApproval:
		return 3
	default:
		return -1
	}
}

// Action is the outcome recorded in the enforcement log for one attempt.
type Action string

const (
	ActionHintShown               Action = "hint_shown"
	ActionRequirementPromoted     Action = "requirement_promoted"
	ActionErrorEscalated          Action = "error_escalated"
	ActionManagerApprovalRequired Action = "manager_approval_required"
	ActionSubmissionBlocked       Action = "submission_blocked"
	ActionSubmissionAllowed       Action = "submission_allowed"
)

// Field names used by the validators and the enforcement log.
const (
	FieldNCDescription        = "nc_description"
	FieldRootCauseAnalysis    = "root_cause_analysis"
	FieldCorrectiveAction     = "corrective_action"
	FieldDescriptionRequired  = "description_required"
	FieldMaintenancePerformed = "maintenance_performed"
)

// ValidationIssue is a single finding produced by a validator.
type ValidationIssue struct {
	Field         string   `json:"field"`
	Message       string   `json:"message"`
	Severity      Severity `json:"severity"`
	RuleReference string   `json:"rule_reference,omitempty"`
	ExampleFix    string   `json:"example_fix,omitempty"`
	// RuleID is set when the issue was raised by a published policy rule.
	RuleID string `json:"rule_id,omitempty"`
}

// ValidationResult is the output of one validator call.
type ValidationResult struct {
	Valid               bool              `json:"valid"`
	Issues              []ValidationIssue `json:"issues"`
	MissingRequirements []string          `json:"missing_requirements"`
	VaguePhrases        []string          `json:"vague_phrases"`
}

// Requirement is a non-blocking item the submitter should address.
type Requirement struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Reference  string `json:"reference,omitempty"`
	ExampleFix string `json:"example_fix,omitempty"`
}

// EnforcementError blocks submission.
type EnforcementError struct {
	Field     string `json:"field"`
	Message   string `json:"message"`
	Reference string `json:"brcgs_requirement,omitempty"`
}

// EnforcementWarning is advisory only.
type EnforcementWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// EnforcementResult is the adaptive enforcement decision for one attempt.
// Warnings is non-nil only at the soft level.
type EnforcementResult struct {
	EnforcementLevel        EnforcementLevel     `json:"enforcement_level"`
	Requirements            []Requirement        `json:"requirements"`
	Errors                  []EnforcementError   `json:"errors"`
	Warnings                []EnforcementWarning `json:"warnings,omitempty"`
	EscalationReason        string               `json:"escalation_reason,omitempty"`
	RequiresManagerApproval bool                 `json:"requires_manager_approval"`
}

// EnforcementAttempt is one submission attempt supplied by the caller.
type EnforcementAttempt struct {
	UserID           string            `json:"user_id"`
	FormType         FormType          `json:"form_type"`
	FormID           string            `json:"form_id,omitempty"`
	AttemptNumber    int               `json:"attempt_number"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationResult ValidationResult  `json:"validation_result"`
	Issues           []ValidationIssue `json:"issues"`
}

// UserEnforcementPattern summarises a user's attempt history.
type UserEnforcementPattern struct {
	UserID                 string    `json:"user_id"`
	TotalAttempts          int       `json:"total_attempts"`
	AverageAttemptsPerForm float64   `json:"average_attempts_per_form"`
	FrequentIssues         []string  `json:"frequent_issues"`
	LastAttemptDate        time.Time `json:"last_attempt_date"`
	EscalationTriggered    bool      `json:"escalation_triggered"`
}

// ContentPattern flags an issue that persists across most attempts.
type ContentPattern struct {
	Pattern    string `json:"pattern"`
	Suggestion string `json:"suggestion"`
}
