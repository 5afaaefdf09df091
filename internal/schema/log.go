package schema

import "time"

// OutcomeEntry is one row appended to the enforcement log per gate decision.
// Tags holds every distinct issue field and rule id so analytics can filter
// by rule.
type OutcomeEntry struct {
	FormType                 FormType           `json:"form_type"`
	FormID                   string             `json:"form_id,omitempty"`
	UserID                   string             `json:"user_id"`
	AttemptNumber            int                `json:"attempt_number"`
	EnforcementLevel         EnforcementLevel   `json:"enforcement_level"`
	IssuesFound              []ValidationIssue  `json:"issues_found"`
	RequirementsMissing      []Requirement      `json:"requirements_missing"`
	ErrorsBlocking           []EnforcementError `json:"errors_blocking"`
	ActionTaken              Action             `json:"action_taken"`
	ManagerApprovalRequested bool               `json:"manager_approval_requested"`
	Tags                     []string           `json:"tags"`
	CreatedAt                time.Time          `json:"created_at"`
}

// ApprovalDecision records a manager's ruling on a blocked attempt.
type ApprovalDecision struct {
	LogID     string `json:"log_id" validate:"required"`
	ManagerID string `json:"manager_id" validate:"required"`
	Approved  bool   `json:"approved"`
	Notes     string `json:"notes,omitempty"`
}
