package schema

// NCA holds the free-text fields of a non-conformance report that the
// validators inspect.
type NCA struct {
	NCAID             string `json:"nca_id,omitempty" yaml:"nca_id,omitempty"`
	NCType            string `json:"nc_type" yaml:"nc_type" validate:"omitempty,oneof=raw-material finished-goods wip incident other"`
	NCDescription     string `json:"nc_description" yaml:"nc_description"`
	RootCauseAnalysis string `json:"root_cause_analysis,omitempty" yaml:"root_cause_analysis,omitempty"`
	CorrectiveAction  string `json:"corrective_action,omitempty" yaml:"corrective_action,omitempty"`
}

// MJC holds the free-text fields of a maintenance job card.
type MJC struct {
	MJCID                string `json:"mjc_id,omitempty" yaml:"mjc_id,omitempty"`
	MaintenanceCategory  string `json:"maintenance_category,omitempty" yaml:"maintenance_category,omitempty" validate:"omitempty,oneof=reactive planned"`
	DescriptionRequired  string `json:"description_required" yaml:"description_required"`
	MaintenancePerformed string `json:"maintenance_performed,omitempty" yaml:"maintenance_performed,omitempty"`
}

// Submission is one form submission attempt entering the enforcement gate.
// AttemptNumber zero means "look it up from the enforcement log".
type Submission struct {
	FormType      FormType `json:"form_type" yaml:"form_type" validate:"required,oneof=nca mjc"`
	FormID        string   `json:"form_id,omitempty" yaml:"form_id,omitempty"`
	UserID        string   `json:"user_id" yaml:"user_id" validate:"required"`
	AttemptNumber int      `json:"attempt_number,omitempty" yaml:"attempt_number,omitempty" validate:"gte=0"`
	NCA           *NCA     `json:"nca,omitempty" yaml:"nca,omitempty" validate:"required_if=FormType nca"`
	MJC           *MJC     `json:"mjc,omitempty" yaml:"mjc,omitempty" validate:"required_if=FormType mjc"`
}

// Decision is the gate's answer for one submission attempt.
type Decision struct {
	LogID             string                      `json:"log_id,omitempty"`
	FormType          FormType                    `json:"form_type"`
	AttemptNumber     int                         `json:"attempt_number"`
	Action            Action                      `json:"action"`
	Enforcement       EnforcementResult           `json:"enforcement"`
	EscalationMessage string                      `json:"escalation_message"`
	Score             int                         `json:"score"`
	Issues            []ValidationIssue           `json:"issues"`
	Results           map[string]ValidationResult `json:"results"`
}
