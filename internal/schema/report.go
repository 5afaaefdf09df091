package schema

// Report is the output of the check command.
type Report struct {
	Tool     string   `json:"tool"`
	Version  string   `json:"version"`
	Input    Input    `json:"input"`
	Summary  Summary  `json:"summary"`
	Decision Decision `json:"decision"`
}

// Input identifies the submission file that was checked.
type Input struct {
	Path     string   `json:"path"`
	SHA256   string   `json:"sha256"`
	FormType FormType `json:"form_type"`
	FormID   string   `json:"form_id,omitempty"`
	UserID   string   `json:"user_id"`
}

// Summary condenses a decision for quick reading.
type Summary struct {
	Verdict          Verdict          `json:"verdict"`
	Score            int              `json:"score"`
	ErrorCount       int              `json:"error_count"`
	WarningCount     int              `json:"warning_count"`
	EnforcementLevel EnforcementLevel `json:"enforcement_level"`
	Action           Action           `json:"action"`
	PolicyVersion    string           `json:"policy_version,omitempty"`
}
