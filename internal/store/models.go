package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type PolicyVersionRow struct {
	ID            uuid.UUID                               `gorm:"type:uuid;primaryKey" json:"id"`
	Version       string                                  `gorm:"column:version;not null;uniqueIndex" json:"version"`
	EffectiveDate time.Time                               `gorm:"column:effective_date;not null" json:"effective_date"`
	Status        string                                  `gorm:"column:status;not null;index" json:"status"`
	Rules         datatypes.JSONType[[]schema.PolicyRule] `gorm:"column:rules" json:"rules"`
	Changelog     datatypes.JSONType[[]string]            `gorm:"column:changelog" json:"changelog"`
	CreatedBy     string                                  `gorm:"column:created_by" json:"created_by"`
	CreatedAt     time.Time                               `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (PolicyVersionRow) TableName() string { return "policy_versions" }

func (r PolicyVersionRow) toDomain() *schema.PolicyVersion {
	rules := r.Rules.Data()
	if rules == nil {
		rules = []schema.PolicyRule{}
	}
	changelog := r.Changelog.Data()
	if changelog == nil {
		changelog = []string{}
	}
	return &schema.PolicyVersion{
		Version:       r.Version,
		EffectiveDate: r.EffectiveDate.UTC(),
		Rules:         rules,
		Changelog:     changelog,
	}
}

// EnforcementLogRow is one gate decision. RequirementsMissing is stored as
// raw JSON so analytics can read it back as loose field/message descriptors.
type EnforcementLogRow struct {
	ID                       uuid.UUID                                     `gorm:"type:uuid;primaryKey" json:"id"`
	FormType                 string                                        `gorm:"column:form_type;not null;index:idx_enforcement_form" json:"form_type"`
	FormID                   string                                        `gorm:"column:form_id;index:idx_enforcement_form" json:"form_id"`
	UserID                   string                                        `gorm:"column:user_id;not null;index:idx_enforcement_form;index" json:"user_id"`
	AttemptNumber            *int                                          `gorm:"column:attempt_number" json:"attempt_number"`
	EnforcementLevel         string                                        `gorm:"column:enforcement_level;not null" json:"enforcement_level"`
	IssuesFound              datatypes.JSONType[[]schema.ValidationIssue]  `gorm:"column:issues_found" json:"issues_found"`
	RequirementsMissing      datatypes.JSON                                `gorm:"column:requirements_missing" json:"requirements_missing"`
	ErrorsBlocking           datatypes.JSONType[[]schema.EnforcementError] `gorm:"column:errors_blocking" json:"errors_blocking"`
	ActionTaken              string                                        `gorm:"column:action_taken;not null;index" json:"action_taken"`
	ManagerApprovalRequested bool                                          `gorm:"column:manager_approval_requested;not null;default:false" json:"manager_approval_requested"`
	ManagerID                *string                                       `gorm:"column:manager_id" json:"manager_id,omitempty"`
	ManagerApproved          *bool                                         `gorm:"column:manager_approved" json:"manager_approved,omitempty"`
	ManagerNotes             string                                        `gorm:"column:manager_notes" json:"manager_notes,omitempty"`
	ManagerDecidedAt         *time.Time                                    `gorm:"column:manager_decided_at" json:"manager_decided_at,omitempty"`
	CreatedAt                time.Time                                     `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (EnforcementLogRow) TableName() string { return "enforcement_log" }

// EnforcementLogTag indexes a log entry by issue field and rule id.
type EnforcementLogTag struct {
	LogID uuid.UUID `gorm:"type:uuid;primaryKey;column:log_id" json:"log_id"`
	Tag   string    `gorm:"primaryKey;column:tag;index" json:"tag"`
}

func (EnforcementLogTag) TableName() string { return "enforcement_log_tag" }

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&PolicyVersionRow{},
		&EnforcementLogRow{},
		&EnforcementLogTag{},
	}
}
