package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

type EnforcementLogRepo interface {
	Append(ctx context.Context, entry schema.OutcomeEntry) (string, error)
	NextAttempt(ctx context.Context, formType schema.FormType, formID, userID string) (int, error)
	RecordManagerApproval(ctx context.Context, d schema.ApprovalDecision) error
	Query(ctx context.Context, f policy.OutcomeFilter) ([]schema.OutcomeRecord, error)
	UserAttempts(ctx context.Context, userID string, since time.Time) ([]schema.EnforcementAttempt, error)
	Get(ctx context.Context, id string) (*EnforcementLogRow, error)
}

type enforcementLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnforcementLogRepo(db *gorm.DB, baseLog *logger.Logger) EnforcementLogRepo {
	return &enforcementLogRepo{
		db:  db,
		log: baseLog.With("repo", "EnforcementLogRepo"),
	}
}

// Append writes the entry and its tags together.
func (r *enforcementLogRepo) Append(ctx context.Context, entry schema.OutcomeEntry) (string, error) {
	missing, err := json.Marshal(nonNil(entry.RequirementsMissing))
	if err != nil {
		return "", fmt.Errorf("encode requirements_missing: %w", err)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	attempt := entry.AttemptNumber
	row := EnforcementLogRow{
		ID:                       uuid.New(),
		FormType:                 string(entry.FormType),
		FormID:                   entry.FormID,
		UserID:                   entry.UserID,
		AttemptNumber:            &attempt,
		EnforcementLevel:         string(entry.EnforcementLevel),
		IssuesFound:              datatypes.NewJSONType(nonNil(entry.IssuesFound)),
		RequirementsMissing:      datatypes.JSON(missing),
		ErrorsBlocking:           datatypes.NewJSONType(nonNil(entry.ErrorsBlocking)),
		ActionTaken:              string(entry.ActionTaken),
		ManagerApprovalRequested: entry.ManagerApprovalRequested,
		CreatedAt:                createdAt.UTC(),
	}

	tags := make([]EnforcementLogTag, 0, len(entry.Tags))
	seen := map[string]bool{}
	for _, t := range entry.Tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, EnforcementLogTag{LogID: row.ID, Tag: t})
	}

	err = r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(&row).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		return txx.Create(&tags).Error
	})
	if err != nil {
		return "", err
	}
	return row.ID.String(), nil
}

// NextAttempt returns one more than the highest attempt logged for the form
// by this user, or 1 when there is none or formID is empty.
func (r *enforcementLogRepo) NextAttempt(ctx context.Context, formType schema.FormType, formID, userID string) (int, error) {
	if formID == "" {
		return 1, nil
	}
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&EnforcementLogRow{}).
		Select("MAX(attempt_number)").
		Where("form_type = ? AND form_id = ? AND user_id = ?", string(formType), formID, userID).
		Row().
		Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 1, nil
	}
	return int(max.Int64) + 1, nil
}

func (r *enforcementLogRepo) RecordManagerApproval(ctx context.Context, d schema.ApprovalDecision) error {
	id, err := uuid.Parse(d.LogID)
	if err != nil {
		return fmt.Errorf("log id %q: %w", d.LogID, ErrNotFound)
	}
	managerID := d.ManagerID
	approved := d.Approved
	decidedAt := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&EnforcementLogRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"manager_id":         &managerID,
			"manager_approved":   &approved,
			"manager_notes":      d.Notes,
			"manager_decided_at": &decidedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("log id %q: %w", d.LogID, ErrNotFound)
	}
	r.log.Info("manager decision recorded", "log_id", d.LogID, "manager_id", d.ManagerID, "approved", d.Approved)
	return nil
}

// Query returns entries created at or after f.Since, oldest first. A
// non-empty RuleTag restricts the result to entries carrying that tag.
func (r *enforcementLogRepo) Query(ctx context.Context, f policy.OutcomeFilter) ([]schema.OutcomeRecord, error) {
	q := r.db.WithContext(ctx).Model(&EnforcementLogRow{})
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}
	if f.RuleTag != "" {
		tagged := r.db.WithContext(ctx).Model(&EnforcementLogTag{}).Select("log_id").Where("tag = ?", f.RuleTag)
		q = q.Where("id IN (?)", tagged)
	}
	var rows []EnforcementLogRow
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]schema.OutcomeRecord, 0, len(rows))
	for _, row := range rows {
		rec := schema.OutcomeRecord{
			ActionTaken:         row.ActionTaken,
			AttemptNumber:       row.AttemptNumber,
			RequirementsMissing: []schema.MissingDescriptor{},
		}
		if len(row.RequirementsMissing) > 0 {
			if err := json.Unmarshal(row.RequirementsMissing, &rec.RequirementsMissing); err != nil {
				r.log.Warn("skipping unreadable requirements_missing", "log_id", row.ID.String(), "error", err)
				rec.RequirementsMissing = []schema.MissingDescriptor{}
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// UserAttempts rebuilds a user's attempt history for pattern analysis.
func (r *enforcementLogRepo) UserAttempts(ctx context.Context, userID string, since time.Time) ([]schema.EnforcementAttempt, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	var rows []EnforcementLogRow
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]schema.EnforcementAttempt, 0, len(rows))
	for _, row := range rows {
		issues := nonNil(row.IssuesFound.Data())
		attempt := 1
		if row.AttemptNumber != nil {
			attempt = *row.AttemptNumber
		}
		out = append(out, schema.EnforcementAttempt{
			UserID:        row.UserID,
			FormType:      schema.FormType(row.FormType),
			FormID:        row.FormID,
			AttemptNumber: attempt,
			Timestamp:     row.CreatedAt.UTC(),
			ValidationResult: schema.ValidationResult{
				Valid:               !hasErrorIssue(issues),
				Issues:              issues,
				MissingRequirements: []string{},
				VaguePhrases:        []string{},
			},
			Issues: issues,
		})
	}
	return out, nil
}

func (r *enforcementLogRepo) Get(ctx context.Context, id string) (*EnforcementLogRow, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var row EnforcementLogRow
	if err := r.db.WithContext(ctx).Where("id = ?", uid).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrNotFound
	}
	return &row, nil
}

func hasErrorIssue(issues []schema.ValidationIssue) bool {
	for _, i := range issues {
		if i.Severity == schema.SeverityError {
			return true
		}
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
