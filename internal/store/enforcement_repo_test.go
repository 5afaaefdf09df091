package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store/testutil"
)

var base = time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)

func entry(formID string, attempt int, at time.Time, action schema.Action, tags ...string) schema.OutcomeEntry {
	return schema.OutcomeEntry{
		FormType:         schema.FormNCA,
		FormID:           formID,
		UserID:           "user-1",
		AttemptNumber:    attempt,
		EnforcementLevel: schema.LevelModerate,
		IssuesFound: []schema.ValidationIssue{
			{Field: schema.FieldNCDescription, Message: "Description incomplete.", Severity: schema.SeverityWarning},
		},
		RequirementsMissing: []schema.Requirement{
			{Field: schema.FieldNCDescription, Message: "Description incomplete."},
		},
		ErrorsBlocking: []schema.EnforcementError{},
		ActionTaken:    action,
		Tags:           tags,
		CreatedAt:      at,
	}
}

func TestEnforcementLogRepo_NextAttempt(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewEnforcementLogRepo(tx, testutil.Logger(t))

	n, err := repo.NextAttempt(ctx, schema.FormNCA, "NCA-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = repo.Append(ctx, entry("NCA-1", 1, base, schema.ActionHintShown))
	require.NoError(t, err)
	_, err = repo.Append(ctx, entry("NCA-1", 2, base.Add(time.Minute), schema.ActionRequirementPromoted))
	require.NoError(t, err)

	n, err = repo.NextAttempt(ctx, schema.FormNCA, "NCA-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.NextAttempt(ctx, schema.FormNCA, "NCA-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "attempts are counted per user")

	n, err = repo.NextAttempt(ctx, schema.FormNCA, "", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEnforcementLogRepo_QueryByTagAndWindow(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewEnforcementLogRepo(tx, testutil.Logger(t))

	_, err := repo.Append(ctx, entry("NCA-1", 1, base.Add(-48*time.Hour), schema.ActionHintShown, schema.FieldNCDescription))
	require.NoError(t, err)
	_, err = repo.Append(ctx, entry("NCA-2", 1, base, schema.ActionSubmissionAllowed, schema.FieldNCDescription, "nc_description_min_length"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, entry("NCA-3", 2, base.Add(time.Hour), schema.ActionErrorEscalated, schema.FieldRootCauseAnalysis))
	require.NoError(t, err)

	got, err := repo.Query(ctx, policy.OutcomeFilter{RuleTag: schema.FieldNCDescription, Since: base.Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, string(schema.ActionSubmissionAllowed), got[0].ActionTaken)
	require.NotNil(t, got[0].AttemptNumber)
	assert.Equal(t, 1, *got[0].AttemptNumber)
	require.Len(t, got[0].RequirementsMissing, 1)
	assert.Equal(t, schema.FieldNCDescription, got[0].RequirementsMissing[0].Key())

	got, err = repo.Query(ctx, policy.OutcomeFilter{RuleTag: "nc_description_min_length"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.Query(ctx, policy.OutcomeFilter{Since: base.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEnforcementLogRepo_ManagerApproval(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewEnforcementLogRepo(tx, testutil.Logger(t))

	e := entry("NCA-9", 4, base, schema.ActionManagerApprovalRequired)
	e.EnforcementLevel = schema.LevelManagerApproval
	e.ManagerApprovalRequested = true
	id, err := repo.Append(ctx, e)
	require.NoError(t, err)

	err = repo.RecordManagerApproval(ctx, schema.ApprovalDecision{LogID: id, ManagerID: "mgr-7", Approved: true, Notes: "Reviewed with operator."})
	require.NoError(t, err)

	row, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row.ManagerApproved)
	assert.True(t, *row.ManagerApproved)
	require.NotNil(t, row.ManagerID)
	assert.Equal(t, "mgr-7", *row.ManagerID)
	assert.Equal(t, "Reviewed with operator.", row.ManagerNotes)
	assert.NotNil(t, row.ManagerDecidedAt)

	err = repo.RecordManagerApproval(ctx, schema.ApprovalDecision{LogID: "not-a-uuid", ManagerID: "mgr-7"})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	err = repo.RecordManagerApproval(ctx, schema.ApprovalDecision{LogID: "7f3c9a4e-1b2d-4c5e-8f90-123456789abc", ManagerID: "mgr-7"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestEnforcementLogRepo_UserAttempts(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewEnforcementLogRepo(tx, testutil.Logger(t))

	for i := 1; i <= 3; i++ {
		_, err := repo.Append(ctx, entry("NCA-1", i, base.Add(time.Duration(i)*time.Minute), schema.ActionHintShown))
		require.NoError(t, err)
	}
	other := entry("NCA-5", 1, base, schema.ActionHintShown)
	other.UserID = "user-2"
	_, err := repo.Append(ctx, other)
	require.NoError(t, err)

	attempts, err := repo.UserAttempts(ctx, "user-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 3, attempts[2].AttemptNumber)
	assert.True(t, attempts[0].ValidationResult.Valid)
	require.Len(t, attempts[0].Issues, 1)
	assert.Equal(t, schema.FieldNCDescription, attempts[0].Issues[0].Field)
}
