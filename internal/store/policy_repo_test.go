package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store/testutil"
)

func version(v string, at time.Time, rules ...schema.PolicyRule) schema.PolicyVersion {
	if rules == nil {
		rules = []schema.PolicyRule{}
	}
	return schema.PolicyVersion{
		Version:       v,
		EffectiveDate: at,
		Rules:         rules,
		Changelog:     []string{"Created version " + v},
	}
}

func TestPolicyRepo_EmptyTable(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewPolicyRepo(tx, testutil.Logger(t))

	active, err := repo.ReadActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	latest, err := repo.ReadMostRecentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", latest)

	_, err = repo.ReadVersion(ctx, "1.0.0")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestPolicyRepo_PublishKeepsOneActive(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewPolicyRepo(tx, testutil.Logger(t))

	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	rule := schema.PolicyRule{
		ID:         "nc_description_min_length",
		Field:      schema.FieldNCDescription,
		RuleType:   schema.RuleMinLength,
		Parameters: map[string]any{"minLength": float64(120)},
		Enabled:    true,
	}

	_, err := repo.Publish(ctx, version("1.0.0", t0), "admin-1")
	require.NoError(t, err)
	published, err := repo.Publish(ctx, version("1.0.1", t0.Add(time.Hour), rule), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", published.Version)

	active, err := repo.ReadActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "1.0.1", active.Version)
	require.Len(t, active.Rules, 1)
	n, ok := active.Rules[0].IntParam("minLength")
	assert.True(t, ok)
	assert.Equal(t, 120, n)

	var activeCount int64
	require.NoError(t, tx.Model(&store.PolicyVersionRow{}).Where("status = ?", store.StatusActive).Count(&activeCount).Error)
	assert.Equal(t, int64(1), activeCount)

	latest, err := repo.ReadMostRecentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", latest)

	old, err := repo.ReadVersion(ctx, "1.0.0")
	require.NoError(t, err)
	assert.Empty(t, old.Rules)
	assert.Equal(t, []string{"Created version 1.0.0"}, old.Changelog)
}

func TestPolicyRepo_DuplicateVersionRejected(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := store.NewPolicyRepo(tx, testutil.Logger(t))

	t0 := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	_, err := repo.Publish(ctx, version("1.0.0", t0), "admin-1")
	require.NoError(t, err)
	_, err = repo.Publish(ctx, version("1.0.0", t0.Add(time.Minute)), "admin-2")
	require.Error(t, err)

	active, err := repo.ReadActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "1.0.0", active.Version)
}
