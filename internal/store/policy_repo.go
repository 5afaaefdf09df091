package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

type PolicyRepo interface {
	ReadActive(ctx context.Context) (*schema.PolicyVersion, error)
	ReadMostRecentVersion(ctx context.Context) (string, error)
	ReadVersion(ctx context.Context, version string) (*schema.PolicyVersion, error)
	Publish(ctx context.Context, v schema.PolicyVersion, createdBy string) (schema.PolicyVersion, error)
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	return &policyRepo{
		db:  db,
		log: baseLog.With("repo", "PolicyRepo"),
	}
}

func (r *policyRepo) ReadActive(ctx context.Context) (*schema.PolicyVersion, error) {
	var row PolicyVersionRow
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

func (r *policyRepo) ReadMostRecentVersion(ctx context.Context) (string, error) {
	var row PolicyVersionRow
	err := r.db.WithContext(ctx).
		Select("id", "version").
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return "", err
	}
	return row.Version, nil
}

func (r *policyRepo) ReadVersion(ctx context.Context, version string) (*schema.PolicyVersion, error) {
	var row PolicyVersionRow
	err := r.db.WithContext(ctx).Where("version = ?", version).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Publish inserts the new active row and then deactivates the others in one
// transaction.
func (r *policyRepo) Publish(ctx context.Context, v schema.PolicyVersion, createdBy string) (schema.PolicyVersion, error) {
	row := PolicyVersionRow{
		ID:            uuid.New(),
		Version:       v.Version,
		EffectiveDate: v.EffectiveDate.UTC(),
		Status:        StatusActive,
		Rules:         datatypes.NewJSONType(v.Rules),
		Changelog:     datatypes.NewJSONType(v.Changelog),
		CreatedBy:     createdBy,
		CreatedAt:     v.EffectiveDate.UTC(),
	}
	err := r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Create(&row).Error; err != nil {
			return err
		}
		return txx.Model(&PolicyVersionRow{}).
			Where("status = ? AND id <> ?", StatusActive, row.ID).
			Update("status", StatusInactive).Error
	})
	if err != nil {
		r.log.Error("publish failed", "version", v.Version, "created_by", createdBy, "error", err)
		return schema.PolicyVersion{}, err
	}
	return *row.toDomain(), nil
}
