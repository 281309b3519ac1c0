// db/repo_rotation.go
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makerhub/models"
	"makerhub/store"
)

type rotationRepo struct{ db *gorm.DB }

func (r *rotationRepo) ReplaceCategory(ctx context.Context, category string, entries []models.RotationEntry) error {
	if err := r.db.WithContext(ctx).Where("category = ?", category).Delete(&models.RotationEntry{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&entries).Error)
}

func (r *rotationRepo) List(ctx context.Context, category string) ([]models.RotationEntry, error) {
	var out []models.RotationEntry
	err := r.db.WithContext(ctx).Where("category = ?", category).Order("position").Find(&out).Error
	return out, err
}

func (r *rotationRepo) ListForUpdate(ctx context.Context, category string) ([]models.RotationEntry, error) {
	var out []models.RotationEntry
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category = ?", category).Order("position").Find(&out).Error
	return out, err
}

func (r *rotationRepo) ListAll(ctx context.Context) ([]models.RotationEntry, error) {
	var out []models.RotationEntry
	err := r.db.WithContext(ctx).Order("category, position").Find(&out).Error
	return out, err
}

func (r *rotationRepo) SetCurrent(ctx context.Context, entryID string, current bool) error {
	res := r.db.WithContext(ctx).Model(&models.RotationEntry{}).
		Where("id = ?", entryID).
		Update("current", current)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
