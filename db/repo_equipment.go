// db/repo_equipment.go
package db

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makerhub/models"
	"makerhub/store"
)

type equipmentRepo struct{ db *gorm.DB }

func (r *equipmentRepo) Create(ctx context.Context, eq *models.Equipment) error {
	return translate(r.db.WithContext(ctx).Create(eq).Error)
}

func (r *equipmentRepo) Get(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.db.WithContext(ctx).First(&eq, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &eq, nil
}

func (r *equipmentRepo) GetForUpdate(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&eq, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &eq, nil
}

func (r *equipmentRepo) List(ctx context.Context, f store.EquipmentFilter) ([]models.Equipment, error) {
	tx := r.db.WithContext(ctx).Model(&models.Equipment{})
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if q := strings.TrimSpace(f.Name); q != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var out []models.Equipment
	if err := tx.Order("category, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *equipmentRepo) Update(ctx context.Context, eq *models.Equipment) error {
	res := r.db.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ?", eq.ID).
		Select("category", "name", "total", "remaining", "description", "location", "cabinet", "shelf").
		Updates(eq)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AdjustRemaining 守卫式增减：0 <= remaining+delta <= total 不满足时不落任何改动
func (r *equipmentRepo) AdjustRemaining(ctx context.Context, id string, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ? AND remaining + ? >= 0 AND remaining + ? <= total", id, delta, delta).
		Update("remaining", gorm.Expr("remaining + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Equipment{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (r *equipmentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Equipment{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
