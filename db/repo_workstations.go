// db/repo_workstations.go
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makerhub/models"
	"makerhub/store"
)

type workstationRepo struct{ db *gorm.DB }

func (r *workstationRepo) Create(ctx context.Context, w *models.Workstation) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

func (r *workstationRepo) Get(ctx context.Context, id string) (*models.Workstation, error) {
	var w models.Workstation
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *workstationRepo) GetForUpdate(ctx context.Context, id string) (*models.Workstation, error) {
	var w models.Workstation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *workstationRepo) List(ctx context.Context, f store.WorkstationFilter) ([]models.Workstation, error) {
	tx := r.db.WithContext(ctx).Model(&models.Workstation{})
	if f.Location != "" {
		tx = tx.Where("location = ?", f.Location)
	}
	if f.Occupied != nil {
		tx = tx.Where("occupied = ?", *f.Occupied)
	}
	var out []models.Workstation
	if err := tx.Order("location, number").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SetOccupied 行锁下先查再守卫更新：占用位翻转要么成立要么什么都不动
func (r *workstationRepo) SetOccupied(ctx context.Context, id string, from, to bool) (bool, error) {
	var w models.Workstation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "id = ?", id).Error; err != nil {
		return false, translate(err)
	}
	if w.Occupied != from {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Workstation{}).
		Where("id = ? AND occupied = ?", id, from).
		Update("occupied", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *workstationRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Workstation{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
