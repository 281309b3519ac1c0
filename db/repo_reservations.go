// db/repo_reservations.go
package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"makerhub/models"
	"makerhub/store"
)

type reservationRepo struct{ db *gorm.DB }

func (r *reservationRepo) Create(ctx context.Context, m *models.Reservation) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *reservationRepo) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var m models.Reservation
	if err := r.db.WithContext(ctx).Preload("Lines").First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetForUpdate 锁申请主行；清单行跟随主行的生命周期，不单独加锁
func (r *reservationRepo) GetForUpdate(ctx context.Context, id string) (*models.Reservation, error) {
	var m models.Reservation
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *reservationRepo) List(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	tx := r.db.WithContext(ctx).Model(&models.Reservation{}).Preload("Lines")
	if f.RequesterID != "" {
		tx = tx.Where("requester_id = ?", f.RequesterID)
	}
	if f.Kind != "" {
		tx = tx.Where("kind = ?", f.Kind)
	}
	if f.State != "" {
		tx = tx.Where("state = ?", f.State)
	}
	if f.WorkstationID != "" {
		tx = tx.Where("workstation_id = ?", f.WorkstationID)
	}
	var out []models.Reservation
	if err := tx.Order("created_at, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update 覆盖可编辑字段并整体重建清单行
func (r *reservationRepo) Update(ctx context.Context, m *models.Reservation) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	if err := r.db.WithContext(ctx).Where("reservation_id = ?", m.ID).Delete(&models.ReservationLine{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ?", m.ID).
		Select("requester_name", "phone", "email", "purpose", "project_id", "start_at", "deadline", "state", "review").
		Updates(m).Error; err != nil {
		return err
	}
	if len(m.Lines) > 0 {
		for i := range m.Lines {
			m.Lines[i].ID = 0
			m.Lines[i].ReservationID = m.ID
		}
		if err := r.db.WithContext(ctx).Create(&m.Lines).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateState 乐观守卫：状态从 from 变到 to 连同戳记一起落库，否则什么都不动
func (r *reservationRepo) UpdateState(ctx context.Context, id string, from, to models.State, set store.StateSet) (bool, error) {
	vals := map[string]any{"state": to}
	if set.Review != nil {
		vals["review"] = *set.Review
	}
	if set.ApprovedAt != nil {
		vals["approved_at"] = *set.ApprovedAt
	}
	if set.ReturnedAt != nil {
		vals["returned_at"] = *set.ReturnedAt
	}
	if set.ReturnedBy != nil {
		vals["returned_by"] = *set.ReturnedBy
	}
	res := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND state = ?", id, from).
		Updates(vals)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, store.ErrNotFound
	}
	return false, nil
}

func (r *reservationRepo) CountHolding(ctx context.Context, workstationID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("workstation_id = ? AND state IN ?", workstationID, models.HoldingStates()).
		Count(&n).Error
	return n, err
}

func (r *reservationRepo) CountOpenLines(ctx context.Context, equipmentID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ReservationLine{}).
		Joins("JOIN "+models.ReservationTable+" r ON r.id = "+models.ReservationLineTable+".reservation_id").
		Where(models.ReservationLineTable+".equipment_id = ? AND r.state IN ?", equipmentID, models.HoldingStates()).
		Count(&n).Error
	return n, err
}
