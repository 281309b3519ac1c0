package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"makerhub/store"
)

// Repo implements store.Store over Postgres. Atomic on an already
// transactional Repo joins the open transaction instead of nesting.
type Repo struct {
	DB   *gorm.DB
	inTx bool
}

var _ store.Store = (*Repo)(nil)

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

func (r *Repo) Workstations() store.WorkstationStore { return &workstationRepo{r.DB} }
func (r *Repo) Equipment() store.EquipmentStore      { return &equipmentRepo{r.DB} }
func (r *Repo) Reservations() store.ReservationStore { return &reservationRepo{r.DB} }
func (r *Repo) Rotation() store.RotationStore        { return &rotationRepo{r.DB} }

func (r *Repo) Atomic(ctx context.Context, fn func(store.Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx, inTx: true})
	})
}

// 两个后端对外只暴露 store 包的哨兵错误
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicateID
	default:
		return err
	}
}
