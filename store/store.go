// Package store declares the persistence contract shared by the Postgres
// implementation (db) and the in-memory one (memstore). Business code is
// written against these interfaces only.
package store

import (
	"context"
	"errors"
	"time"

	"makerhub/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned by Create when a primary key collides. Callers
// regenerate the ID and retry.
var ErrDuplicateID = errors.New("duplicate id")

type WorkstationFilter struct {
	Location string
	Occupied *bool
}

type EquipmentFilter struct {
	Category string
	Name     string // 名称子串过滤
}

type ReservationFilter struct {
	RequesterID   string
	Kind          models.Kind
	State         models.State
	WorkstationID string
}

// StateSet carries the columns stamped together with a state transition.
// Nil fields are left untouched.
type StateSet struct {
	Review     *string
	ApprovedAt *time.Time
	ReturnedAt *time.Time
	ReturnedBy *string
}

type WorkstationStore interface {
	Create(ctx context.Context, w *models.Workstation) error
	Get(ctx context.Context, id string) (*models.Workstation, error)
	// GetForUpdate row-locks the record when called inside Atomic.
	GetForUpdate(ctx context.Context, id string) (*models.Workstation, error)
	List(ctx context.Context, f WorkstationFilter) ([]models.Workstation, error)
	// SetOccupied flips occupied from -> to. false means the record was not
	// in the from state; ErrNotFound means there is no such unit.
	SetOccupied(ctx context.Context, id string, from, to bool) (bool, error)
	Delete(ctx context.Context, id string) error
}

type EquipmentStore interface {
	Create(ctx context.Context, e *models.Equipment) error
	Get(ctx context.Context, id string) (*models.Equipment, error)
	// GetForUpdate row-locks the record when called inside Atomic.
	GetForUpdate(ctx context.Context, id string) (*models.Equipment, error)
	List(ctx context.Context, f EquipmentFilter) ([]models.Equipment, error)
	Update(ctx context.Context, e *models.Equipment) error
	// AdjustRemaining adds delta to remaining, guarded by
	// 0 <= remaining+delta <= total. false means the guard did not hold.
	AdjustRemaining(ctx context.Context, id string, delta int) (bool, error)
	Delete(ctx context.Context, id string) error
}

type ReservationStore interface {
	Create(ctx context.Context, r *models.Reservation) error
	// Get returns the reservation with its manifest lines.
	Get(ctx context.Context, id string) (*models.Reservation, error)
	// GetForUpdate row-locks the record when called inside Atomic.
	GetForUpdate(ctx context.Context, id string) (*models.Reservation, error)
	// List returns reservations ordered by creation, lines included.
	List(ctx context.Context, f ReservationFilter) ([]models.Reservation, error)
	// Update persists the editable fields and replaces the manifest lines.
	Update(ctx context.Context, r *models.Reservation) error
	// UpdateState moves state from -> to together with set, or not at all.
	// false means the record was no longer in from.
	UpdateState(ctx context.Context, id string, from, to models.State, set StateSet) (bool, error)
	// CountHolding counts reservations holding the workstation's claim.
	CountHolding(ctx context.Context, workstationID string) (int64, error)
	// CountOpenLines counts manifest lines of non-terminal reservations
	// referencing the equipment.
	CountOpenLines(ctx context.Context, equipmentID string) (int64, error)
}

type RotationStore interface {
	// ReplaceCategory wholesale-replaces the category's entries.
	ReplaceCategory(ctx context.Context, category string, entries []models.RotationEntry) error
	// List returns the category's entries ordered by position.
	List(ctx context.Context, category string) ([]models.RotationEntry, error)
	// ListForUpdate row-locks the category's entries when called inside Atomic.
	ListForUpdate(ctx context.Context, category string) ([]models.RotationEntry, error)
	ListAll(ctx context.Context) ([]models.RotationEntry, error)
	SetCurrent(ctx context.Context, entryID string, current bool) error
}

// Store aggregates the per-entity stores. Atomic runs fn against a
// transaction-scoped Store; calling Atomic on an already transactional Store
// joins the open transaction instead of nesting a new one.
type Store interface {
	Workstations() WorkstationStore
	Equipment() EquipmentStore
	Reservations() ReservationStore
	Rotation() RotationStore
	Atomic(ctx context.Context, fn func(Store) error) error
}
