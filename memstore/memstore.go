// Package memstore is the in-memory store.Store used by the test suite and
// the STORE_DRIVER=memory dev mode. A single mutex serializes every atomic
// step, so callers keep the same discipline the Postgres store relies on:
// all checks before any mutation.
package memstore

import (
	"context"
	"sync"

	"makerhub/models"
	"makerhub/store"
)

var _ store.Store = (*Store)(nil)

type data struct {
	workstations map[string]models.Workstation
	equipment    map[string]models.Equipment
	reservations map[string]models.Reservation
	rotation     map[string]models.RotationEntry
	lineSeq      uint
}

type Store struct {
	mu   sync.Mutex
	data *data
	inTx bool
}

func New() *Store {
	return &Store{data: &data{
		workstations: map[string]models.Workstation{},
		equipment:    map[string]models.Equipment{},
		reservations: map[string]models.Reservation{},
		rotation:     map[string]models.RotationEntry{},
	}}
}

func (s *Store) Workstations() store.WorkstationStore { return &workstations{s} }
func (s *Store) Equipment() store.EquipmentStore      { return &equipment{s} }
func (s *Store) Reservations() store.ReservationStore { return &reservations{s} }
func (s *Store) Rotation() store.RotationStore        { return &rotation{s} }

func (s *Store) Atomic(ctx context.Context, fn func(store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Store{data: s.data, inTx: true})
}

// lock is a no-op on the transaction view, which runs under the outer mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
