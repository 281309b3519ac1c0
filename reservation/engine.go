// Package reservation drives the request lifecycle:
//
//	submit:                   -> pending    (workstation kind claims the unit here)
//	update: pending|rejected  -> pending    (requester edits; rejected re-queues)
//	cancel: pending|rejected  -> cancelled  (requester; releases the claim)
//	review: pending           -> approved   (approve draws down the manifest)
//	                          -> rejected   (needs a review comment)
//	return: approved          -> returned   (releases claim / restores manifest)
//
// returned and cancelled are terminal. Nothing outside this package writes
// Reservation.State.
package reservation

import (
	"context"
	"errors"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/ledger"
	"makerhub/models"
	"makerhub/store"
)

type Engine struct {
	s    store.Store
	occ  *ledger.Occupancy
	qty  *ledger.Quantity
	sink audit.Sink
}

func NewEngine(s store.Store, occ *ledger.Occupancy, qty *ledger.Quantity, sink audit.Sink) *Engine {
	return &Engine{s: s, occ: occ, qty: qty, sink: sink}
}

// Actor identifies the caller; Staff widens what is allowed.
type Actor struct {
	ID    string
	Staff bool
}

func (e *Engine) Get(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := e.s.Reservations().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &fault.NotFoundError{Kind: "reservation", ID: id}
	}
	return r, err
}

func (e *Engine) List(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	return e.s.Reservations().List(ctx, f)
}

func fetchLocked(ctx context.Context, tx store.Store, id string) (*models.Reservation, error) {
	r, err := tx.Reservations().GetForUpdate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &fault.NotFoundError{Kind: "reservation", ID: id}
	}
	return r, err
}
