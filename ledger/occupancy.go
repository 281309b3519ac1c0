// Package ledger implements the two stock ledgers. Occupancy is the only
// writer of Workstation.Occupied, Quantity the only writer of
// Equipment.Remaining. The *Tx variants compose into a caller's atomic step.
package ledger

import (
	"context"
	"errors"

	"makerhub/fault"
	"makerhub/store"
)

// Occupancy 独占工位的占用台账
type Occupancy struct{ s store.Store }

func NewOccupancy(s store.Store) *Occupancy { return &Occupancy{s: s} }

// Acquire claims the unit. ConflictError when it is already occupied.
func (l *Occupancy) Acquire(ctx context.Context, unitID string) error {
	return l.s.Atomic(ctx, func(tx store.Store) error { return l.AcquireTx(ctx, tx, unitID) })
}

// AcquireTx claims the unit inside the caller's atomic step, so the claim
// and the record that justifies it commit together.
func (l *Occupancy) AcquireTx(ctx context.Context, tx store.Store, unitID string) error {
	ok, err := tx.Workstations().SetOccupied(ctx, unitID, false, true)
	if errors.Is(err, store.ErrNotFound) {
		return &fault.NotFoundError{Kind: "workstation", ID: unitID}
	}
	if err != nil {
		return err
	}
	if !ok {
		return &fault.ConflictError{Resource: "workstation", ID: unitID}
	}
	return nil
}

// Release frees the unit. Releasing a unit that is already free is a no-op.
func (l *Occupancy) Release(ctx context.Context, unitID string) error {
	return l.s.Atomic(ctx, func(tx store.Store) error { return l.ReleaseTx(ctx, tx, unitID) })
}

func (l *Occupancy) ReleaseTx(ctx context.Context, tx store.Store, unitID string) error {
	_, err := tx.Workstations().SetOccupied(ctx, unitID, true, false)
	if errors.Is(err, store.ErrNotFound) {
		return &fault.NotFoundError{Kind: "workstation", ID: unitID}
	}
	return err
}
