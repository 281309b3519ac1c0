// reservation/review.go
package reservation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/models"
	"makerhub/store"
)

// Review decides a pending request. The pending check runs against the
// locked row, so a decision that lost the race surfaces as StaleError and
// nothing else happens.
func (e *Engine) Review(ctx context.Context, id, reviewerID string, decision Decision, comment string) (*models.Reservation, error) {
	switch decision {
	case DecisionApprove, DecisionReject:
	default:
		return nil, &fault.ValidationError{Field: "decision", Reason: "must be approve or reject"}
	}
	if decision == DecisionReject && strings.TrimSpace(comment) == "" {
		return nil, &fault.ValidationError{Field: "comment", Reason: "required when rejecting"}
	}

	var out *models.Reservation
	err := e.s.Atomic(ctx, func(tx store.Store) error {
		r, err := fetchLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.State != models.StatePending {
			return &fault.StaleError{ID: id, State: string(r.State)}
		}
		if decision == DecisionReject {
			ok, err := tx.Reservations().UpdateState(ctx, id, models.StatePending, models.StateRejected,
				store.StateSet{Review: &comment})
			if err != nil {
				return err
			}
			if !ok {
				return &fault.StaleError{ID: id, State: string(r.State)}
			}
			r.State = models.StateRejected
			r.Review = comment
			out = r
			return nil
		}
		// 池化类通过前先扣清单；不足则整单失败，状态保持 pending
		if r.Kind == models.KindEquipment {
			if err := e.qty.DecrementBatchTx(ctx, tx, r.Lines); err != nil {
				return err
			}
		}
		now := time.Now()
		ok, err := tx.Reservations().UpdateState(ctx, id, models.StatePending, models.StateApproved,
			store.StateSet{Review: &comment, ApprovedAt: &now})
		if err != nil {
			return err
		}
		if !ok {
			return &fault.StaleError{ID: id, State: string(r.State)}
		}
		r.State = models.StateApproved
		r.Review = comment
		r.ApprovedAt = &now
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.Emit(ctx, audit.Event{
		Kind:    "reservation.review",
		Actor:   reviewerID,
		Subject: id,
		Detail:  map[string]string{"decision": string(decision)},
	})
	slog.Info("预约已审核", "id", id, "decision", decision, "reviewer", reviewerID)
	return out, nil
}

// Return closes an approved request: the workstation claim is released or
// the manifest restored. A second return is a StateError and never restores
// the ledgers twice.
func (e *Engine) Return(ctx context.Context, id string, actor Actor) (*models.Reservation, error) {
	var out *models.Reservation
	err := e.s.Atomic(ctx, func(tx store.Store) error {
		r, err := fetchLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.Staff && r.RequesterID != actor.ID {
			return &fault.AuthzError{Reason: "only the requester or staff may return the reservation"}
		}
		if r.State != models.StateApproved {
			return &fault.StateError{ID: id, State: string(r.State), Op: "return"}
		}
		switch r.Kind {
		case models.KindWorkstation:
			if r.WorkstationID != nil {
				if err := e.occ.ReleaseTx(ctx, tx, *r.WorkstationID); err != nil {
					return err
				}
			}
		case models.KindEquipment:
			if err := e.qty.IncrementBatchTx(ctx, tx, r.Lines); err != nil {
				return err
			}
		}
		now := time.Now()
		ok, err := tx.Reservations().UpdateState(ctx, id, models.StateApproved, models.StateReturned,
			store.StateSet{ReturnedAt: &now, ReturnedBy: &actor.ID})
		if err != nil {
			return err
		}
		if !ok {
			return &fault.StaleError{ID: id, State: string(r.State)}
		}
		r.State = models.StateReturned
		r.ReturnedAt = &now
		r.ReturnedBy = actor.ID
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.Emit(ctx, audit.Event{Kind: "reservation.return", Actor: actor.ID, Subject: id})
	slog.Info("资源已归还", "id", id, "actor", actor.ID)
	return out, nil
}
