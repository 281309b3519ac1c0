// reservation/lifecycle.go
package reservation

import (
	"context"
	"log/slog"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/models"
	"makerhub/store"
)

// Update edits a pending or rejected request. A rejected request re-queues
// as pending and the review comment is cleared.
func (e *Engine) Update(ctx context.Context, id, requesterID string, in UpdateInput) (*models.Reservation, error) {
	var out *models.Reservation
	err := e.s.Atomic(ctx, func(tx store.Store) error {
		r, err := fetchLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.RequesterID != requesterID {
			return &fault.AuthzError{Reason: "only the requester may edit the reservation"}
		}
		if r.State != models.StatePending && r.State != models.StateRejected {
			return &fault.StateError{ID: id, State: string(r.State), Op: "update"}
		}
		if err := in.validate(r.Kind); err != nil {
			return err
		}
		if r.Kind == models.KindEquipment {
			lines, err := snapshotLines(ctx, tx, in.Lines)
			if err != nil {
				return err
			}
			r.Lines = lines
		}
		r.RequesterName = in.RequesterName
		r.Phone = in.Phone
		r.Email = in.Email
		r.Purpose = in.Purpose
		r.ProjectID = in.ProjectID
		r.StartAt = in.StartAt
		r.Deadline = in.Deadline
		r.State = models.StatePending
		r.Review = "" // 重新排队，清掉打回意见
		if err := tx.Reservations().Update(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.Emit(ctx, audit.Event{Kind: "reservation.update", Actor: requesterID, Subject: id})
	slog.Info("预约已修改", "id", id, "requester", requesterID)
	return out, nil
}

// Cancel withdraws a pending or rejected request and releases the claim it
// still holds.
func (e *Engine) Cancel(ctx context.Context, id, requesterID string) (*models.Reservation, error) {
	var out *models.Reservation
	err := e.s.Atomic(ctx, func(tx store.Store) error {
		r, err := fetchLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.RequesterID != requesterID {
			return &fault.AuthzError{Reason: "only the requester may cancel the reservation"}
		}
		if r.State != models.StatePending && r.State != models.StateRejected {
			return &fault.StateError{ID: id, State: string(r.State), Op: "cancel"}
		}
		ok, err := tx.Reservations().UpdateState(ctx, id, r.State, models.StateCancelled, store.StateSet{})
		if err != nil {
			return err
		}
		if !ok {
			return &fault.StaleError{ID: id, State: string(r.State)}
		}
		if r.Kind == models.KindWorkstation && r.WorkstationID != nil {
			if err := e.occ.ReleaseTx(ctx, tx, *r.WorkstationID); err != nil {
				return err
			}
		}
		r.State = models.StateCancelled
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.sink.Emit(ctx, audit.Event{Kind: "reservation.cancel", Actor: requesterID, Subject: id})
	slog.Info("预约已取消", "id", id, "requester", requesterID)
	return out, nil
}
