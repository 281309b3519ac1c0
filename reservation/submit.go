// reservation/submit.go
package reservation

import (
	"context"
	"errors"
	"log/slog"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/ids"
	"makerhub/models"
	"makerhub/store"
)

// Submit validates the input and creates the request in pending. Exclusive
// workstation requests claim their unit here, in the same atomic step as the
// record creation.
func (e *Engine) Submit(ctx context.Context, requesterID string, in Input) (*models.Reservation, error) {
	if requesterID == "" {
		return nil, &fault.ValidationError{Field: "requesterId", Reason: "required"}
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *models.Reservation
	var err error
	// 撞号时重试整个原子步骤：Postgres 的重复键错误会中止事务
	for attempt := 0; attempt < 3; attempt++ {
		out, err = e.submitOnce(ctx, requesterID, in)
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	e.sink.Emit(ctx, audit.Event{
		Kind:    "reservation.submit",
		Actor:   requesterID,
		Subject: out.ID,
		Detail:  map[string]string{"kind": string(out.Kind)},
	})
	slog.Info("预约已提交", "id", out.ID, "kind", out.Kind, "requester", requesterID)
	return out, nil
}

func (e *Engine) submitOnce(ctx context.Context, requesterID string, in Input) (*models.Reservation, error) {
	r := &models.Reservation{
		ID:            ids.NewReservationID(),
		Kind:          in.Kind,
		RequesterID:   requesterID,
		RequesterName: in.RequesterName,
		Phone:         in.Phone,
		Email:         in.Email,
		Purpose:       in.Purpose,
		ProjectID:     in.ProjectID,
		StartAt:       in.StartAt,
		Deadline:      in.Deadline,
		State:         models.StatePending,
	}
	err := e.s.Atomic(ctx, func(tx store.Store) error {
		// 先确认号段可用，再做任何改动
		if _, err := tx.Reservations().Get(ctx, r.ID); err == nil {
			return store.ErrDuplicateID
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		switch in.Kind {
		case models.KindEquipment:
			lines, err := snapshotLines(ctx, tx, in.Lines)
			if err != nil {
				return err
			}
			r.Lines = lines
		case models.KindWorkstation:
			if err := e.occ.AcquireTx(ctx, tx, in.WorkstationID); err != nil {
				return err
			}
			id := in.WorkstationID
			r.WorkstationID = &id
		}
		return tx.Reservations().Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
