package memstore

import (
	"context"
	"sort"
	"time"

	"makerhub/models"
	"makerhub/store"
)

type reservations struct{ s *Store }

// clone detaches the stored record from the caller: pointers and the line
// slice must not alias map contents.
func cloneReservation(r models.Reservation) models.Reservation {
	out := r
	if r.WorkstationID != nil {
		v := *r.WorkstationID
		out.WorkstationID = &v
	}
	if r.ApprovedAt != nil {
		v := *r.ApprovedAt
		out.ApprovedAt = &v
	}
	if r.ReturnedAt != nil {
		v := *r.ReturnedAt
		out.ReturnedAt = &v
	}
	out.Lines = append([]models.ReservationLine(nil), r.Lines...)
	return out
}

func (rs *reservations) Create(ctx context.Context, r *models.Reservation) error {
	defer rs.s.lock()()
	if _, ok := rs.s.data.reservations[r.ID]; ok {
		return store.ErrDuplicateID
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	for i := range r.Lines {
		rs.s.data.lineSeq++
		r.Lines[i].ID = rs.s.data.lineSeq
		r.Lines[i].ReservationID = r.ID
	}
	rs.s.data.reservations[r.ID] = cloneReservation(*r)
	return nil
}

func (rs *reservations) Get(ctx context.Context, id string) (*models.Reservation, error) {
	defer rs.s.lock()()
	r, ok := rs.s.data.reservations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneReservation(r)
	return &out, nil
}

func (rs *reservations) GetForUpdate(ctx context.Context, id string) (*models.Reservation, error) {
	return rs.Get(ctx, id)
}

func (rs *reservations) List(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	defer rs.s.lock()()
	out := make([]models.Reservation, 0, len(rs.s.data.reservations))
	for _, r := range rs.s.data.reservations {
		if f.RequesterID != "" && r.RequesterID != f.RequesterID {
			continue
		}
		if f.Kind != "" && r.Kind != f.Kind {
			continue
		}
		if f.State != "" && r.State != f.State {
			continue
		}
		if f.WorkstationID != "" && (r.WorkstationID == nil || *r.WorkstationID != f.WorkstationID) {
			continue
		}
		out = append(out, cloneReservation(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (rs *reservations) Update(ctx context.Context, r *models.Reservation) error {
	defer rs.s.lock()()
	old, ok := rs.s.data.reservations[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = time.Now()
	for i := range r.Lines {
		if r.Lines[i].ID == 0 {
			rs.s.data.lineSeq++
			r.Lines[i].ID = rs.s.data.lineSeq
		}
		r.Lines[i].ReservationID = r.ID
	}
	rs.s.data.reservations[r.ID] = cloneReservation(*r)
	return nil
}

func (rs *reservations) UpdateState(ctx context.Context, id string, from, to models.State, set store.StateSet) (bool, error) {
	defer rs.s.lock()()
	r, ok := rs.s.data.reservations[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if r.State != from {
		return false, nil
	}
	r.State = to
	if set.Review != nil {
		r.Review = *set.Review
	}
	if set.ApprovedAt != nil {
		v := *set.ApprovedAt
		r.ApprovedAt = &v
	}
	if set.ReturnedAt != nil {
		v := *set.ReturnedAt
		r.ReturnedAt = &v
	}
	if set.ReturnedBy != nil {
		r.ReturnedBy = *set.ReturnedBy
	}
	r.UpdatedAt = time.Now()
	rs.s.data.reservations[id] = r
	return true, nil
}

func (rs *reservations) CountHolding(ctx context.Context, workstationID string) (int64, error) {
	defer rs.s.lock()()
	var n int64
	for _, r := range rs.s.data.reservations {
		if r.WorkstationID == nil || *r.WorkstationID != workstationID {
			continue
		}
		for _, s := range models.HoldingStates() {
			if r.State == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (rs *reservations) CountOpenLines(ctx context.Context, equipmentID string) (int64, error) {
	defer rs.s.lock()()
	var n int64
	for _, r := range rs.s.data.reservations {
		if r.State.Terminal() {
			continue
		}
		for _, ln := range r.Lines {
			if ln.EquipmentID == equipmentID {
				n++
			}
		}
	}
	return n, nil
}
