package memstore

import (
	"context"
	"sort"
	"time"

	"makerhub/models"
	"makerhub/store"
)

type workstations struct{ s *Store }

func (w *workstations) Create(ctx context.Context, ws *models.Workstation) error {
	defer w.s.lock()()
	if _, ok := w.s.data.workstations[ws.ID]; ok {
		return store.ErrDuplicateID
	}
	for _, existing := range w.s.data.workstations {
		if existing.Location == ws.Location && existing.Number == ws.Number {
			return store.ErrDuplicateID
		}
	}
	now := time.Now()
	ws.CreatedAt, ws.UpdatedAt = now, now
	w.s.data.workstations[ws.ID] = *ws
	return nil
}

func (w *workstations) Get(ctx context.Context, id string) (*models.Workstation, error) {
	defer w.s.lock()()
	ws, ok := w.s.data.workstations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ws, nil
}

func (w *workstations) GetForUpdate(ctx context.Context, id string) (*models.Workstation, error) {
	return w.Get(ctx, id)
}

func (w *workstations) List(ctx context.Context, f store.WorkstationFilter) ([]models.Workstation, error) {
	defer w.s.lock()()
	out := make([]models.Workstation, 0, len(w.s.data.workstations))
	for _, ws := range w.s.data.workstations {
		if f.Location != "" && ws.Location != f.Location {
			continue
		}
		if f.Occupied != nil && ws.Occupied != *f.Occupied {
			continue
		}
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

func (w *workstations) SetOccupied(ctx context.Context, id string, from, to bool) (bool, error) {
	defer w.s.lock()()
	ws, ok := w.s.data.workstations[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if ws.Occupied != from {
		return false, nil
	}
	ws.Occupied = to
	ws.UpdatedAt = time.Now()
	w.s.data.workstations[id] = ws
	return true, nil
}

func (w *workstations) Delete(ctx context.Context, id string) error {
	defer w.s.lock()()
	if _, ok := w.s.data.workstations[id]; !ok {
		return store.ErrNotFound
	}
	delete(w.s.data.workstations, id)
	return nil
}
