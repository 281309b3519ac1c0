package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"makerhub/models"
	"makerhub/store"
)

type equipment struct{ s *Store }

func (e *equipment) Create(ctx context.Context, eq *models.Equipment) error {
	defer e.s.lock()()
	if _, ok := e.s.data.equipment[eq.ID]; ok {
		return store.ErrDuplicateID
	}
	now := time.Now()
	eq.CreatedAt, eq.UpdatedAt = now, now
	e.s.data.equipment[eq.ID] = *eq
	return nil
}

func (e *equipment) Get(ctx context.Context, id string) (*models.Equipment, error) {
	defer e.s.lock()()
	eq, ok := e.s.data.equipment[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &eq, nil
}

func (e *equipment) GetForUpdate(ctx context.Context, id string) (*models.Equipment, error) {
	return e.Get(ctx, id)
}

func (e *equipment) List(ctx context.Context, f store.EquipmentFilter) ([]models.Equipment, error) {
	defer e.s.lock()()
	out := make([]models.Equipment, 0, len(e.s.data.equipment))
	for _, eq := range e.s.data.equipment {
		if f.Category != "" && eq.Category != f.Category {
			continue
		}
		if f.Name != "" && !strings.Contains(strings.ToLower(eq.Name), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, eq)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (e *equipment) Update(ctx context.Context, eq *models.Equipment) error {
	defer e.s.lock()()
	old, ok := e.s.data.equipment[eq.ID]
	if !ok {
		return store.ErrNotFound
	}
	eq.CreatedAt = old.CreatedAt
	eq.UpdatedAt = time.Now()
	e.s.data.equipment[eq.ID] = *eq
	return nil
}

func (e *equipment) AdjustRemaining(ctx context.Context, id string, delta int) (bool, error) {
	defer e.s.lock()()
	eq, ok := e.s.data.equipment[id]
	if !ok {
		return false, store.ErrNotFound
	}
	next := eq.Remaining + delta
	if next < 0 || next > eq.Total {
		return false, nil
	}
	eq.Remaining = next
	eq.UpdatedAt = time.Now()
	e.s.data.equipment[id] = eq
	return true, nil
}

func (e *equipment) Delete(ctx context.Context, id string) error {
	defer e.s.lock()()
	if _, ok := e.s.data.equipment[id]; !ok {
		return store.ErrNotFound
	}
	delete(e.s.data.equipment, id)
	return nil
}
