package memstore

import (
	"context"
	"sort"
	"time"

	"makerhub/models"
	"makerhub/store"
)

type rotation struct{ s *Store }

func (rt *rotation) ReplaceCategory(ctx context.Context, category string, entries []models.RotationEntry) error {
	defer rt.s.lock()()
	// 先查重再动数据：撞上本类目即将删除的旧条目不算冲突
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return store.ErrDuplicateID
		}
		seen[e.ID] = true
		if ex, ok := rt.s.data.rotation[e.ID]; ok && ex.Category != category {
			return store.ErrDuplicateID
		}
	}
	for id, e := range rt.s.data.rotation {
		if e.Category == category {
			delete(rt.s.data.rotation, id)
		}
	}
	now := time.Now()
	for _, e := range entries {
		e.CreatedAt, e.UpdatedAt = now, now
		rt.s.data.rotation[e.ID] = e
	}
	return nil
}

func (rt *rotation) List(ctx context.Context, category string) ([]models.RotationEntry, error) {
	defer rt.s.lock()()
	return rt.list(category), nil
}

func (rt *rotation) ListForUpdate(ctx context.Context, category string) ([]models.RotationEntry, error) {
	return rt.List(ctx, category)
}

func (rt *rotation) list(category string) []models.RotationEntry {
	out := make([]models.RotationEntry, 0, 8)
	for _, e := range rt.s.data.rotation {
		if e.Category == category {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (rt *rotation) ListAll(ctx context.Context) ([]models.RotationEntry, error) {
	defer rt.s.lock()()
	out := make([]models.RotationEntry, 0, len(rt.s.data.rotation))
	for _, e := range rt.s.data.rotation {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (rt *rotation) SetCurrent(ctx context.Context, entryID string, current bool) error {
	defer rt.s.lock()()
	e, ok := rt.s.data.rotation[entryID]
	if !ok {
		return store.ErrNotFound
	}
	e.Current = current
	e.UpdatedAt = time.Now()
	rt.s.data.rotation[entryID] = e
	return nil
}
