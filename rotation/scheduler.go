// Package rotation keeps the per-category duty ring: an ordered list of
// members with a single current pointer, advanced round-robin.
package rotation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/ids"
	"makerhub/models"
	"makerhub/store"
)

type Member struct {
	ID   string
	Name string
}

type Scheduler struct {
	s    store.Store
	sink audit.Sink
}

func NewScheduler(s store.Store, sink audit.Sink) *Scheduler {
	return &Scheduler{s: s, sink: sink}
}

// Seed wholesale-replaces the category's ring with the given ordered members.
// The first entry becomes current; an empty member list empties the category.
func (sc *Scheduler) Seed(ctx context.Context, actorID, category string, members []Member) ([]models.RotationEntry, error) {
	if strings.TrimSpace(category) == "" {
		return nil, &fault.ValidationError{Field: "category", Reason: "required"}
	}
	for _, m := range members {
		if m.ID == "" || strings.TrimSpace(m.Name) == "" {
			return nil, &fault.ValidationError{Field: "members", Reason: "member id and name are required"}
		}
	}

	var entries []models.RotationEntry
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		entries = buildEntries(category, members)
		err = sc.s.Atomic(ctx, func(tx store.Store) error {
			return tx.Rotation().ReplaceCategory(ctx, category, entries)
		})
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	sc.sink.Emit(ctx, audit.Event{
		Kind:    "rotation.seed",
		Actor:   actorID,
		Subject: category,
		Detail:  map[string]string{"size": strconv.Itoa(len(entries))},
	})
	slog.Info("轮值环已重建", "category", category, "size", len(entries))
	return entries, nil
}

func buildEntries(category string, members []Member) []models.RotationEntry {
	entries := make([]models.RotationEntry, 0, len(members))
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		id := ids.NewRotationEntryID()
		for seen[id] {
			id = ids.NewRotationEntryID()
		}
		seen[id] = true
		entries = append(entries, models.RotationEntry{
			ID:         id,
			Category:   category,
			MemberID:   m.ID,
			MemberName: m.Name,
			Position:   i,
			Current:    i == 0,
		})
	}
	return entries
}

// Current returns the holder of the category pointer, or nil for an empty
// category (or one whose pointer was lost; Advance repairs that).
func (sc *Scheduler) Current(ctx context.Context, category string) (*models.RotationEntry, error) {
	entries, err := sc.s.Rotation().List(ctx, category)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Current {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Advance moves the pointer to (position+1) mod len and returns the new
// holder. With no current entry the first becomes current. An empty category
// is a no-op returning nil.
func (sc *Scheduler) Advance(ctx context.Context, actorID, category string) (*models.RotationEntry, error) {
	var next *models.RotationEntry
	err := sc.s.Atomic(ctx, func(tx store.Store) error {
		entries, err := tx.Rotation().ListForUpdate(ctx, category)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		cur := currentIndex(entries)
		if cur < 0 {
			if err := tx.Rotation().SetCurrent(ctx, entries[0].ID, true); err != nil {
				return err
			}
			en := entries[0]
			en.Current = true
			next = &en
			return nil
		}
		nxt := (cur + 1) % len(entries)
		if nxt != cur {
			// 单类目只允许一个 current，先清后设
			if err := tx.Rotation().SetCurrent(ctx, entries[cur].ID, false); err != nil {
				return err
			}
			if err := tx.Rotation().SetCurrent(ctx, entries[nxt].ID, true); err != nil {
				return err
			}
		}
		en := entries[nxt]
		en.Current = true
		next = &en
		return nil
	})
	if err != nil {
		return nil, err
	}
	if next != nil {
		sc.sink.Emit(ctx, audit.Event{Kind: "rotation.advance", Actor: actorID, Subject: category,
			Detail: map[string]string{"member": next.MemberID}})
		slog.Info("轮值指针前移", "category", category, "member", next.MemberID)
	}
	return next, nil
}

// AssignNext hands out the current holder and advances the pointer in one
// atomic step, so two concurrent assigns observe different holders. Returns
// nil on an empty category.
func (sc *Scheduler) AssignNext(ctx context.Context, actorID, category string) (*models.RotationEntry, error) {
	var assigned *models.RotationEntry
	err := sc.s.Atomic(ctx, func(tx store.Store) error {
		entries, err := tx.Rotation().ListForUpdate(ctx, category)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		cur := currentIndex(entries)
		idx := cur
		if idx < 0 {
			idx = 0 // 指针丢失时从头开始
		}
		en := entries[idx]
		assigned = &en
		nxt := (idx + 1) % len(entries)
		switch {
		case nxt == idx && cur < 0:
			if err := tx.Rotation().SetCurrent(ctx, entries[idx].ID, true); err != nil {
				return err
			}
		case nxt != idx:
			if cur >= 0 {
				if err := tx.Rotation().SetCurrent(ctx, entries[idx].ID, false); err != nil {
					return err
				}
			}
			if err := tx.Rotation().SetCurrent(ctx, entries[nxt].ID, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if assigned != nil {
		sc.sink.Emit(ctx, audit.Event{Kind: "rotation.assign", Actor: actorID, Subject: category,
			Detail: map[string]string{"member": assigned.MemberID}})
		slog.Info("轮值任务已指派", "category", category, "member", assigned.MemberID)
	}
	return assigned, nil
}

// Snapshot returns every ring grouped by category, ordered by position.
func (sc *Scheduler) Snapshot(ctx context.Context) (map[string][]models.RotationEntry, error) {
	all, err := sc.s.Rotation().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.RotationEntry)
	for _, e := range all {
		out[e.Category] = append(out[e.Category], e)
	}
	return out, nil
}

func currentIndex(entries []models.RotationEntry) int {
	for i := range entries {
		if entries[i].Current {
			return i
		}
	}
	return -1
}
