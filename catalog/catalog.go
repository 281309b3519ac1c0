// Package catalog owns the canonical resource sets: provisioning, lookup,
// guarded removal, and the admin overview. Occupancy flags and stock counts
// are never mutated here; that is ledger territory.
package catalog

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

type Service struct {
	s    store.Store
	sink audit.Sink
}

func NewService(s store.Store, sink audit.Sink) *Service {
	return &Service{s: s, sink: sink}
}

// ProvisionWorkstations creates the numbered units at a location, skipping
// numbers that already exist there. Returns the rows actually created.
func (s *Service) ProvisionWorkstations(ctx context.Context, actorID, location string, numbers []int) ([]models.Workstation, error) {
	if strings.TrimSpace(location) == "" {
		return nil, &fault.ValidationError{Field: "location", Reason: "required"}
	}
	if len(numbers) == 0 {
		return nil, &fault.ValidationError{Field: "numbers", Reason: "at least one workstation number is required"}
	}
	for _, n := range numbers {
		if n < 1 {
			return nil, &fault.ValidationError{Field: "numbers", Reason: "numbers must be positive"}
		}
	}

	var created []models.Workstation
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		created = nil
		err = s.s.Atomic(ctx, func(tx store.Store) error {
			existing, err := tx.Workstations().List(ctx, store.WorkstationFilter{Location: location})
			if err != nil {
				return err
			}
			taken := make(map[int]bool, len(existing))
			for _, w := range existing {
				taken[w.Number] = true
			}
			seen := make(map[string]bool, len(numbers))
			for _, n := range numbers {
				if taken[n] {
					continue
				}
				taken[n] = true
				id := ids.NewWorkstationID()
				for seen[id] {
					id = ids.NewWorkstationID()
				}
				seen[id] = true
				w := models.Workstation{ID: id, Location: location, Number: n}
				if err := tx.Workstations().Create(ctx, &w); err != nil {
					return err
				}
				created = append(created, w)
			}
			return nil
		})
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.sink.Emit(ctx, audit.Event{
		Kind:    "catalog.workstations.provision",
		Actor:   actorID,
		Subject: location,
		Detail:  map[string]string{"created": strconv.Itoa(len(created))},
	})
	slog.Info("工位已录入", "location", location, "created", len(created))
	return created, nil
}

func (s *Service) GetWorkstation(ctx context.Context, id string) (*models.Workstation, error) {
	w, err := s.s.Workstations().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &fault.NotFoundError{Kind: "workstation", ID: id}
	}
	return w, err
}

func (s *Service) ListWorkstations(ctx context.Context, f store.WorkstationFilter) ([]models.Workstation, error) {
	return s.s.Workstations().List(ctx, f)
}

// RemoveWorkstation deletes a unit that is not occupied and that no open
// reservation references.
func (s *Service) RemoveWorkstation(ctx context.Context, actorID, id string) error {
	err := s.s.Atomic(ctx, func(tx store.Store) error {
		w, err := tx.Workstations().GetForUpdate(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return &fault.NotFoundError{Kind: "workstation", ID: id}
		}
		if err != nil {
			return err
		}
		if w.Occupied {
			return &fault.ConflictError{Resource: "workstation", ID: id}
		}
		n, err := tx.Reservations().CountHolding(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &fault.ConflictError{Resource: "workstation", ID: id, Reason: "still referenced by open reservations"}
		}
		return tx.Workstations().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.sink.Emit(ctx, audit.Event{Kind: "catalog.workstation.remove", Actor: actorID, Subject: id})
	slog.Info("工位已删除", "id", id)
	return nil
}
