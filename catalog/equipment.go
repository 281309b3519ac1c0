// catalog/equipment.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/ids"
	"makerhub/models"
	"makerhub/store"
)

type EquipmentInput struct {
	Category    string
	Name        string
	Total       int
	Description string
	Location    string
	Cabinet     string
	Shelf       int
}

func (in EquipmentInput) validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return &fault.ValidationError{Field: "category", Reason: "required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &fault.ValidationError{Field: "name", Reason: "required"}
	}
	if in.Total < 1 {
		return &fault.ValidationError{Field: "total", Reason: "must be positive"}
	}
	return nil
}

// AddEquipment registers a pooled item with its full stock on hand.
func (s *Service) AddEquipment(ctx context.Context, actorID string, in EquipmentInput) (*models.Equipment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	eq := &models.Equipment{
		Category:    in.Category,
		Name:        in.Name,
		Total:       in.Total,
		Remaining:   in.Total,
		Description: in.Description,
		Location:    in.Location,
		Cabinet:     in.Cabinet,
		Shelf:       in.Shelf,
	}
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		eq.ID = ids.NewEquipmentID()
		err = s.s.Equipment().Create(ctx, eq)
		if !errors.Is(err, store.ErrDuplicateID) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.sink.Emit(ctx, audit.Event{Kind: "catalog.equipment.add", Actor: actorID, Subject: eq.ID,
		Detail: map[string]string{"name": eq.Name}})
	slog.Info("器材已录入", "id", eq.ID, "name", eq.Name, "total", eq.Total)
	return eq, nil
}

// UpdateEquipment edits metadata and restocks. A total change preserves the
// committed count: remaining moves by the same delta, and total can never
// drop below what is currently out.
func (s *Service) UpdateEquipment(ctx context.Context, actorID, id string, in EquipmentInput) (*models.Equipment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *models.Equipment
	err := s.s.Atomic(ctx, func(tx store.Store) error {
		eq, err := tx.Equipment().GetForUpdate(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return &fault.NotFoundError{Kind: "equipment", ID: id}
		}
		if err != nil {
			return err
		}
		committed := eq.Total - eq.Remaining
		if in.Total < committed {
			return &fault.ValidationError{
				Field:  "total",
				Reason: fmt.Sprintf("%d out on loan; total cannot drop below that", committed),
			}
		}
		eq.Category = in.Category
		eq.Name = in.Name
		eq.Description = in.Description
		eq.Location = in.Location
		eq.Cabinet = in.Cabinet
		eq.Shelf = in.Shelf
		eq.Total = in.Total
		eq.Remaining = in.Total - committed
		if err := tx.Equipment().Update(ctx, eq); err != nil {
			return err
		}
		out = eq
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.sink.Emit(ctx, audit.Event{Kind: "catalog.equipment.update", Actor: actorID, Subject: id})
	slog.Info("器材已修改", "id", id, "total", out.Total)
	return out, nil
}

func (s *Service) GetEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	eq, err := s.s.Equipment().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &fault.NotFoundError{Kind: "equipment", ID: id}
	}
	return eq, err
}

func (s *Service) ListEquipment(ctx context.Context, f store.EquipmentFilter) ([]models.Equipment, error) {
	return s.s.Equipment().List(ctx, f)
}

// RemoveEquipment deletes an item whose stock is fully back and that no open
// reservation references.
func (s *Service) RemoveEquipment(ctx context.Context, actorID, id string) error {
	err := s.s.Atomic(ctx, func(tx store.Store) error {
		eq, err := tx.Equipment().GetForUpdate(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return &fault.NotFoundError{Kind: "equipment", ID: id}
		}
		if err != nil {
			return err
		}
		if eq.Remaining != eq.Total {
			return &fault.ConflictError{Resource: "equipment", ID: id, Reason: "stock not fully returned"}
		}
		n, err := tx.Reservations().CountOpenLines(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &fault.ConflictError{Resource: "equipment", ID: id, Reason: "still referenced by open reservations"}
		}
		return tx.Equipment().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.sink.Emit(ctx, audit.Event{Kind: "catalog.equipment.remove", Actor: actorID, Subject: id})
	slog.Info("器材已删除", "id", id)
	return nil
}
