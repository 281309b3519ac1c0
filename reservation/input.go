// reservation/input.go
package reservation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"makerhub/fault"
	"makerhub/models"
	"makerhub/store"
)

type Line struct {
	EquipmentID string
	Quantity    int
}

// Input is a submission. UpdateInput is the editable subset: kind and the
// workstation reference are fixed at submission.
type Input struct {
	Kind          models.Kind
	RequesterName string
	Phone         string
	Email         string
	Purpose       string
	ProjectID     string
	WorkstationID string
	Lines         []Line
	StartAt       time.Time
	Deadline      time.Time
}

type UpdateInput struct {
	RequesterName string
	Phone         string
	Email         string
	Purpose       string
	ProjectID     string
	Lines         []Line
	StartAt       time.Time
	Deadline      time.Time
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (in Input) validate() error {
	switch in.Kind {
	case models.KindWorkstation:
		if in.WorkstationID == "" {
			return &fault.ValidationError{Field: "workstationId", Reason: "required for workstation requests"}
		}
		if len(in.Lines) > 0 {
			return &fault.ValidationError{Field: "lines", Reason: "not allowed for workstation requests"}
		}
	case models.KindEquipment:
		if in.WorkstationID != "" {
			return &fault.ValidationError{Field: "workstationId", Reason: "not allowed for equipment requests"}
		}
		if err := validateLines(in.Lines); err != nil {
			return err
		}
	default:
		return &fault.ValidationError{Field: "kind", Reason: "must be workstation or equipment"}
	}
	return validateCommon(in.RequesterName, in.Purpose, in.StartAt, in.Deadline)
}

func (in UpdateInput) validate(kind models.Kind) error {
	if kind == models.KindEquipment {
		if err := validateLines(in.Lines); err != nil {
			return err
		}
	} else if len(in.Lines) > 0 {
		return &fault.ValidationError{Field: "lines", Reason: "not allowed for workstation requests"}
	}
	return validateCommon(in.RequesterName, in.Purpose, in.StartAt, in.Deadline)
}

func validateCommon(name, purpose string, start, deadline time.Time) error {
	if strings.TrimSpace(name) == "" {
		return &fault.ValidationError{Field: "requesterName", Reason: "required"}
	}
	if strings.TrimSpace(purpose) == "" {
		return &fault.ValidationError{Field: "purpose", Reason: "required"}
	}
	if start.IsZero() || deadline.IsZero() {
		return &fault.ValidationError{Field: "startAt", Reason: "start and deadline are required"}
	}
	if !start.Before(deadline) {
		return &fault.ValidationError{Field: "deadline", Reason: "must be after startAt"}
	}
	return nil
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return &fault.ValidationError{Field: "lines", Reason: "at least one equipment line is required"}
	}
	seen := make(map[string]bool, len(lines))
	for _, ln := range lines {
		if ln.EquipmentID == "" {
			return &fault.ValidationError{Field: "lines", Reason: "equipmentId is required"}
		}
		if ln.Quantity < 1 {
			return &fault.ValidationError{Field: "lines", Reason: "quantity must be positive"}
		}
		if seen[ln.EquipmentID] {
			return &fault.ValidationError{Field: "lines", Reason: "duplicate equipment " + ln.EquipmentID}
		}
		seen[ln.EquipmentID] = true
	}
	return nil
}

// snapshotLines locks the referenced equipment rows (ID ascending) and
// records the name snapshots the manifest keeps.
func snapshotLines(ctx context.Context, tx store.Store, lines []Line) ([]models.ReservationLine, error) {
	sorted := append([]Line(nil), lines...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EquipmentID < sorted[j].EquipmentID })
	out := make([]models.ReservationLine, 0, len(sorted))
	for _, ln := range sorted {
		eq, err := tx.Equipment().GetForUpdate(ctx, ln.EquipmentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &fault.NotFoundError{Kind: "equipment", ID: ln.EquipmentID}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, models.ReservationLine{EquipmentID: eq.ID, Name: eq.Name, Quantity: ln.Quantity})
	}
	return out, nil
}
