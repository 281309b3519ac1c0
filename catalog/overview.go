// catalog/overview.go
package catalog

import (
	"context"

	"makerhub/models"
	"makerhub/store"
)

type WorkstationStats struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
}

type CategoryStock struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
}

type Overview struct {
	Workstations WorkstationStats     `json:"workstations"`
	Equipment    []CategoryStock      `json:"equipment"`
	Reservations map[models.State]int `json:"reservations"`
}

// Overview aggregates the dashboard numbers: occupancy, per-category stock,
// and request counts per state.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{Reservations: map[models.State]int{}}

	ws, err := s.s.Workstations().List(ctx, store.WorkstationFilter{})
	if err != nil {
		return nil, err
	}
	out.Workstations.Total = len(ws)
	for _, w := range ws {
		if w.Occupied {
			out.Workstations.Occupied++
		}
	}

	eqs, err := s.s.Equipment().List(ctx, store.EquipmentFilter{})
	if err != nil {
		return nil, err
	}
	// List 按类目排好序，聚合时顺序保持稳定
	for _, eq := range eqs {
		if n := len(out.Equipment); n > 0 && out.Equipment[n-1].Category == eq.Category {
			out.Equipment[n-1].Total += eq.Total
			out.Equipment[n-1].Remaining += eq.Remaining
			continue
		}
		out.Equipment = append(out.Equipment, CategoryStock{
			Category:  eq.Category,
			Total:     eq.Total,
			Remaining: eq.Remaining,
		})
	}

	resv, err := s.s.Reservations().List(ctx, store.ReservationFilter{})
	if err != nil {
		return nil, err
	}
	for _, r := range resv {
		out.Reservations[r.State]++
	}
	return out, nil
}
