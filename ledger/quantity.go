// ledger/quantity.go
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"makerhub/fault"
	"makerhub/models"
	"makerhub/store"
)

// Quantity 池化器材的数量台账。清单行必须指向互不相同的器材。
type Quantity struct{ s store.Store }

func NewQuantity(s store.Store) *Quantity { return &Quantity{s: s} }

// DecrementBatch draws the manifest down all-or-nothing: on any shortfall it
// returns an InsufficientError listing every failing line and mutates nothing.
func (l *Quantity) DecrementBatch(ctx context.Context, lines []models.ReservationLine) error {
	return l.s.Atomic(ctx, func(tx store.Store) error { return l.DecrementBatchTx(ctx, tx, lines) })
}

func (l *Quantity) DecrementBatchTx(ctx context.Context, tx store.Store, lines []models.ReservationLine) error {
	sorted := sortedByEquipment(lines)
	// 先整单检查再统一扣减，加锁顺序固定为器材 ID 升序
	var short []fault.InsufficientItem
	for _, ln := range sorted {
		eq, err := lockEquipment(ctx, tx, ln.EquipmentID)
		if err != nil {
			return err
		}
		if eq.Remaining < ln.Quantity {
			short = append(short, fault.InsufficientItem{
				EquipmentID: eq.ID,
				Name:        eq.Name,
				Requested:   ln.Quantity,
				Remaining:   eq.Remaining,
			})
		}
	}
	if len(short) > 0 {
		return &fault.InsufficientError{Items: short}
	}
	for _, ln := range sorted {
		if err := l.apply(ctx, tx, ln.EquipmentID, -ln.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// IncrementBatch restores the manifest all-or-nothing. A restore that would
// push remaining past total is a data-integrity fault: logged and returned,
// never clamped.
func (l *Quantity) IncrementBatch(ctx context.Context, lines []models.ReservationLine) error {
	return l.s.Atomic(ctx, func(tx store.Store) error { return l.IncrementBatchTx(ctx, tx, lines) })
}

func (l *Quantity) IncrementBatchTx(ctx context.Context, tx store.Store, lines []models.ReservationLine) error {
	sorted := sortedByEquipment(lines)
	for _, ln := range sorted {
		eq, err := lockEquipment(ctx, tx, ln.EquipmentID)
		if err != nil {
			return err
		}
		if eq.Remaining+ln.Quantity > eq.Total {
			slog.Error("数量台账异常：归还会超过总量",
				"equipmentId", eq.ID, "remaining", eq.Remaining, "restore", ln.Quantity, "total", eq.Total)
			return fmt.Errorf("quantity ledger: restoring %d of %s exceeds total", ln.Quantity, eq.ID)
		}
	}
	for _, ln := range sorted {
		if err := l.apply(ctx, tx, ln.EquipmentID, ln.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (l *Quantity) apply(ctx context.Context, tx store.Store, equipmentID string, delta int) error {
	ok, err := tx.Equipment().AdjustRemaining(ctx, equipmentID, delta)
	if err != nil {
		return err
	}
	if !ok {
		// 行已加锁且检查过，到这一步守卫不应再失败
		slog.Error("数量台账异常：检查后守卫仍失败", "equipmentId", equipmentID, "delta", delta)
		return fmt.Errorf("quantity ledger: inconsistent stock for %s", equipmentID)
	}
	return nil
}

func lockEquipment(ctx context.Context, tx store.Store, id string) (*models.Equipment, error) {
	eq, err := tx.Equipment().GetForUpdate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &fault.NotFoundError{Kind: "equipment", ID: id}
	}
	return eq, err
}

func sortedByEquipment(lines []models.ReservationLine) []models.ReservationLine {
	out := append([]models.ReservationLine(nil), lines...)
	sort.Slice(out, func(i, j int) bool { return out[i].EquipmentID < out[j].EquipmentID })
	return out
}
