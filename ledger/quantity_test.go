package ledger

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"makerhub/fault"
	"makerhub/memstore"
	"makerhub/models"
)

func newQuantityFixture(t *testing.T) (*Quantity, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Equipment().Create(ctx,
		&models.Equipment{ID: "EQ1", Category: "tools", Name: "soldering iron", Total: 5, Remaining: 5}))
	require.NoError(t, s.Equipment().Create(ctx,
		&models.Equipment{ID: "EQ2", Category: "tools", Name: "wire cutter", Total: 2, Remaining: 2}))
	return NewQuantity(s), s
}

func remaining(t *testing.T, s *memstore.Store, id string) int {
	t.Helper()
	eq, err := s.Equipment().Get(context.Background(), id)
	require.NoError(t, err)
	return eq.Remaining
}

func TestDecrementBatchAllOrNothing(t *testing.T) {
	ctx := context.Background()
	qty, s := newQuantityFixture(t)

	err := qty.DecrementBatch(ctx, []models.ReservationLine{
		{EquipmentID: "EQ1", Quantity: 2},
		{EquipmentID: "EQ2", Quantity: 3}, // 超过库存
	})
	var ie *fault.InsufficientError
	require.ErrorAs(t, err, &ie)
	require.Len(t, ie.Items, 1)
	assert.Equal(t, "EQ2", ie.Items[0].EquipmentID)
	assert.Equal(t, "wire cutter", ie.Items[0].Name)
	assert.Equal(t, 3, ie.Items[0].Requested)
	assert.Equal(t, 2, ie.Items[0].Remaining)

	// 整单失败，库存一个都不动
	assert.Equal(t, 5, remaining(t, s, "EQ1"))
	assert.Equal(t, 2, remaining(t, s, "EQ2"))
}

func TestDecrementReportsEveryShortLine(t *testing.T) {
	ctx := context.Background()
	qty, _ := newQuantityFixture(t)

	err := qty.DecrementBatch(ctx, []models.ReservationLine{
		{EquipmentID: "EQ1", Quantity: 9},
		{EquipmentID: "EQ2", Quantity: 9},
	})
	var ie *fault.InsufficientError
	require.ErrorAs(t, err, &ie)
	assert.Len(t, ie.Items, 2)
}

func TestDecrementIncrementRoundTrip(t *testing.T) {
	ctx := context.Background()
	qty, s := newQuantityFixture(t)

	lines := []models.ReservationLine{
		{EquipmentID: "EQ1", Quantity: 3},
		{EquipmentID: "EQ2", Quantity: 2},
	}
	require.NoError(t, qty.DecrementBatch(ctx, lines))
	assert.Equal(t, 2, remaining(t, s, "EQ1"))
	assert.Equal(t, 0, remaining(t, s, "EQ2"))

	require.NoError(t, qty.IncrementBatch(ctx, lines))
	assert.Equal(t, 5, remaining(t, s, "EQ1"))
	assert.Equal(t, 2, remaining(t, s, "EQ2"))
}

func TestIncrementPastTotalFails(t *testing.T) {
	ctx := context.Background()
	qty, s := newQuantityFixture(t)

	// 库存已满，归还只能说明台账出了问题
	err := qty.IncrementBatch(ctx, []models.ReservationLine{{EquipmentID: "EQ1", Quantity: 1}})
	require.Error(t, err)
	assert.Equal(t, 5, remaining(t, s, "EQ1"))
}

func TestDecrementUnknownEquipment(t *testing.T) {
	ctx := context.Background()
	qty, _ := newQuantityFixture(t)

	err := qty.DecrementBatch(ctx, []models.ReservationLine{{EquipmentID: "missing", Quantity: 1}})
	assert.True(t, fault.IsNotFound(err))
}

func TestConcurrentDecrementLastUnits(t *testing.T) {
	ctx := context.Background()
	qty, s := newQuantityFixture(t)

	// EQ2 只剩 2 件，8 个并发各要 2 件，只能成一单
	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			err := qty.DecrementBatch(ctx, []models.ReservationLine{{EquipmentID: "EQ2", Quantity: 2}})
			if err == nil {
				wins.Add(1)
				return nil
			}
			if fault.IsInsufficient(err) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 0, remaining(t, s, "EQ2"))
}
