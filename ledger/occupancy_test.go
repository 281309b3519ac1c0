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

func newOccupancyFixture(t *testing.T) (*Occupancy, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.Workstations().Create(context.Background(),
		&models.Workstation{ID: "WS1", Location: "A", Number: 1}))
	return NewOccupancy(s), s
}

func TestAcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	occ, s := newOccupancyFixture(t)

	require.NoError(t, occ.Acquire(ctx, "WS1"))
	w, err := s.Workstations().Get(ctx, "WS1")
	require.NoError(t, err)
	assert.True(t, w.Occupied)

	err = occ.Acquire(ctx, "WS1")
	assert.True(t, fault.IsConflict(err))

	require.NoError(t, occ.Release(ctx, "WS1"))
	w, err = s.Workstations().Get(ctx, "WS1")
	require.NoError(t, err)
	assert.False(t, w.Occupied)

	// 释放后可再占
	require.NoError(t, occ.Acquire(ctx, "WS1"))
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	occ, _ := newOccupancyFixture(t)

	require.NoError(t, occ.Release(ctx, "WS1"))
	require.NoError(t, occ.Release(ctx, "WS1"))
}

func TestAcquireUnknownUnit(t *testing.T) {
	ctx := context.Background()
	occ, _ := newOccupancyFixture(t)

	err := occ.Acquire(ctx, "missing")
	assert.True(t, fault.IsNotFound(err))
}

func TestConcurrentAcquireHasOneWinner(t *testing.T) {
	ctx := context.Background()
	occ, _ := newOccupancyFixture(t)

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			err := occ.Acquire(ctx, "WS1")
			if err == nil {
				wins.Add(1)
				return nil
			}
			if fault.IsConflict(err) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
}
