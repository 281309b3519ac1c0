package rotation

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/memstore"
)

func newScheduler(t *testing.T) (*Scheduler, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	return NewScheduler(s, audit.Nop{}), s
}

func ring(n int) []Member {
	out := make([]Member, 0, n)
	names := []string{"Ada", "Grace", "Edsger", "Barbara", "Donald"}
	for i := 0; i < n; i++ {
		out = append(out, Member{ID: names[i] + "-id", Name: names[i]})
	}
	return out
}

func TestSeedSetsFirstCurrent(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	entries, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.True(t, strings.HasPrefix(e.ID, "RT"))
		assert.Equal(t, i, e.Position)
		assert.Equal(t, i == 0, e.Current)
	}

	cur, err := sc.Current(ctx, "laser")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "Ada-id", cur.MemberID)
}

func TestSeedValidation(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "  ", ring(2))
	assert.True(t, fault.IsValidation(err))

	_, err = sc.Seed(ctx, "staff1", "laser", []Member{{ID: "x", Name: " "}})
	assert.True(t, fault.IsValidation(err))
}

func TestSeedReplacesRingWholesale(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)
	_, err = sc.Advance(ctx, "staff1", "laser")
	require.NoError(t, err)

	// 重新播种推倒重来，指针回到新名单第一人
	_, err = sc.Seed(ctx, "staff1", "laser", []Member{{ID: "new-id", Name: "New"}})
	require.NoError(t, err)

	cur, err := sc.Current(ctx, "laser")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "new-id", cur.MemberID)

	snap, err := sc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap["laser"], 1)
}

func TestAdvanceCyclesRoundRobin(t *testing.T) {
	ctx := context.Background()
	sc, s := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)

	want := []string{"Grace-id", "Edsger-id", "Ada-id", "Grace-id"}
	for _, m := range want {
		cur, err := sc.Advance(ctx, "staff1", "laser")
		require.NoError(t, err)
		require.NotNil(t, cur)
		assert.Equal(t, m, cur.MemberID)

		// 任何时刻每个类目只有一个 current
		entries, err := s.Rotation().List(ctx, "laser")
		require.NoError(t, err)
		n := 0
		for _, e := range entries {
			if e.Current {
				n++
			}
		}
		assert.Equal(t, 1, n)
	}
}

func TestAdvanceEmptyCategory(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	cur, err := sc.Advance(ctx, "staff1", "ghost")
	require.NoError(t, err)
	assert.Nil(t, cur)

	got, err := sc.Current(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAdvanceHealsLostPointer(t *testing.T) {
	ctx := context.Background()
	sc, s := newScheduler(t)

	entries, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)
	require.NoError(t, s.Rotation().SetCurrent(ctx, entries[0].ID, false))

	cur, err := sc.Advance(ctx, "staff1", "laser")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "Ada-id", cur.MemberID)
}

func TestAssignNextHandsOutThenAdvances(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)

	want := []string{"Ada-id", "Grace-id", "Edsger-id", "Ada-id"}
	for _, m := range want {
		got, err := sc.AssignNext(ctx, "staff1", "laser")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m, got.MemberID)
	}

	cur, err := sc.Current(ctx, "laser")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "Grace-id", cur.MemberID)
}

func TestAssignSingleMemberRing(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(1))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := sc.AssignNext(ctx, "staff1", "laser")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ada-id", got.MemberID)
	}
}

func TestAssignEmptyCategory(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	got, err := sc.AssignNext(ctx, "staff1", "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotGroupsByCategory(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(2))
	require.NoError(t, err)
	_, err = sc.Seed(ctx, "staff1", "cnc", ring(3))
	require.NoError(t, err)

	snap, err := sc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Len(t, snap["laser"], 2)
	assert.Len(t, snap["cnc"], 3)
	for i, e := range snap["cnc"] {
		assert.Equal(t, i, e.Position)
	}
}

func TestConcurrentAssignDistributesEvenly(t *testing.T) {
	ctx := context.Background()
	sc, _ := newScheduler(t)

	_, err := sc.Seed(ctx, "staff1", "laser", ring(3))
	require.NoError(t, err)

	var mu sync.Mutex
	counts := map[string]int{}
	var g errgroup.Group
	for i := 0; i < 9; i++ {
		g.Go(func() error {
			got, err := sc.AssignNext(ctx, "staff1", "laser")
			if err != nil {
				return err
			}
			mu.Lock()
			counts[got.MemberID]++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// 指派与推进同一原子步骤，9 次指派在 3 人环上均摊
	assert.Equal(t, map[string]int{"Ada-id": 3, "Grace-id": 3, "Edsger-id": 3}, counts)
}
