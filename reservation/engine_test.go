package reservation

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"makerhub/audit"
	"makerhub/fault"
	"makerhub/ledger"
	"makerhub/memstore"
	"makerhub/models"
	"makerhub/store"
)

func newFixture(t *testing.T) (*Engine, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	ctx := context.Background()
	require.NoError(t, s.Workstations().Create(ctx, &models.Workstation{ID: "WS1", Location: "A", Number: 1}))
	require.NoError(t, s.Workstations().Create(ctx, &models.Workstation{ID: "WS2", Location: "A", Number: 2}))
	require.NoError(t, s.Equipment().Create(ctx,
		&models.Equipment{ID: "EQ1", Category: "tools", Name: "soldering iron", Total: 5, Remaining: 5}))
	require.NoError(t, s.Equipment().Create(ctx,
		&models.Equipment{ID: "EQ2", Category: "boards", Name: "dev board", Total: 2, Remaining: 2}))
	return NewEngine(s, ledger.NewOccupancy(s), ledger.NewQuantity(s), audit.Nop{}), s
}

func workstationInput(wsID string) Input {
	return Input{
		Kind:          models.KindWorkstation,
		RequesterName: "Ada",
		Purpose:       "prototype bring-up",
		WorkstationID: wsID,
		StartAt:       time.Now(),
		Deadline:      time.Now().Add(48 * time.Hour),
	}
}

func equipmentInput(lines ...Line) Input {
	return Input{
		Kind:          models.KindEquipment,
		RequesterName: "Ada",
		Purpose:       "prototype bring-up",
		Lines:         lines,
		StartAt:       time.Now(),
		Deadline:      time.Now().Add(48 * time.Hour),
	}
}

func occupied(t *testing.T, s *memstore.Store, id string) bool {
	t.Helper()
	w, err := s.Workstations().Get(context.Background(), id)
	require.NoError(t, err)
	return w.Occupied
}

func remaining(t *testing.T, s *memstore.Store, id string) int {
	t.Helper()
	eq, err := s.Equipment().Get(context.Background(), id)
	require.NoError(t, err)
	return eq.Remaining
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	cases := []struct {
		name      string
		requester string
		mutate    func(*Input)
	}{
		{"missing requester", "", func(in *Input) {}},
		{"bad kind", "u1", func(in *Input) { in.Kind = "printer" }},
		{"workstation without unit", "u1", func(in *Input) { in.WorkstationID = "" }},
		{"workstation with lines", "u1", func(in *Input) { in.Lines = []Line{{EquipmentID: "EQ1", Quantity: 1}} }},
		{"missing name", "u1", func(in *Input) { in.RequesterName = " " }},
		{"missing purpose", "u1", func(in *Input) { in.Purpose = "" }},
		{"deadline before start", "u1", func(in *Input) { in.Deadline = in.StartAt.Add(-time.Hour) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := workstationInput("WS1")
			c.mutate(&in)
			_, err := eng.Submit(ctx, c.requester, in)
			assert.True(t, fault.IsValidation(err), "got %v", err)
		})
	}

	eqCases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"equipment without lines", func(in *Input) { in.Lines = nil }},
		{"equipment with unit", func(in *Input) { in.WorkstationID = "WS1" }},
		{"zero quantity", func(in *Input) { in.Lines[0].Quantity = 0 }},
		{"duplicate lines", func(in *Input) { in.Lines = append(in.Lines, Line{EquipmentID: "EQ1", Quantity: 1}) }},
	}
	for _, c := range eqCases {
		t.Run(c.name, func(t *testing.T) {
			in := equipmentInput(Line{EquipmentID: "EQ1", Quantity: 2})
			c.mutate(&in)
			_, err := eng.Submit(ctx, "u1", in)
			assert.True(t, fault.IsValidation(err), "got %v", err)
		})
	}
}

func TestSubmitWorkstationClaimsUnit(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.ID, "RS"))
	assert.Equal(t, models.StatePending, r.State)
	require.NotNil(t, r.WorkstationID)
	assert.Equal(t, "WS1", *r.WorkstationID)
	assert.True(t, occupied(t, s, "WS1"))

	// 同一工位第二单被占用挡下，换一台没问题
	_, err = eng.Submit(ctx, "u2", workstationInput("WS1"))
	assert.True(t, fault.IsConflict(err))
	_, err = eng.Submit(ctx, "u2", workstationInput("WS2"))
	require.NoError(t, err)
}

func TestSubmitUnknownWorkstation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	_, err := eng.Submit(ctx, "u1", workstationInput("missing"))
	assert.True(t, fault.IsNotFound(err))
}

func TestSubmitEquipmentSnapshotsManifest(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", equipmentInput(
		Line{EquipmentID: "EQ2", Quantity: 1},
		Line{EquipmentID: "EQ1", Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, r.Lines, 2)
	// 清单按器材 ID 排序，名称是提交时的快照
	assert.Equal(t, "EQ1", r.Lines[0].EquipmentID)
	assert.Equal(t, "soldering iron", r.Lines[0].Name)
	assert.Equal(t, "EQ2", r.Lines[1].EquipmentID)
	assert.Equal(t, "dev board", r.Lines[1].Name)

	// 提交只登记清单，不动库存
	assert.Equal(t, 5, remaining(t, s, "EQ1"))
	assert.Equal(t, 2, remaining(t, s, "EQ2"))
}

func TestSubmitUnknownEquipment(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	_, err := eng.Submit(ctx, "u1", equipmentInput(Line{EquipmentID: "missing", Quantity: 1}))
	assert.True(t, fault.IsNotFound(err))
}

func TestReviewApproveWorkstation(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	out, err := eng.Review(ctx, r.ID, "staff1", DecisionApprove, "go ahead")
	require.NoError(t, err)
	assert.Equal(t, models.StateApproved, out.State)
	assert.Equal(t, "go ahead", out.Review)
	require.NotNil(t, out.ApprovedAt)
	assert.True(t, occupied(t, s, "WS1"))
}

func TestReviewRejectNeedsComment(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	_, err = eng.Review(ctx, r.ID, "staff1", DecisionReject, "  ")
	assert.True(t, fault.IsValidation(err))

	out, err := eng.Review(ctx, r.ID, "staff1", DecisionReject, "missing project code")
	require.NoError(t, err)
	assert.Equal(t, models.StateRejected, out.State)
	assert.Equal(t, "missing project code", out.Review)
	// 打回不释放工位：申请人改完还要用
	assert.True(t, occupied(t, s, "WS1"))
}

func TestReviewDecisionValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	_, err = eng.Review(ctx, r.ID, "staff1", Decision("maybe"), "")
	assert.True(t, fault.IsValidation(err))
}

func TestReviewNonPendingIsStale(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	_, err = eng.Review(ctx, r.ID, "staff2", DecisionApprove, "")
	assert.True(t, fault.IsStale(err))
}

func TestReviewApproveDrawsDownManifest(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", equipmentInput(
		Line{EquipmentID: "EQ1", Quantity: 3},
		Line{EquipmentID: "EQ2", Quantity: 2},
	))
	require.NoError(t, err)

	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining(t, s, "EQ1"))
	assert.Equal(t, 0, remaining(t, s, "EQ2"))
}

func TestReviewInsufficientKeepsPending(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	first, err := eng.Submit(ctx, "u1", equipmentInput(Line{EquipmentID: "EQ2", Quantity: 2}))
	require.NoError(t, err)
	_, err = eng.Review(ctx, first.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	second, err := eng.Submit(ctx, "u2", equipmentInput(Line{EquipmentID: "EQ2", Quantity: 1}))
	require.NoError(t, err)

	_, err = eng.Review(ctx, second.ID, "staff1", DecisionApprove, "")
	var ie *fault.InsufficientError
	require.ErrorAs(t, err, &ie)
	require.Len(t, ie.Items, 1)
	assert.Equal(t, "EQ2", ie.Items[0].EquipmentID)
	assert.Equal(t, 1, ie.Items[0].Requested)
	assert.Equal(t, 0, ie.Items[0].Remaining)

	// 整单失败后申请留在 pending，等库存回来再批
	got, err := eng.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, got.State)

	_, err = eng.Return(ctx, first.ID, Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 2, remaining(t, s, "EQ2"))

	_, err = eng.Review(ctx, second.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)
}

func TestUpdateRules(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	upd := UpdateInput{
		RequesterName: "Ada L.",
		Purpose:       "prototype bring-up, week 2",
		StartAt:       time.Now(),
		Deadline:      time.Now().Add(72 * time.Hour),
	}

	_, err = eng.Update(ctx, r.ID, "someone-else", upd)
	assert.True(t, fault.IsAuthz(err))

	out, err := eng.Update(ctx, r.ID, "u1", upd)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", out.RequesterName)
	assert.Equal(t, models.StatePending, out.State)

	// 审批通过后不可再改
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)
	_, err = eng.Update(ctx, r.ID, "u1", upd)
	assert.True(t, fault.IsState(err))
}

func TestUpdateRejectedRequeues(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionReject, "wrong project code")
	require.NoError(t, err)

	out, err := eng.Update(ctx, r.ID, "u1", UpdateInput{
		RequesterName: "Ada",
		Purpose:       "prototype bring-up, fixed code",
		StartAt:       time.Now(),
		Deadline:      time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, out.State)
	assert.Empty(t, out.Review) // 重新排队时打回意见清空
}

func TestUpdateEquipmentResnapshotsManifest(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", equipmentInput(Line{EquipmentID: "EQ1", Quantity: 1}))
	require.NoError(t, err)

	out, err := eng.Update(ctx, r.ID, "u1", UpdateInput{
		RequesterName: "Ada",
		Purpose:       "prototype bring-up",
		Lines:         []Line{{EquipmentID: "EQ2", Quantity: 2}},
		StartAt:       time.Now(),
		Deadline:      time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "EQ2", out.Lines[0].EquipmentID)
	assert.Equal(t, "dev board", out.Lines[0].Name)
	assert.Equal(t, 2, out.Lines[0].Quantity)
}

func TestCancelReleasesClaim(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	_, err = eng.Cancel(ctx, r.ID, "someone-else")
	assert.True(t, fault.IsAuthz(err))

	out, err := eng.Cancel(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCancelled, out.State)
	assert.False(t, occupied(t, s, "WS1"))

	// 终态不可再取消
	_, err = eng.Cancel(ctx, r.ID, "u1")
	assert.True(t, fault.IsState(err))
}

func TestCancelApprovedIsRefused(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	// 批过的单走归还，不走取消
	_, err = eng.Cancel(ctx, r.ID, "u1")
	assert.True(t, fault.IsState(err))
}

func TestCancelRejectedReleasesClaim(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionReject, "budget")
	require.NoError(t, err)

	_, err = eng.Cancel(ctx, r.ID, "u1")
	require.NoError(t, err)
	assert.False(t, occupied(t, s, "WS1"))
}

func TestReturnWorkstation(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)

	// 还没批的单谈不上归还
	_, err = eng.Return(ctx, r.ID, Actor{ID: "u1"})
	assert.True(t, fault.IsState(err))

	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	_, err = eng.Return(ctx, r.ID, Actor{ID: "stranger"})
	assert.True(t, fault.IsAuthz(err))

	out, err := eng.Return(ctx, r.ID, Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.StateReturned, out.State)
	assert.Equal(t, "u1", out.ReturnedBy)
	require.NotNil(t, out.ReturnedAt)
	assert.False(t, occupied(t, s, "WS1"))
}

func TestReturnByStaffOnBehalf(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	out, err := eng.Return(ctx, r.ID, Actor{ID: "staff1", Staff: true})
	require.NoError(t, err)
	assert.Equal(t, "staff1", out.ReturnedBy)
	assert.False(t, occupied(t, s, "WS1"))
}

func TestReturnEquipmentRestoresOnce(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", equipmentInput(Line{EquipmentID: "EQ1", Quantity: 3}))
	require.NoError(t, err)
	_, err = eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining(t, s, "EQ1"))

	_, err = eng.Return(ctx, r.ID, Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 5, remaining(t, s, "EQ1"))

	// 二次归还被拒，库存不会加两次
	_, err = eng.Return(ctx, r.ID, Actor{ID: "u1"})
	assert.True(t, fault.IsState(err))
	assert.Equal(t, 5, remaining(t, s, "EQ1"))
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	_, err := eng.Get(ctx, "RS_missing")
	assert.True(t, fault.IsNotFound(err))
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	a, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
	require.NoError(t, err)
	_, err = eng.Submit(ctx, "u2", equipmentInput(Line{EquipmentID: "EQ1", Quantity: 1}))
	require.NoError(t, err)
	_, err = eng.Review(ctx, a.ID, "staff1", DecisionApprove, "")
	require.NoError(t, err)

	mine, err := eng.List(ctx, store.ReservationFilter{RequesterID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	pending, err := eng.List(ctx, store.ReservationFilter{State: models.StatePending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.KindEquipment, pending[0].Kind)
}

func TestConcurrentReviewSingleWinner(t *testing.T) {
	ctx := context.Background()
	eng, s := newFixture(t)

	r, err := eng.Submit(ctx, "u1", equipmentInput(Line{EquipmentID: "EQ2", Quantity: 2}))
	require.NoError(t, err)

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := eng.Review(ctx, r.ID, "staff1", DecisionApprove, "")
			if err == nil {
				wins.Add(1)
				return nil
			}
			if fault.IsStale(err) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	// 清单只扣了一次
	assert.Equal(t, 0, remaining(t, s, "EQ2"))
}

func TestConcurrentSubmitSameWorkstation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixture(t)

	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := eng.Submit(ctx, "u1", workstationInput("WS1"))
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

	holders, err := eng.List(ctx, store.ReservationFilter{WorkstationID: "WS1"})
	require.NoError(t, err)
	assert.Len(t, holders, 1)
}
