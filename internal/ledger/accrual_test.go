package ledger

import (
	"context"
	"testing"
	"time"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"
	"mining_rewards/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *testutil.Clock) {
	t.Helper()
	gdb := testutil.NewDB(t)
	clock := testutil.NewClock()
	return NewService(gdb, WithClock(clock.Now)), gdb, clock
}

func mustMachine(t *testing.T, id string) catalog.Machine {
	t.Helper()
	m, ok := catalog.Lookup(id)
	require.True(t, ok, id)
	return m
}

func TestEvaluate_NeverClaimedIsDueAtPurchase(t *testing.T) {
	m := mustMachine(t, "m1")
	purchased := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	om := domain.OwnedMachine{PurchasedAt: purchased}

	st := Evaluate(om, m, purchased)
	assert.True(t, st.Claimable)
	assert.False(t, st.Expired)
	assert.Equal(t, purchased, st.DueAt)
	assert.Equal(t, purchased.Add(20*24*time.Hour), st.ExpiresAt)
}

func TestEvaluate_DueOneCycleAfterLastClaim(t *testing.T) {
	m := mustMachine(t, "m2")
	purchased := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	claimed := purchased.Add(2 * time.Hour)
	om := domain.OwnedMachine{PurchasedAt: purchased, LastClaimedAt: &claimed, ClaimCount: 1}

	st := Evaluate(om, m, claimed.Add(23*time.Hour))
	assert.False(t, st.Claimable)
	assert.Equal(t, claimed.Add(CycleLength), st.DueAt)

	st = Evaluate(om, m, claimed.Add(CycleLength))
	assert.True(t, st.Claimable)
}

func TestEvaluate_Expiry(t *testing.T) {
	m := mustMachine(t, "m1")
	purchased := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("all cycles paid", func(t *testing.T) {
		claimed := purchased.Add(19 * 24 * time.Hour)
		om := domain.OwnedMachine{PurchasedAt: purchased, LastClaimedAt: &claimed, ClaimCount: m.Duration}
		st := Evaluate(om, m, claimed.Add(48*time.Hour))
		assert.True(t, st.Expired)
		assert.False(t, st.Claimable)
	})

	t.Run("last cycle due exactly at contract end", func(t *testing.T) {
		claimed := purchased.Add(19 * 24 * time.Hour)
		om := domain.OwnedMachine{PurchasedAt: purchased, LastClaimedAt: &claimed, ClaimCount: m.Duration - 1}
		st := Evaluate(om, m, claimed.Add(CycleLength))
		assert.False(t, st.Expired)
		assert.True(t, st.Claimable)
	})

	t.Run("next cycle falls after contract end", func(t *testing.T) {
		claimed := purchased.Add(19*24*time.Hour + time.Minute)
		om := domain.OwnedMachine{PurchasedAt: purchased, LastClaimedAt: &claimed, ClaimCount: 5}
		st := Evaluate(om, m, claimed.Add(72*time.Hour))
		assert.True(t, st.Expired)
		assert.False(t, st.Claimable)
	})
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m1, m2, m4 := mustMachine(t, "m1"), mustMachine(t, "m2"), mustMachine(t, "m4")
	early := now.Add(-3 * time.Hour)
	late := now.Add(-1 * time.Hour)

	states := []MachineState{
		Evaluate(domain.OwnedMachine{PurchasedAt: now.Add(-48 * time.Hour)}, m1, now),
		Evaluate(domain.OwnedMachine{PurchasedAt: now.Add(-48 * time.Hour), LastClaimedAt: &early, ClaimCount: 1}, m2, now),
		Evaluate(domain.OwnedMachine{PurchasedAt: now.Add(-48 * time.Hour), LastClaimedAt: &late, ClaimCount: 1}, m4, now),
		Evaluate(domain.OwnedMachine{PurchasedAt: now.AddDate(0, 0, -90), ClaimCount: 60}, m2, now),
	}
	snap := Summarize(states, now)

	assert.Equal(t, 4, snap.TotalMachines)
	assert.Equal(t, 3, snap.ActiveMachines)
	assert.Equal(t, 1, snap.ClaimableMachines)
	testutil.RequireAmount(t, "0.50", snap.ClaimableReward)
	testutil.RequireAmount(t, "4.50", snap.DailyReward)
	require.NotNil(t, snap.NextClaimTime)
	assert.Equal(t, early.Add(CycleLength), *snap.NextClaimTime)
	assert.Equal(t, now, snap.ServerTime)
}

func TestSummarize_Empty(t *testing.T) {
	now := time.Now().UTC()
	snap := Summarize(nil, now)
	assert.Zero(t, snap.TotalMachines)
	assert.True(t, snap.ClaimableReward.IsZero())
	assert.Nil(t, snap.NextClaimTime)
}

func TestStatus(t *testing.T) {
	svc, gdb, clock := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, gdb, "alice")
	claimed := clock.Now().Add(-time.Hour)
	testutil.CreateOwnedMachine(t, gdb, user, "m1", clock.Now().Add(-2*time.Hour), nil)
	testutil.CreateOwnedMachine(t, gdb, user, "m3", clock.Now().Add(-2*time.Hour), &claimed)

	snap, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.TotalMachines)
	assert.Equal(t, 1, snap.ClaimableMachines)
	testutil.RequireAmount(t, "0.5", snap.ClaimableReward)
	require.NotNil(t, snap.NextClaimTime)
	assert.True(t, claimed.Add(CycleLength).Equal(*snap.NextClaimTime))

	_, err = svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOwnedMachines_SkipsUnknownCatalogEntries(t *testing.T) {
	svc, gdb, clock := newTestService(t)
	user := testutil.CreateUser(t, gdb, "bob")
	testutil.CreateOwnedMachine(t, gdb, user, "m2", clock.Now(), nil)
	testutil.CreateOwnedMachine(t, gdb, user, "retired", clock.Now(), nil)

	states, err := svc.OwnedMachines(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "m2", states[0].Machine.ID)
}
