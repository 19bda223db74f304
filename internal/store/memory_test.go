package store_test

import (
	"context"
	"testing"
	"time"

	"bourse/internal/engine"
	"bourse/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, shareholder string, createdAt time.Time) *engine.Order {
	t.Helper()
	order, err := engine.NewOrder(shareholder, engine.Buy, "10", 10, engine.GoodTillCancelled, nil, createdAt)
	require.NoError(t, err)
	return order
}

func TestMemory_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	order := newOrder(t, "alice", testNow)
	require.NoError(t, repo.Save(ctx, "PETR4", *order))

	got, err := repo.Get(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, order.ID(), got.ID())

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestMemory_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	order := newOrder(t, "alice", testNow)
	require.NoError(t, repo.Save(ctx, "PETR4", *order))
	require.NoError(t, order.Cancel())
	require.NoError(t, repo.Save(ctx, "PETR4", *order))

	got, err := repo.Get(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, engine.Canceled, got.Status())

	resting, err := repo.ListResting(ctx, "PETR4")
	require.NoError(t, err)
	assert.Empty(t, resting)
}

func TestMemory_ListByShareholder(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	newer := newOrder(t, "alice", testNow)
	older := newOrder(t, "alice", testNow.Add(-time.Hour))
	other := newOrder(t, "bob", testNow)
	require.NoError(t, repo.Save(ctx, "PETR4", *newer, *other))
	require.NoError(t, repo.Save(ctx, "VALE3", *older))

	orders, err := repo.ListByShareholder(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, older.ID(), orders[0].ID())
	assert.Equal(t, newer.ID(), orders[1].ID())
}

func TestMemory_ListRestingBySecurity(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	petr := newOrder(t, "alice", testNow)
	vale := newOrder(t, "alice", testNow)
	require.NoError(t, repo.Save(ctx, "PETR4", *petr))
	require.NoError(t, repo.Save(ctx, "VALE3", *vale))

	resting, err := repo.ListResting(ctx, "PETR4")
	require.NoError(t, err)
	require.Len(t, resting, 1)
	assert.Equal(t, petr.ID(), resting[0].ID())
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := store.NewMemory()
	assert.ErrorIs(t, repo.Save(ctx, "PETR4"), context.Canceled)
	_, err := repo.ListResting(ctx, "PETR4")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_ListKeepsArrivalOrderOnTies(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	props := engine.Props{
		ShareholderID: "alice",
		Status:        engine.Pending,
		Side:          engine.Sell,
		UnitValue:     "10",
		Shares:        5,
		Expiration:    engine.GoodTillCancelled,
		CreatedAt:     testNow,
	}
	first, err := engine.CreateFromPrimitive(props, "zzz")
	require.NoError(t, err)
	second, err := engine.CreateFromPrimitive(props, "aaa")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, "PETR4", *first))
	require.NoError(t, repo.Save(ctx, "PETR4", *second))
	// Saving again must not move the order behind later arrivals.
	require.NoError(t, repo.Save(ctx, "PETR4", *first))

	resting, err := repo.ListResting(ctx, "PETR4")
	require.NoError(t, err)
	require.Len(t, resting, 2)
	assert.Equal(t, "zzz", resting[0].ID())
	assert.Equal(t, "aaa", resting[1].ID())

	orders, err := repo.ListByShareholder(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "zzz", orders[0].ID())
	assert.Equal(t, "aaa", orders[1].ID())
}
