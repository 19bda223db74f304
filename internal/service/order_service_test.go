package service_test

import (
	"context"
	"testing"
	"time"

	"bourse/internal/common"
	"bourse/internal/engine"
	"bourse/internal/events"
	"bourse/internal/exchange"
	"bourse/internal/service"
	"bourse/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *service.OrderService
	repo     *store.Memory
	recorder *events.Recorder
	clock    *stepClock
}

// stepClock advances a millisecond on every read so registrations keep
// their arrival order.
type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func setup(t *testing.T, repo *store.Memory) fixture {
	t.Helper()
	if repo == nil {
		repo = store.NewMemory()
	}
	clock := &stepClock{now: testNow}
	// The exchange evaluates expiry at a fixed instant; only creation dates move.
	ex := exchange.New(exchange.Config{
		Securities: []string{"PETR4"},
		Clock:      common.FixedClock(testNow.Add(time.Hour)),
	})
	ex.Start(context.Background())
	t.Cleanup(func() {
		ex.Shutdown()
		require.NoError(t, ex.Wait())
	})

	recorder := &events.Recorder{}
	return fixture{
		svc:      service.NewOrderService(ex, repo, recorder, clock),
		repo:     repo,
		recorder: recorder,
		clock:    clock,
	}
}

func request(shareholder string, side engine.Side, price string, qty uint64) service.RegisterRequest {
	return service.RegisterRequest{
		Security:      "PETR4",
		ShareholderID: shareholder,
		Side:          side,
		UnitValue:     price,
		Shares:        qty,
		Expiration:    engine.GoodTillCancelled,
	}
}

func TestOrderService_Register(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	sell, err := f.svc.Register(ctx, request("alice", engine.Sell, "10", 100))
	require.NoError(t, err)
	assert.Equal(t, engine.Pending, sell.Order.Status())
	assert.NotEmpty(t, sell.Order.ID())

	buy, err := f.svc.Register(ctx, request("bob", engine.Buy, "12", 30))
	require.NoError(t, err)
	assert.Equal(t, engine.Filled, buy.Order.Status())
	assert.True(t, buy.Notional().Equal(common.NewAmountFromInt(300)))

	stored, err := f.repo.Get(ctx, sell.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, engine.PartiallyFilled, stored.Status())
	assert.Equal(t, uint64(70), stored.Shares())

	assert.Equal(t, []events.Type{
		events.OrderRegistered,
		events.OrderRegistered,
		events.OrderMatched,
		events.OrderPartiallyFilled,
		events.OrderFilled,
	}, f.recorder.Types())
}

func TestOrderService_RegisterInvalid(t *testing.T) {
	f := setup(t, nil)

	req := request("alice", engine.Buy, "10", 10)
	req.Expiration = engine.DayOrder
	_, err := f.svc.Register(context.Background(), req)

	var perr *engine.InvalidPropsError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, engine.RuleOrderWithoutExpirationDate, perr.Rule)
	assert.Empty(t, f.recorder.Events())
}

func TestOrderService_RegisterUnknownSecurity(t *testing.T) {
	f := setup(t, nil)

	req := request("alice", engine.Buy, "10", 10)
	req.Security = "XXXX3"
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, exchange.ErrUnknownSecurity)

	orders, err := f.svc.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_Cancel(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	result, err := f.svc.Register(ctx, request("alice", engine.Buy, "10", 10))
	require.NoError(t, err)

	canceled, err := f.svc.Cancel(ctx, "PETR4", result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, engine.Canceled, canceled.Status())

	stored, err := f.repo.Get(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, engine.Canceled, stored.Status())

	_, err = f.svc.Cancel(ctx, "PETR4", result.Order.ID())
	assert.ErrorIs(t, err, engine.ErrOrderNotFound)
}

func TestOrderService_List(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	first, err := f.svc.Register(ctx, request("alice", engine.Buy, "10", 10))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, request("bob", engine.Buy, "10", 10))
	require.NoError(t, err)
	second, err := f.svc.Register(ctx, request("alice", engine.Buy, "11", 10))
	require.NoError(t, err)

	orders, err := f.svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.Order.ID(), orders[0].ID())
	assert.Equal(t, second.Order.ID(), orders[1].ID())
}

func TestOrderService_Restore(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()

	before := setup(t, repo)
	resting, err := before.svc.Register(ctx, request("alice", engine.Sell, "10", 10))
	require.NoError(t, err)

	// A fresh exchange over the same repository picks the resting order up.
	after := setup(t, repo)
	n, err := after.svc.Restore(ctx, "PETR4")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	result, err := after.svc.Register(ctx, request("bob", engine.Buy, "10", 10))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, resting.Order.ID(), result.Matches[0].Order.ID())
}

func TestOrderService_RestoreKeepsArrivalOrderOnTies(t *testing.T) {
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

	f := setup(t, repo)
	n, err := f.svc.Restore(ctx, "PETR4")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	result, err := f.svc.Register(ctx, request("bob", engine.Buy, "10", 5))
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "zzz", result.Matches[0].Order.ID())
}
