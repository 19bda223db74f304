package engine

import (
	"time"

	"bourse/internal/common"

	"github.com/tidwall/btree"
)

// Orders sat on one side of the book, oldest first.
type orderQueue = btree.BTreeG[*Order]

// OrderBook holds the resting orders of a single security and matches
// incoming orders against them.
//
// An OrderBook is not safe for concurrent use. Callers must serialise
// AddOrder, RemoveOrder, CancelOrder and ExecuteOrder on the same book, see
// the exchange package.
type OrderBook struct {
	clock common.Clock

	bids *orderQueue
	asks *orderQueue

	// Every resting order by id, across both sides.
	index map[string]*Order
	// Arrival counter, breaks ties between equal creation times.
	seq uint64
}

func NewOrderBook(clock common.Clock) *OrderBook {
	if clock == nil {
		clock = common.SystemClock{}
	}
	// Sorted oldest first. The btree is only ever touched by the book's owner.
	opts := btree.Options{NoLocks: true}
	return &OrderBook{
		clock: clock,
		bids:  btree.NewBTreeGOptions(olderFirst, opts),
		asks:  btree.NewBTreeGOptions(olderFirst, opts),
		index: make(map[string]*Order),
	}
}

func olderFirst(a, b *Order) bool {
	if a.createdAt.Equal(b.createdAt) {
		return a.seq < b.seq
	}
	return a.createdAt.Before(b.createdAt)
}

func (book *OrderBook) queue(side Side) *orderQueue {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// AddOrder rests order on its side of the book. An order created at T goes
// after every resting order created at or before T. The book takes ownership
// of order; callers must not modify it while it rests.
func (book *OrderBook) AddOrder(order *Order) error {
	if order.status.IsTerminal() {
		return ErrOrderTerminal
	}
	if _, ok := book.index[order.id]; ok {
		return ErrDuplicateOrder
	}
	book.insert(order)
	return nil
}

// Seed rebuilds the book from previously persisted resting orders.
func (book *OrderBook) Seed(orders []*Order) error {
	for _, o := range orders {
		if err := book.AddOrder(o); err != nil {
			return err
		}
	}
	return nil
}

func (book *OrderBook) insert(order *Order) {
	book.seq++
	order.seq = book.seq
	book.queue(order.side).Set(order)
	book.index[order.id] = order
}

// RemoveOrder removes the resting order with order's id. Removing an order that
// is not in the book is a caller bug; it is a no-op reported by returning
// false.
func (book *OrderBook) RemoveOrder(order *Order) bool {
	resting, ok := book.index[order.id]
	if !ok {
		return false
	}
	book.remove(resting)
	return true
}

func (book *OrderBook) remove(resting *Order) {
	book.queue(resting.side).Delete(resting)
	delete(book.index, resting.id)
}

// CancelOrder removes a resting order and marks it Canceled.
func (book *OrderBook) CancelOrder(id string) (Order, error) {
	resting, ok := book.index[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	book.remove(resting)
	if err := resting.Cancel(); err != nil {
		return Order{}, err
	}
	return *resting, nil
}

// planned is a fill decided during the scan, applied only once the incoming
// order's disposition is known.
type planned struct {
	resting *Order
	qty     uint64
}

// ExecuteOrder matches order against the opposite side of the book.
//
// Resting orders are walked oldest first. A DayOrder or GoodTillDate order
// whose expiration date is before now is dropped as soon as the scan reaches
// it, whatever the outcome of the call. Any other resting order trades if its
// price crosses order's limit, consuming min(remaining, resting) shares; there
// is no price ranking between crossing orders, only time priority.
//
// Once the scan ends, order is:
//   - Filled when nothing remains, and never added to the book.
//   - Canceled when it is FillOrKill and could not be filled entirely. No
//     resting order is touched in that case.
//   - PartiallyFilled or still Pending otherwise, and rests in the book.
//
// If order rests, the book takes ownership of it. now is read once per call.
// ExecuteOrder fails only when order is already terminal or already rests in
// the book.
func (book *OrderBook) ExecuteOrder(order *Order) (Result, error) {
	if order.status.IsTerminal() {
		return Result{}, ErrOrderTerminal
	}
	if _, ok := book.index[order.id]; ok {
		return Result{}, ErrDuplicateOrder
	}

	now := book.clock.Now()
	if order.IsExpired(now) {
		// It would be dropped the moment any scan reached it.
		order.status = Canceled
		return Result{Order: *order}, nil
	}

	plan, expired := book.scan(order, now)

	var result Result
	for _, o := range expired {
		book.remove(o)
		o.status = Canceled
		result.Expired = append(result.Expired, *o)
	}

	if order.expiration == FillOrKill && !fillsCompletely(order, plan) {
		order.status = Canceled
		result.Order = *order
		return result, nil
	}

	result.Matches = book.commit(order, plan, now)
	if order.shares > 0 {
		book.insert(order)
	}
	result.Order = *order
	return result, nil
}

// scan walks the opposite side oldest first and plans the fills for order
// without modifying anything. It also collects expired orders passed on the
// way. The walk stops as soon as order would be fully consumed.
func (book *OrderBook) scan(order *Order, now time.Time) ([]planned, []*Order) {
	var (
		plan      []planned
		expired   []*Order
		remaining = order.shares
	)
	book.queue(order.side.Opposite()).Scan(func(resting *Order) bool {
		if resting.IsExpired(now) {
			expired = append(expired, resting)
			return true
		}
		if !order.Crosses(resting) {
			return true
		}
		qty := min(remaining, resting.shares)
		plan = append(plan, planned{resting: resting, qty: qty})
		remaining -= qty
		return remaining > 0
	})
	return plan, expired
}

func fillsCompletely(order *Order, plan []planned) bool {
	var total uint64
	for _, p := range plan {
		total += p.qty
	}
	return total == order.shares
}

// commit applies plan to both order and the resting orders. Filled resting
// orders leave the book, partially filled ones keep their place.
func (book *OrderBook) commit(order *Order, plan []planned, now time.Time) []Match {
	matches := make([]Match, 0, len(plan))
	for _, p := range plan {
		p.resting.fill(p.qty, now)
		order.fill(p.qty, now)
		if p.resting.status == Filled {
			book.remove(p.resting)
		}
		matches = append(matches, Match{
			Order:  *p.resting,
			Shares: p.qty,
			Price:  p.resting.unitValue,
		})
	}
	return matches
}

// Get returns a copy of the resting order with the given id.
func (book *OrderBook) Get(id string) (Order, bool) {
	o, ok := book.index[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Orders returns copies of the resting orders on side, oldest first.
func (book *OrderBook) Orders(side Side) []Order {
	q := book.queue(side)
	orders := make([]Order, 0, q.Len())
	q.Scan(func(o *Order) bool {
		orders = append(orders, *o)
		return true
	})
	return orders
}

func (book *OrderBook) Len(side Side) int { return book.queue(side).Len() }

// Level aggregates the resting shares at one price.
type Level struct {
	Price  common.Amount
	Shares uint64
	Orders int
}

// Depth aggregates the side into price levels, best price first: highest bid
// or lowest ask. A limit of zero or less returns every level.
func (book *OrderBook) Depth(side Side, limit int) []Level {
	// Levels comparator only accounts for price, best first.
	levels := btree.NewBTreeGOptions(func(a, b *Level) bool {
		if side == Buy {
			return a.Price.GreaterThan(b.Price)
		}
		return a.Price.LessThan(b.Price)
	}, btree.Options{NoLocks: true})

	book.queue(side).Scan(func(o *Order) bool {
		level, ok := levels.Get(&Level{Price: o.unitValue})
		if !ok {
			level = &Level{Price: o.unitValue}
			levels.Set(level)
		}
		level.Shares += o.shares
		level.Orders++
		return true
	})

	var out []Level
	levels.Scan(func(l *Level) bool {
		out = append(out, *l)
		return limit <= 0 || len(out) < limit
	})
	return out
}
