package engine

import "bourse/internal/common"

// Match is one execution between the incoming order and a resting order.
type Match struct {
	Order  Order         // Resting order after the execution
	Shares uint64        // Shares executed
	Price  common.Amount // Execution price, the resting order's limit
}

// Result is what a single ExecuteOrder call did. It holds copies; the book
// keeps its own orders. Nothing here is persisted by the engine.
type Result struct {
	// Incoming order after matching.
	Order Order
	// Resting orders it traded with, in execution order.
	Matches []Match
	// Resting orders dropped by the scan because they had expired.
	Expired []Order
}

func (r Result) FilledShares() uint64 {
	var n uint64
	for _, m := range r.Matches {
		n += m.Shares
	}
	return n
}

// Notional is the traded value, summed at each execution price.
func (r Result) Notional() common.Amount {
	total := common.NewAmountFromInt(0)
	for _, m := range r.Matches {
		total = total.Add(m.Price.Mul(m.Shares))
	}
	return total
}

func (r Result) MatchedOrders() []Order {
	orders := make([]Order, len(r.Matches))
	for i, m := range r.Matches {
		orders[i] = m.Order
	}
	return orders
}
