package events

import (
	"encoding/json"

	"bourse/internal/common"
	"bourse/internal/engine"
)

type Type string

const (
	OrderRegistered      Type = "ORDER_REGISTERED"
	OrderMatched         Type = "ORDER_MATCHED"
	OrderFilled          Type = "ORDER_FILLED"
	OrderPartiallyFilled Type = "ORDER_PARTIALLY_FILLED"
	OrderCanceled        Type = "ORDER_CANCELED"
	OrderExpired         Type = "ORDER_EXPIRED"
)

// Payload is the state of an order when the event happened.
type Payload struct {
	ID                  string                  `json:"id"`
	ShareholderID       string                  `json:"shareholderId"`
	Side                engine.Side             `json:"side"`
	UnitValue           common.Amount           `json:"unitValue"`
	Shares              uint64                  `json:"shares"`
	TotalShares         uint64                  `json:"totalShares"`
	Status              engine.Status           `json:"status"`
	CreatedAtTimestamp  int64                   `json:"createdAtTimestamp"`
	Expiration          engine.ExpirationPolicy `json:"expirationType"`
	ExpirationTimestamp *int64                  `json:"expirationTimestamp"`
}

func NewPayload(o engine.Order) Payload {
	p := Payload{
		ID:                 o.ID(),
		ShareholderID:      o.ShareholderID(),
		Side:               o.Side(),
		UnitValue:          o.UnitValue(),
		Shares:             o.Shares(),
		TotalShares:        o.TotalShares(),
		Status:             o.Status(),
		CreatedAtTimestamp: o.CreatedAtTimestamp(),
		Expiration:         o.Expiration(),
	}
	if ts, ok := o.ExpirationTimestamp(); ok {
		p.ExpirationTimestamp = &ts
	}
	return p
}

// Execution details, only set on OrderMatched.
type Execution struct {
	Counterparty string        `json:"counterparty"`
	Shares       uint64        `json:"shares"`
	Price        common.Amount `json:"price"`
}

type Event struct {
	Type      Type       `json:"eventType"`
	Security  string     `json:"security"`
	Payload   Payload    `json:"payload"`
	Execution *Execution `json:"execution,omitempty"`
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func New(t Type, security string, o engine.Order) Event {
	return Event{Type: t, Security: security, Payload: NewPayload(o)}
}

// FromResult derives the events of one execution, in the order they
// happened: expired resting orders first, then each match followed by the
// resting order's new state, and last the incoming order's disposition.
// An incoming order that simply rests produces no event here.
func FromResult(security string, r engine.Result) []Event {
	var out []Event
	for _, o := range r.Expired {
		out = append(out, New(OrderExpired, security, o))
	}
	for _, m := range r.Matches {
		matched := New(OrderMatched, security, m.Order)
		matched.Execution = &Execution{
			Counterparty: r.Order.ID(),
			Shares:       m.Shares,
			Price:        m.Price,
		}
		out = append(out, matched, stateEvent(security, m.Order))
	}
	switch r.Order.Status() {
	case engine.Filled, engine.PartiallyFilled, engine.Canceled:
		out = append(out, stateEvent(security, r.Order))
	}
	return out
}

func stateEvent(security string, o engine.Order) Event {
	switch o.Status() {
	case engine.Filled:
		return New(OrderFilled, security, o)
	case engine.Canceled:
		return New(OrderCanceled, security, o)
	default:
		return New(OrderPartiallyFilled, security, o)
	}
}
