package engine

import (
	"fmt"
	"time"

	"bourse/internal/common"

	"github.com/google/uuid"
)

// Order is a single buy or sell order for a security. Orders can only be built
// through CreateFromPrimitive or NewOrder, which enforce the invariants between
// the expiration policy and the order dates. Shares and status change in place
// while the order trades in an OrderBook.
type Order struct {
	id            string
	shareholderID string
	side          Side
	unitValue     common.Amount
	shares        uint64 // Remaining quantity
	totalShares   uint64 // Quantity requested
	expiration    ExpirationPolicy
	expiresAt     time.Time // Zero when the order has no expiration date
	createdAt     time.Time
	filledAt      time.Time // Zero until filled
	status        Status

	// Arrival sequence assigned by the OrderBook, breaks creation time ties.
	seq uint64
}

// Props are the primitive fields an Order is built from, typically coming
// from a registration request or the persistence layer.
type Props struct {
	ShareholderID string
	Status        Status
	Side          Side
	UnitValue     string
	Shares        uint64
	TotalShares   uint64 // Defaults to Shares
	Expiration    ExpirationPolicy
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	FilledAt      *time.Time
}

// CreateFromPrimitive validates props and builds an Order. An empty id gets a
// random UUID. Any broken invariant is returned as an *InvalidPropsError.
func CreateFromPrimitive(props Props, id string) (*Order, error) {
	if id == "" {
		id = uuid.NewString()
	}

	if props.ShareholderID == "" {
		return nil, newInvalidProps(RuleMissingShareholder)
	}
	if !props.Side.Valid() {
		return nil, newInvalidProps(RuleInvalidSide)
	}
	if !props.Status.Valid() {
		return nil, newInvalidProps(RuleInvalidStatus)
	}
	if !props.Expiration.Valid() {
		return nil, newInvalidProps(RuleInvalidExpirationPolicy)
	}
	if props.CreatedAt.IsZero() {
		return nil, newInvalidProps(RuleMissingCreationDate)
	}

	unitValue, err := common.NewAmount(props.UnitValue)
	if err != nil || !unitValue.IsPositive() {
		return nil, newInvalidProps(RuleInvalidUnitValue)
	}

	total := props.TotalShares
	if total == 0 {
		total = props.Shares
	}
	// A filled order loaded back from storage has nothing left to trade.
	if total == 0 || props.Shares > total || (props.Shares == 0 && props.Status != Filled) {
		return nil, newInvalidProps(RuleInvalidShares)
	}

	o := &Order{
		id:            id,
		shareholderID: props.ShareholderID,
		side:          props.Side,
		unitValue:     unitValue,
		shares:        props.Shares,
		totalShares:   total,
		expiration:    props.Expiration,
		createdAt:     props.CreatedAt,
		status:        props.Status,
	}
	if props.ExpiresAt != nil {
		o.expiresAt = *props.ExpiresAt
	}
	if props.FilledAt != nil {
		o.filledAt = *props.FilledAt
	}

	if err := o.validateExpirationCoherence(); err != nil {
		return nil, err
	}
	if err := o.validateDatesCorrelation(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewOrder builds a freshly registered, Pending order created at now.
func NewOrder(shareholderID string, side Side, unitValue string, shares uint64,
	expiration ExpirationPolicy, expiresAt *time.Time, now time.Time) (*Order, error) {
	return CreateFromPrimitive(Props{
		ShareholderID: shareholderID,
		Status:        Pending,
		Side:          side,
		UnitValue:     unitValue,
		Shares:        shares,
		Expiration:    expiration,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
	}, "")
}

func (o *Order) validateExpirationCoherence() error {
	switch o.expiration {
	case DayOrder:
		if o.expiresAt.IsZero() {
			return newInvalidProps(RuleOrderWithoutExpirationDate)
		}
		if !sameDay(o.createdAt, o.expiresAt) {
			return newInvalidProps(RuleDayOrderNotInSameDay)
		}
	case GoodTillDate:
		if o.expiresAt.IsZero() {
			return newInvalidProps(RuleOrderWithoutExpirationDate)
		}
	case FillOrKill, GoodTillCancelled:
		if !o.expiresAt.IsZero() {
			return newInvalidProps(RuleOrderWithExpirationDate)
		}
	default:
		panic(fmt.Sprintf("engine: unhandled expiration policy %d", o.expiration))
	}
	return nil
}

func (o *Order) validateDatesCorrelation() error {
	if !o.expiresAt.IsZero() && o.expiresAt.Before(o.createdAt) {
		return newInvalidProps(RuleExpirationDateBeforeCreation)
	}
	if !o.filledAt.IsZero() && o.filledAt.Before(o.createdAt) {
		return newInvalidProps(RuleFilledDateBeforeCreation)
	}
	if !o.filledAt.IsZero() && !o.expiresAt.IsZero() && o.expiresAt.Before(o.filledAt) {
		return newInvalidProps(RuleFilledDateBeforeExpirationDate)
	}
	return nil
}

// sameDay compares calendar days in the location of the creation date.
func sameDay(created, other time.Time) bool {
	y1, m1, d1 := created.Date()
	y2, m2, d2 := other.In(created.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (o *Order) ID() string                   { return o.id }
func (o *Order) ShareholderID() string        { return o.shareholderID }
func (o *Order) Side() Side                   { return o.side }
func (o *Order) UnitValue() common.Amount     { return o.unitValue }
func (o *Order) Shares() uint64               { return o.shares }
func (o *Order) TotalShares() uint64          { return o.totalShares }
func (o *Order) FilledShares() uint64         { return o.totalShares - o.shares }
func (o *Order) Expiration() ExpirationPolicy { return o.expiration }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) Status() Status               { return o.status }

func (o *Order) ExpiresAt() (time.Time, bool) { return o.expiresAt, !o.expiresAt.IsZero() }
func (o *Order) FilledAt() (time.Time, bool)  { return o.filledAt, !o.filledAt.IsZero() }

// CreatedAtTimestamp is the creation time in epoch milliseconds.
func (o *Order) CreatedAtTimestamp() int64 { return o.createdAt.UnixMilli() }

// ExpirationTimestamp is the expiration time in epoch milliseconds, if any.
func (o *Order) ExpirationTimestamp() (int64, bool) {
	if o.expiresAt.IsZero() {
		return 0, false
	}
	return o.expiresAt.UnixMilli(), true
}

// IsExpired reports whether a DayOrder or GoodTillDate order's expiration date
// is strictly before now. Other policies never expire by date.
func (o *Order) IsExpired(now time.Time) bool {
	return o.expiration.Expires() && !o.expiresAt.IsZero() && o.expiresAt.Before(now)
}

// Crosses reports whether resting, an order on the opposite side, can trade
// with o at o's limit: a bid crosses an ask when bid >= ask.
func (o *Order) Crosses(resting *Order) bool {
	if o.side == resting.side {
		return false
	}
	if o.side == Buy {
		return resting.unitValue.LessThanOrEqual(o.unitValue)
	}
	return resting.unitValue.GreaterThanOrEqual(o.unitValue)
}

// Cancel moves a live order to Canceled.
func (o *Order) Cancel() error {
	if o.status.IsTerminal() {
		return ErrOrderTerminal
	}
	o.status = Canceled
	return nil
}

// fill consumes qty shares and advances the status. The construction
// invariants are not re-checked, fills never touch the validated dates.
func (o *Order) fill(qty uint64, now time.Time) {
	o.shares -= qty
	if o.shares == 0 {
		o.status = Filled
		o.filledAt = now
		return
	}
	o.status = PartiallyFilled
}

func (o Order) String() string {
	return fmt.Sprintf("%s %s %d/%d @ %s %s %s",
		o.id, o.side, o.shares, o.totalShares, o.unitValue, o.expiration, o.status)
}
