package engine

import "fmt"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Opposite returns the side an incoming order of side s matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	}
	return "Unknown"
}

type Status int

const (
	// Pending orders have not traded yet. Newly registered orders start here.
	Pending Status = iota
	// PartiallyFilled orders traded some, but not all, of their shares and
	// may still rest in the book.
	PartiallyFilled
	Filled
	Canceled
)

func (s Status) Valid() bool { return s >= Pending && s <= Canceled }

// IsTerminal reports whether an order in this status can never trade again.
func (s Status) IsTerminal() bool { return s == Filled || s == Canceled }

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Canceled:
		return "Canceled"
	}
	return "Unknown"
}

type ExpirationPolicy int

const (
	// GoodTillCancelled orders rest until filled or cancelled. They carry no
	// expiration date.
	GoodTillCancelled ExpirationPolicy = iota
	// GoodTillDate orders rest until their expiration date passes.
	GoodTillDate
	// DayOrder orders expire at the end of the day they were created on.
	DayOrder
	// FillOrKill orders must be filled entirely on submission or are
	// cancelled. They never rest in the book.
	FillOrKill
)

func (p ExpirationPolicy) Valid() bool { return p >= GoodTillCancelled && p <= FillOrKill }

// Expires reports whether orders under this policy are dropped from the book
// once their expiration date has passed.
func (p ExpirationPolicy) Expires() bool { return p == GoodTillDate || p == DayOrder }

func (p ExpirationPolicy) String() string {
	switch p {
	case GoodTillCancelled:
		return "GoodTillCancelled"
	case GoodTillDate:
		return "GoodTillDate"
	case DayOrder:
		return "DayOrder"
	case FillOrKill:
		return "FillOrKill"
	}
	return "Unknown"
}

// ParseSide, ParseStatus and ParseExpirationPolicy accept the String() forms.

func ParseSide(s string) (Side, bool) {
	for _, v := range []Side{Buy, Sell} {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

func ParseStatus(s string) (Status, bool) {
	for _, v := range []Status{Pending, PartiallyFilled, Filled, Canceled} {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

func ParseExpirationPolicy(s string) (ExpirationPolicy, bool) {
	for _, v := range []ExpirationPolicy{GoodTillCancelled, GoodTillDate, DayOrder, FillOrKill} {
		if v.String() == s {
			return v, true
		}
	}
	return 0, false
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	v, ok := ParseSide(string(b))
	if !ok {
		return fmt.Errorf("unknown side %q", b)
	}
	*s = v
	return nil
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown status %q", b)
	}
	*s = v
	return nil
}

func (p ExpirationPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *ExpirationPolicy) UnmarshalText(b []byte) error {
	v, ok := ParseExpirationPolicy(string(b))
	if !ok {
		return fmt.Errorf("unknown expiration policy %q", b)
	}
	*p = v
	return nil
}
