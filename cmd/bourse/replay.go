package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"bourse/internal/engine"
	"bourse/internal/exchange"
	"bourse/internal/service"

	"github.com/rs/zerolog/log"
)

// command is one line of a replay file.
type command struct {
	Op string `json:"op"` // register | cancel | list | snapshot
	service.RegisterRequest
	ID    string `json:"id,omitempty"`
	Depth int    `json:"depth,omitempty"`
}

type orderView struct {
	ID            string                  `json:"id"`
	ShareholderID string                  `json:"shareholderId"`
	Side          engine.Side             `json:"side"`
	UnitValue     string                  `json:"unitValue"`
	Shares        uint64                  `json:"shares"`
	TotalShares   uint64                  `json:"totalShares"`
	Status        engine.Status           `json:"status"`
	Expiration    engine.ExpirationPolicy `json:"expirationType"`
}

func viewOf(o engine.Order) orderView {
	return orderView{
		ID:            o.ID(),
		ShareholderID: o.ShareholderID(),
		Side:          o.Side(),
		UnitValue:     o.UnitValue().String(),
		Shares:        o.Shares(),
		TotalShares:   o.TotalShares(),
		Status:        o.Status(),
		Expiration:    o.Expiration(),
	}
}

func viewsOf(orders []engine.Order) []orderView {
	out := make([]orderView, len(orders))
	for i, o := range orders {
		out[i] = viewOf(o)
	}
	return out
}

type levelView struct {
	Price  string `json:"price"`
	Shares uint64 `json:"shares"`
	Orders int    `json:"orders"`
}

func levelsOf(levels []engine.Level) []levelView {
	out := make([]levelView, len(levels))
	for i, l := range levels {
		out[i] = levelView{Price: l.Price.String(), Shares: l.Shares, Orders: l.Orders}
	}
	return out
}

type matchView struct {
	Order  orderView `json:"order"`
	Shares uint64    `json:"shares"`
	Price  string    `json:"price"`
}

// reply is one output line, the outcome of the command on the same line
// number of the input.
type reply struct {
	Line     int         `json:"line"`
	Op       string      `json:"op"`
	Error    string      `json:"error,omitempty"`
	Order    *orderView  `json:"order,omitempty"`
	Matches  []matchView `json:"matches,omitempty"`
	Expired  []orderView `json:"expired,omitempty"`
	Orders   []orderView `json:"orders,omitempty"`
	Bids     []levelView `json:"bids,omitempty"`
	Asks     []levelView `json:"asks,omitempty"`
	Notional string      `json:"notional,omitempty"`
}

type replayer struct {
	svc *service.OrderService
	ex  *exchange.Exchange
}

// replay runs every command read from r and writes one JSON reply per
// command to w. A failing command is reported in its reply and does not stop
// the replay; only I/O errors and ctx do.
func (rp *replayer) replay(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	enc := json.NewEncoder(w)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var cmd command
		out := reply{Line: line}
		if err := json.Unmarshal(raw, &cmd); err != nil {
			out.Error = fmt.Sprintf("decoding command: %v", err)
		} else {
			out.Op = cmd.Op
			if err := rp.apply(ctx, cmd, &out); err != nil {
				out.Error = err.Error()
			}
		}
		if out.Error != "" {
			log.Warn().Int("line", line).Str("op", out.Op).Str("error", out.Error).Msg("command failed")
		}
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("writing reply: %w", err)
		}
	}
	return scanner.Err()
}

func (rp *replayer) apply(ctx context.Context, cmd command, out *reply) error {
	switch cmd.Op {
	case "register":
		result, err := rp.svc.Register(ctx, cmd.RegisterRequest)
		if err != nil {
			return err
		}
		order := viewOf(result.Order)
		out.Order = &order
		for _, m := range result.Matches {
			out.Matches = append(out.Matches, matchView{Order: viewOf(m.Order), Shares: m.Shares, Price: m.Price.String()})
		}
		out.Expired = viewsOf(result.Expired)
		if len(result.Matches) > 0 {
			out.Notional = result.Notional().String()
		}
	case "cancel":
		order, err := rp.svc.Cancel(ctx, cmd.Security, cmd.ID)
		if err != nil {
			return err
		}
		view := viewOf(order)
		out.Order = &view
	case "list":
		orders, err := rp.svc.List(ctx, cmd.ShareholderID)
		if err != nil {
			return err
		}
		out.Orders = viewsOf(orders)
	case "snapshot":
		snap, err := rp.ex.Snapshot(ctx, cmd.Security, cmd.Depth)
		if err != nil {
			return err
		}
		out.Bids = levelsOf(snap.BidDepth)
		out.Asks = levelsOf(snap.AskDepth)
	default:
		return fmt.Errorf("unknown op %q", cmd.Op)
	}
	return nil
}
