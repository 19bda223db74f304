package exchange

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"bourse/internal/common"
	"bourse/internal/engine"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

var (
	ErrUnknownSecurity  = errors.New("unknown security")
	ErrSecurityExists   = errors.New("security already listed")
	ErrExchangeClosed   = errors.New("exchange is shut down")
	ErrExchangeNotReady = errors.New("exchange is not running")
)

type Config struct {
	Securities []string
	// Tasks buffered per book before callers block.
	QueueSize int
	Clock     common.Clock
}

// Exchange runs one OrderBook per security. Each book is owned by a worker
// goroutine, so calls for the same security are applied one at a time in
// arrival order while different securities proceed in parallel.
type Exchange struct {
	clock     common.Clock
	queueSize int

	t       tomb.Tomb
	running atomic.Bool

	mu    sync.RWMutex
	books map[string]*bookWorker
}

func New(cfg Config) *Exchange {
	clock := cfg.Clock
	if clock == nil {
		clock = common.SystemClock{}
	}
	ex := &Exchange{
		clock:     clock,
		queueSize: cfg.QueueSize,
		books:     make(map[string]*bookWorker),
	}
	for _, security := range cfg.Securities {
		ex.books[security] = newBookWorker(security, engine.NewOrderBook(clock), ex.queueSize)
	}
	return ex
}

// Start launches the book workers. They stop when ctx is done or Shutdown is
// called.
func (ex *Exchange) Start(ctx context.Context) {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if !ex.running.CompareAndSwap(false, true) {
		return
	}
	for _, w := range ex.books {
		ex.t.Go(func() error { return w.run(&ex.t) })
	}
	ex.t.Go(func() error {
		select {
		case <-ctx.Done():
			ex.t.Kill(nil)
		case <-ex.t.Dying():
		}
		return nil
	})

	log.Info().Int("books", len(ex.books)).Msg("exchange running")
}

// Shutdown stops every worker. Calls waiting on a book fail with
// ErrExchangeClosed.
func (ex *Exchange) Shutdown() {
	log.Info().Msg("exchange shutting down")
	ex.t.Kill(nil)
}

// Wait blocks until every worker has exited. It returns at once if the
// exchange was never started.
func (ex *Exchange) Wait() error {
	if !ex.running.Load() {
		return nil
	}
	return ex.t.Wait()
}

// List adds a book for security. It may be called before or after Start.
func (ex *Exchange) List(security string) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if _, ok := ex.books[security]; ok {
		return ErrSecurityExists
	}
	w := newBookWorker(security, engine.NewOrderBook(ex.clock), ex.queueSize)
	if ex.running.Load() {
		select {
		case <-ex.t.Dying():
			return ErrExchangeClosed
		default:
		}
		ex.t.Go(func() error { return w.run(&ex.t) })
	}
	ex.books[security] = w
	log.Info().Str("security", security).Msg("security listed")
	return nil
}

// Securities returns the listed securities, sorted.
func (ex *Exchange) Securities() []string {
	ex.mu.RLock()
	defer ex.mu.RUnlock()

	out := make([]string, 0, len(ex.books))
	for s := range ex.books {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (ex *Exchange) worker(security string) (*bookWorker, error) {
	ex.mu.RLock()
	defer ex.mu.RUnlock()

	w, ok := ex.books[security]
	if !ok {
		return nil, ErrUnknownSecurity
	}
	return w, nil
}

// do runs fn on security's worker and waits for it. ctx only bounds the time
// spent queueing: once fn is accepted it runs to completion and do reports
// success.
func (ex *Exchange) do(ctx context.Context, security string, fn task) error {
	if !ex.running.Load() {
		return ErrExchangeNotReady
	}
	w, err := ex.worker(security)
	if err != nil {
		return err
	}
	if !ex.t.Alive() {
		return ErrExchangeClosed
	}

	done := make(chan struct{})
	select {
	case w.tasks <- func(book *engine.OrderBook) {
		defer close(done)
		fn(book)
	}:
	case <-ctx.Done():
		return ctx.Err()
	case <-ex.t.Dying():
		return ErrExchangeClosed
	}

	select {
	case <-done:
		return nil
	case <-ex.t.Dying():
		// The worker may have picked the task up right before dying. Once
		// every worker is gone, done tells whether it ran.
		<-ex.t.Dead()
		select {
		case <-done:
			return nil
		default:
			return ErrExchangeClosed
		}
	}
}

// Submit executes order against security's book.
func (ex *Exchange) Submit(ctx context.Context, security string, order *engine.Order) (engine.Result, error) {
	var (
		result engine.Result
		err    error
	)
	if doErr := ex.do(ctx, security, func(book *engine.OrderBook) {
		result, err = book.ExecuteOrder(order)
	}); doErr != nil {
		return engine.Result{}, doErr
	}
	if err != nil {
		return engine.Result{}, err
	}

	log.Debug().
		Str("security", security).
		Str("order", result.Order.ID()).
		Stringer("side", result.Order.Side()).
		Stringer("status", result.Order.Status()).
		Int("matches", len(result.Matches)).
		Int("expired", len(result.Expired)).
		Uint64("filled", result.FilledShares()).
		Msg("order executed")
	return result, nil
}

// Cancel removes a resting order from security's book.
func (ex *Exchange) Cancel(ctx context.Context, security, id string) (engine.Order, error) {
	var (
		order engine.Order
		err   error
	)
	if doErr := ex.do(ctx, security, func(book *engine.OrderBook) {
		order, err = book.CancelOrder(id)
	}); doErr != nil {
		return engine.Order{}, doErr
	}
	return order, err
}

// Seed loads persisted resting orders into security's book.
func (ex *Exchange) Seed(ctx context.Context, security string, orders []*engine.Order) error {
	var err error
	if doErr := ex.do(ctx, security, func(book *engine.OrderBook) {
		err = book.Seed(orders)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot is a consistent copy of one book.
type Snapshot struct {
	Security string
	Bids     []engine.Order // Oldest first
	Asks     []engine.Order // Oldest first
	BidDepth []engine.Level // Best price first
	AskDepth []engine.Level // Best price first
}

// Snapshot copies security's book. depth limits the aggregated levels, zero
// or less means all.
func (ex *Exchange) Snapshot(ctx context.Context, security string, depth int) (Snapshot, error) {
	snap := Snapshot{Security: security}
	err := ex.do(ctx, security, func(book *engine.OrderBook) {
		snap.Bids = book.Orders(engine.Buy)
		snap.Asks = book.Orders(engine.Sell)
		snap.BidDepth = book.Depth(engine.Buy, depth)
		snap.AskDepth = book.Depth(engine.Sell, depth)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
