package exchange

import (
	"bourse/internal/engine"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultQueueSize = 128

// task is a unit of work run against a book by its worker.
type task = func(book *engine.OrderBook)

// bookWorker is the single writer of one security's book. Every read and write
// of the book happens on its goroutine, in the order tasks were queued.
type bookWorker struct {
	security string
	book     *engine.OrderBook
	tasks    chan task
}

func newBookWorker(security string, book *engine.OrderBook, queueSize int) *bookWorker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &bookWorker{
		security: security,
		book:     book,
		tasks:    make(chan task, queueSize),
	}
}

// run drains the task queue until the tomb starts dying. Tasks still queued
// at that point are dropped; their callers observe ErrExchangeClosed.
func (w *bookWorker) run(t *tomb.Tomb) error {
	log.Debug().Str("security", w.security).Msg("book worker started")
	for {
		select {
		case <-t.Dying():
			log.Debug().
				Str("security", w.security).
				Int("dropped", len(w.tasks)).
				Msg("book worker exiting")
			return nil
		case fn := <-w.tasks:
			fn(w.book)
		}
	}
}
