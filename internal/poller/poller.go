package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"payhub/internal/model"
)

// ErrPollTimeout reports that MaxWait elapsed before a terminal status was
// observed. The completion callback is not invoked in that case.
var ErrPollTimeout = errors.New("polling gave up before a terminal status")

// OrderFetcher is what a Watcher needs from the status endpoint.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderNo string) (*model.Order, error)
}

type Options struct {
	// Interval between two queries. Default 3s.
	Interval time.Duration
	// QueryTimeout bounds each individual query so at most one is ever
	// outstanding. Must stay below Interval. Default 2s.
	QueryTimeout time.Duration
	// MaxWait caps the whole poll; a permanently stuck order must not
	// leak a loop forever. Default 15m.
	MaxWait time.Duration
}

// Watcher polls the status of one order at a time until it turns terminal.
type Watcher struct {
	fetcher      OrderFetcher
	interval     time.Duration
	queryTimeout time.Duration
	maxWait      time.Duration
}

func NewWatcher(fetcher OrderFetcher, opts Options) *Watcher {
	w := &Watcher{
		fetcher:      fetcher,
		interval:     3 * time.Second,
		queryTimeout: 2 * time.Second,
		maxWait:      15 * time.Minute,
	}
	if opts.Interval > 0 {
		w.interval = opts.Interval
	}
	if opts.QueryTimeout > 0 {
		w.queryTimeout = opts.QueryTimeout
	}
	if opts.MaxWait > 0 {
		w.maxWait = opts.MaxWait
	}
	return w
}

// Poll is the handle for one running poll loop.
type Poll struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Stop cancels the loop at its next suspension point. Stopping a finished
// poll is a no-op.
func (p *Poll) Stop() {
	p.cancel()
}

func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Err blocks until the loop exits. It is nil after a completed poll,
// ErrPollTimeout after MaxWait, or the context error after cancellation.
func (p *Poll) Err() error {
	<-p.done
	return p.err
}

// Watch starts the cooperative loop: query now, then every interval, until
// the order reaches a terminal status. complete is invoked exactly once,
// with the final record, and only on a terminal observation. A failed query
// is logged and the loop continues to the next tick.
func (w *Watcher) Watch(ctx context.Context, orderNo string, complete func(model.Order)) *Poll {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poll{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer cancel()
		defer close(p.done)
		p.err = w.run(ctx, orderNo, complete)
	}()

	return p
}

func (w *Watcher) run(ctx context.Context, orderNo string, complete func(model.Order)) error {
	deadline := time.Now().Add(w.maxWait)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		order := w.queryOnce(ctx, orderNo)
		if order != nil && order.Status.Terminal() {
			complete(*order)
			return nil
		}

		if time.Now().After(deadline) {
			slog.Warn("giving up on order", "order_no", orderNo)
			return ErrPollTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) queryOnce(ctx context.Context, orderNo string) *model.Order {
	queryCtx, cancel := context.WithTimeout(ctx, w.queryTimeout)
	defer cancel()

	order, err := w.fetcher.GetOrder(queryCtx, orderNo)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("status query failed, will retry", "order_no", orderNo, "error", err)
		}
		return nil
	}
	return order
}
