package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
)

// DefaultQueueSize is the number of files each destination may have waiting.
const DefaultQueueSize = 1024

// DispatcherConfig contains configuration for the fan-out dispatcher.
type DispatcherConfig struct {
	QueueSize int
}

// Dispatcher fans every detected file out to all destinations. Each
// destination has its own worker and queue, so a slow or unreachable
// destination delays only its own deliveries.
type Dispatcher struct {
	workers []*worker
	logger  log.Logger
	emitter ports.DeliveryEmitter

	cancel  context.CancelFunc
	g       *errgroup.Group
	started atomic.Bool
	closed  atomic.Bool
}

type worker struct {
	d      ports.Deliverer
	queue  chan domain.Transfer
	logger log.Logger
}

var _ ports.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over the given deliverers. Each
// deliverer is owned by its worker from Start until Close. emitter may be nil;
// when set it is called from several goroutines.
func NewDispatcher(deliverers []ports.Deliverer, cfg DispatcherConfig, logger log.Logger, emitter ports.DeliveryEmitter) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		logger:  logger,
		emitter: emitter,
	}
	for _, dl := range deliverers {
		d.workers = append(d.workers, &worker{
			d:      dl,
			queue:  make(chan domain.Transfer, cfg.QueueSize),
			logger: logger.With(log.String("dest", dl.Destination().String())),
		})
	}
	return d
}

// Start launches one worker per destination. Workers connect eagerly and
// stop when ctx is canceled or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.g = new(errgroup.Group)
	for _, w := range d.workers {
		d.g.Go(func() error {
			return d.run(ctx, w)
		})
	}
}

// Dispatch queues t for every destination without blocking. A destination
// whose queue is full gets an immediate ErrQueueFull delivery record.
func (d *Dispatcher) Dispatch(t domain.Transfer) {
	if d.closed.Load() {
		return
	}
	for _, w := range d.workers {
		select {
		case w.queue <- t:
		default:
			d.report(w, domain.Delivery{
				Destination: w.d.Destination(),
				Name:        t.Name,
				Err:         fmt.Errorf("%w: %s", domain.ErrQueueFull, w.d.Destination()),
			})
		}
	}
}

// Close interrupts in-flight sends and closes every connection. Queued files
// that were not sent are dropped. It returns the first error from closing a
// connection.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !d.started.Load() {
		var errs []error
		for _, w := range d.workers {
			errs = append(errs, closeDeliverer(w))
		}
		return errors.Join(errs...)
	}
	d.cancel()
	return d.g.Wait()
}

func closeDeliverer(w *worker) error {
	if err := w.d.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.d.Destination(), err)
	}
	return nil
}

// run serves w's queue until ctx is done and returns the error from closing
// its connection.
func (d *Dispatcher) run(ctx context.Context, w *worker) error {
	if err := w.d.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return closeDeliverer(w)
		}
		// Send reconnects on its own; the first queued file will try again.
		w.logger.Warn("initial connect failed", log.Err(err))
	}

	for {
		select {
		case <-ctx.Done():
			if n := len(w.queue); n > 0 {
				w.logger.Warn("dropping queued files on shutdown", log.Int("count", n))
			}
			return closeDeliverer(w)
		case t := <-w.queue:
			d.deliver(ctx, w, t)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, w *worker, t domain.Transfer) {
	start := time.Now()
	receipt, err := w.d.Send(ctx, t)
	d.report(w, domain.Delivery{
		Destination: w.d.Destination(),
		Name:        t.Name,
		Size:        receipt.Size,
		Attempts:    receipt.Attempts,
		Duration:    time.Since(start),
		Err:         err,
	})
}

func (d *Dispatcher) report(w *worker, rec domain.Delivery) {
	if rec.OK() {
		w.logger.Info("delivered",
			log.String("name", rec.Name),
			log.Uint64("bytes", rec.Size),
			log.Int("attempts", rec.Attempts),
			log.Duration("duration", rec.Duration),
		)
	} else {
		w.logger.Error("delivery failed",
			log.String("name", rec.Name),
			log.Int("attempts", rec.Attempts),
			log.Duration("duration", rec.Duration),
			log.Err(rec.Err),
		)
	}
	if d.emitter != nil {
		d.emitter.OnDelivery(rec)
	}
}
