package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes pricing audit events to a fixed set of workers using
// consistent hashing on the event reference, so events for the same quote or
// shipment are persisted in emission order. Emission is non-blocking up to
// channelBuffer; a full shard drops the event with a warning rather than
// stalling a pricing stage.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	sink    ports.AuditSink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.AuditSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Emit sends an event to the worker responsible for its reference. Never
// blocks the caller.
func (d *Dispatcher) Emit(event domain.AuditEvent) {
	select {
	case d.workers[d.shardIndex(event.Reference)] <- event:
	default:
		d.log.Warn().
			Str("reference", event.Reference).
			Str("stage", string(event.Stage)).
			Msg("audit shard full, event dropped")
	}
}

// shardIndex maps a reference deterministically to a worker index.
func (d *Dispatcher) shardIndex(reference string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(reference))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("reference", event.Reference).
					Int("worker_id", id).
					Msg("audit event processing failed")
			}
		}
	}
}
