package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes audit events to a fixed set of workers using consistent
// hashing on the subject id, guaranteeing per-user event ordering.
type Dispatcher struct {
	workers []chan domain.AuditEvent
	service ports.AuditService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		service: service,
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
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an event to the worker responsible for its subject. It never
// blocks the request path: when that worker's buffer is full the event is
// dropped and counted.
func (d *Dispatcher) Enqueue(event domain.AuditEvent) {
	idx := d.shardIndex(event.SubjectID)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("action", string(event.Action)).
			Str("subject_id", event.SubjectID).
			Int("worker_id", idx).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps a subject id deterministically to a worker index.
func (d *Dispatcher) shardIndex(subjectID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subjectID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.service.Record(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("subject_id", event.SubjectID).
					Int("worker_id", id).
					Msg("audit recording failed")
			}
		}
	}
}
