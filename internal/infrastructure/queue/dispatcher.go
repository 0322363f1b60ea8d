package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/api/metrics"
	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Repairer re-links one orphaned message. Implemented by service.MessageService.
type Repairer interface {
	RepairLink(ctx context.Context, u domain.UnlinkedMessage) error
}

// Dispatcher routes link repairs to a fixed set of workers using consistent
// hashing on the recipient id, so repairs for one account never run concurrently.
type Dispatcher struct {
	workers  []chan domain.UnlinkedMessage
	repairer Repairer
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repairer Repairer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.UnlinkedMessage, numWorkers),
		repairer: repairer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.UnlinkedMessage, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a repair to the worker owning its recipient. It blocks when
// that worker's buffer is full and gives up when ctx is cancelled.
func (d *Dispatcher) Enqueue(ctx context.Context, u domain.UnlinkedMessage) bool {
	idx := d.shardIndex(u.RecipientID)
	select {
	case d.workers[idx] <- u:
		metrics.LinkRepairQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	case <-ctx.Done():
		return false
	}
}

// shardIndex maps a recipient id deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.UnlinkedMessage) {
	depth := metrics.LinkRepairQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.repairer.RepairLink(ctx, u); err != nil {
				metrics.LinkRepairsTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("message_id", u.MessageID).
					Str("recipient_id", u.RecipientID).
					Int("worker_id", id).
					Msg("link repair failed")
				continue
			}
			metrics.LinkRepairsTotal.WithLabelValues("relinked").Inc()
		}
	}
}
