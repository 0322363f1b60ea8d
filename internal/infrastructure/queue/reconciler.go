package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

const scanBatch = 500

// UnlinkedFinder lists messages missing from their recipient's list.
type UnlinkedFinder interface {
	FindUnlinked(ctx context.Context, olderThan time.Time, limit int) ([]domain.UnlinkedMessage, error)
}

// Reconciler periodically scans for orphaned messages and feeds them to a Dispatcher.
type Reconciler struct {
	finder     UnlinkedFinder
	dispatcher *Dispatcher
	interval   time.Duration
	grace      time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

// NewReconciler builds a Reconciler. Messages younger than grace are skipped
// so in-flight submissions are not mistaken for orphans.
func NewReconciler(finder UnlinkedFinder, dispatcher *Dispatcher, interval, grace time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		finder:     finder,
		dispatcher: dispatcher,
		interval:   interval,
		grace:      grace,
		log:        log,
		now:        time.Now,
	}
}

// Run scans every interval until ctx is cancelled. It returns immediately
// when interval is not positive.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info().Msg("link reconciler disabled")
		return
	}
	r.dispatcher.Start(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Scan(ctx); err != nil {
				r.log.Error().Err(err).Msg("link reconciler scan failed")
			}
		}
	}
}

// Scan enqueues one batch of orphaned messages and returns how many it found.
func (r *Reconciler) Scan(ctx context.Context) (int, error) {
	orphans, err := r.finder.FindUnlinked(ctx, r.now().Add(-r.grace), scanBatch)
	if err != nil {
		return 0, err
	}
	for _, u := range orphans {
		if !r.dispatcher.Enqueue(ctx, u) {
			break
		}
	}
	if len(orphans) > 0 {
		r.log.Warn().Int("count", len(orphans)).Msg("orphaned messages queued for repair")
	}
	return len(orphans), nil
}
