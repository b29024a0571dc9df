package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/opencare/care-scheduler/internal/obs"
)

const (
	queueSize      = 1024
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 30 * time.Second
)

// Recorder delivers audit entries to the sink off the request path.
// Guarantees: at-least-once durable delivery (retry with capped backoff,
// forever), and per-target ordering (a single worker drains a FIFO
// queue). Enqueueing blocks when the queue is full; entries are never
// dropped. Delivery runs on a background context so a cancelled request
// never abandons a queued entry.
type Recorder struct {
	sink  Sink
	queue chan queued
	wg    sync.WaitGroup
	once  sync.Once

	now func() time.Time
}

type queued struct {
	ev Event
	at time.Time
}

func NewRecorder(sink Sink) *Recorder {
	r := &Recorder{
		sink:  sink,
		queue: make(chan queued, queueSize),
		now:   time.Now,
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues one entry. The entry's timestamp is taken here, at
// commit observation time, so queue latency does not reorder the trail.
func (r *Recorder) Record(ev Event) {
	r.queue <- queued{ev: ev, at: r.now()}
	obs.AuditQueueDepth.Set(float64(len(r.queue)))
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for q := range r.queue {
		entry := q.ev.entry(q.at)

		delay := baseRetryDelay
		for {
			err := r.sink.Append(context.Background(), &entry)
			if err == nil {
				obs.AuditEntriesWritten.Inc()
				break
			}

			log.Warn().
				Err(err).
				Str("target_type", entry.TargetType).
				Str("target_id", entry.TargetID).
				Dur("retry_in", delay).
				Msg("audit append failed, retrying")

			time.Sleep(delay)
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
		obs.AuditQueueDepth.Set(float64(len(r.queue)))
	}
}

// Close drains the queue and blocks until every pending entry is durable.
// Safe to call more than once.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.queue) })
	r.wg.Wait()
}
