package thumbnail

import (
	"context"
	"log"
	"time"

	"github.com/petpics/service/internal/storage"
)

// resubscribeDelay is how long the worker waits before re-establishing a
// dropped notification stream.
const resubscribeDelay = 3 * time.Second

// Worker drains object-created events from the originals bucket and generates
// a thumbnail per event. Failures are logged and terminal per event: a payload
// that cannot be decoded is skipped, never retried, and never stops the
// worker. Delivery is at-least-once; Process is idempotent.
type Worker struct {
	events storage.EventListener
	gen    *Generator
	bucket string
}

// NewWorker creates a Worker consuming creation events for bucket.
func NewWorker(events storage.EventListener, gen *Generator, bucket string) *Worker {
	return &Worker{events: events, gen: gen, bucket: bucket}
}

// Run blocks processing events until ctx is cancelled. When the notification
// stream drops it resubscribes after a short delay.
func (w *Worker) Run(ctx context.Context) error {
	log.Printf("thumbnail: worker listening on bucket %q", w.bucket)
	for {
		for ev := range w.events.ListenCreated(ctx, w.bucket) {
			w.handle(ctx, ev)
		}
		select {
		case <-ctx.Done():
			log.Println("thumbnail: worker stopped")
			return ctx.Err()
		case <-time.After(resubscribeDelay):
			log.Println("thumbnail: notification stream ended, resubscribing")
		}
	}
}

// handle processes a single event. It never panics outward: a crash while
// decoding a hostile payload must not take the worker down.
func (w *Worker) handle(ctx context.Context, ev storage.ObjectEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("thumbnail: panic processing %q: %v", ev.Key, r)
		}
	}()

	if ev.Err != nil {
		log.Printf("thumbnail: notification error: %v", ev.Err)
		return
	}

	start := time.Now()
	if err := w.gen.Process(ctx, ev.Bucket, ev.Key); err != nil {
		log.Printf("thumbnail: %q failed: %v", ev.Key, err)
		return
	}
	log.Printf("thumbnail: generated %q in %s", ev.Key, time.Since(start))
}
