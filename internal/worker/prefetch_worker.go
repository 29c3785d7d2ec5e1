package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	prefetchBatchSize  = 20
	prefetchFlushEvery = 2 * time.Second
	prefetchQueueSize  = 1024
	drainTimeout       = 10 * time.Second
)

// Warmer translates texts and caches the results.
type Warmer interface {
	TranslateBatch(ctx context.Context, texts []string) []string
}

// TranslationPrefetchWorker warms the translation cache for the questions
// of a freshly started session. Texts are batched by count or time.
type TranslationPrefetchWorker struct {
	warmer Warmer
	queue  chan string
	done   chan struct{}
	log    zerolog.Logger
}

func NewTranslationPrefetchWorker(warmer Warmer, log zerolog.Logger) *TranslationPrefetchWorker {
	return &TranslationPrefetchWorker{
		warmer: warmer,
		queue:  make(chan string, prefetchQueueSize),
		done:   make(chan struct{}),
		log:    log.With().Str("component", "prefetch_worker").Logger(),
	}
}

// Enqueue schedules texts for translation without blocking. Texts that do
// not fit in the queue are dropped; they are translated on demand later.
func (w *TranslationPrefetchWorker) Enqueue(texts ...string) {
	dropped := 0
	for _, t := range texts {
		select {
		case w.queue <- t:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		w.log.Debug().Int("dropped", dropped).Msg("prefetch queue full")
	}
}

// Done is closed once Start has returned.
func (w *TranslationPrefetchWorker) Done() <-chan struct{} { return w.done }

// Start runs the batching loop until ctx is cancelled. Call in a goroutine.
func (w *TranslationPrefetchWorker) Start(ctx context.Context) {
	defer close(w.done)
	w.log.Info().Msg("Worker started")

	ticker := time.NewTicker(prefetchFlushEvery)
	defer ticker.Stop()

	batch := make([]string, 0, prefetchBatchSize)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			w.drain(drainCtx, batch)
			cancel()
			w.log.Info().Msg("Worker stopped")
			return

		case text := <-w.queue:
			batch = append(batch, text)
			if len(batch) >= prefetchBatchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (w *TranslationPrefetchWorker) flush(ctx context.Context, batch []string) {
	start := time.Now()
	w.warmer.TranslateBatch(ctx, batch)
	w.log.Debug().
		Int("count", len(batch)).
		Dur("took", time.Since(start)).
		Msg("prefetched translations")
}

// drain flushes the pending batch and whatever is still queued.
func (w *TranslationPrefetchWorker) drain(ctx context.Context, pending []string) {
	drained := len(pending)
	batch := append([]string(nil), pending...)
loop:
	for {
		select {
		case text := <-w.queue:
			batch = append(batch, text)
			drained++
			if len(batch) >= prefetchBatchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
			}
		default:
			break loop
		}
	}
	if len(batch) > 0 {
		w.flush(ctx, batch)
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
