package blobstore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/metrics"
)

// Cleaner deletes staged blobs in the background after a transcription
// attempt completes. Deletion is fire-and-forget: failures are logged and
// counted, never retried and never surfaced to the caller.
type Cleaner struct {
	store    Store
	ch       chan string
	log      zerolog.Logger
	stopped  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup

	deleted atomic.Int64
	failed  atomic.Int64
}

// NewCleaner creates an async blob cleaner with the given queue size.
func NewCleaner(store Store, bufferSize int, log zerolog.Logger) *Cleaner {
	return &Cleaner{
		store: store,
		ch:    make(chan string, bufferSize),
		log:   log.With().Str("component", "blob-cleaner").Logger(),
	}
}

// Enqueue schedules a blob for deletion. Non-blocking: if the queue is
// full or the cleaner is stopped the blob is leaked with a warning, which
// is acceptable for short-lived staging objects.
func (c *Cleaner) Enqueue(key string) {
	if c.stopped.Load() {
		return
	}
	select {
	case c.ch <- key:
	default:
		c.log.Warn().Str("key", key).Msg("cleanup queue full, blob left behind")
	}
}

// Start launches worker goroutines.
func (c *Cleaner) Start(workers int) {
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	c.log.Info().Int("workers", workers).Int("buffer", cap(c.ch)).Msg("blob cleaner started")
}

// Stop drains pending deletions and waits for workers to exit.
func (c *Cleaner) Stop() {
	c.stopped.Store(true)
	c.stopOnce.Do(func() { close(c.ch) })
	c.wg.Wait()
	c.log.Info().
		Int64("deleted", c.deleted.Load()).
		Int64("failed", c.failed.Load()).
		Msg("blob cleaner stopped")
}

// Stats returns deletion counts.
func (c *Cleaner) Stats() (deleted, failed int64) {
	return c.deleted.Load(), c.failed.Load()
}

func (c *Cleaner) worker() {
	defer c.wg.Done()
	for key := range c.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := c.store.Delete(ctx, key); err != nil {
			c.failed.Add(1)
			metrics.BlobCleanupFailuresTotal.Inc()
			c.log.Warn().Err(err).Str("key", key).Msg("staged blob cleanup failed")
		} else {
			c.deleted.Add(1)
		}
		cancel()
	}
}
