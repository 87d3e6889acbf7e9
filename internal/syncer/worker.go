// Package syncer runs a background worker that keeps the remote backend's
// project-document cache warm, so interactive reads rarely pay a live
// tracker round trip.
package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/foundry-mcp/foundry/internal/backend/remote"
	"github.com/foundry-mcp/foundry/internal/cache"
)

// Worker periodically refreshes the document cache for every project the
// local mirror knows about.
type Worker struct {
	client   *remote.Client
	store    remote.Store
	docCache *cache.Cache[[]remote.Document]
	interval time.Duration

	mu       sync.RWMutex
	running  bool
	lastSync time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Config holds configuration for the sync worker.
type Config struct {
	// Interval between sync cycles (default: 2 minutes).
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 2 * time.Minute}
}

// NewWorker creates a worker that refreshes docCache (typically
// (*remote.Backend).DocCache()) by re-listing documents for every project
// store knows about.
func NewWorker(client *remote.Client, store remote.Store, docCache *cache.Cache[[]remote.Document], cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Worker{
		client:   client,
		store:    store,
		docCache: docCache,
		interval: cfg.Interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background refresh loop. It is a no-op if already running.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop gracefully stops the worker, blocking until the current cycle ends.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	stopCh := w.stopCh
	w.mu.Unlock()

	close(stopCh)
	<-w.doneCh
}

func (w *Worker) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Worker) LastSync() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSync
}

// SyncNow triggers an immediate refresh cycle.
func (w *Worker) SyncNow(ctx context.Context) error {
	return w.syncAllProjects(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.syncAllProjects(ctx); err != nil {
		log.Printf("[syncer] initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.syncAllProjects(ctx); err != nil {
				log.Printf("[syncer] sync failed: %v", err)
			}
		}
	}
}

// syncAllProjects re-lists documents for every known project, stopping a
// project's refresh early if its document set is unchanged from what is
// already cached ("sync until unchanged").
func (w *Worker) syncAllProjects(ctx context.Context) error {
	projects, err := w.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	refreshed := 0
	for name, rec := range projects {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		docs, err := w.client.ProjectDocuments(ctx, rec.ID)
		if err != nil {
			log.Printf("[syncer] refresh project %s failed: %v", name, err)
			continue
		}

		if cached, ok := w.docCache.Get(rec.ID); ok && documentsUnchanged(cached, docs) {
			continue
		}
		w.docCache.Set(rec.ID, docs)
		refreshed++
	}

	w.mu.Lock()
	w.lastSync = time.Now()
	w.mu.Unlock()

	log.Printf("[syncer] synced %d/%d projects", refreshed, len(projects))
	return nil
}

// documentsUnchanged compares two document sets by id and content only;
// it ignores ordering, since the tracker gives no ordering guarantee.
func documentsUnchanged(a, b []remote.Document) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]string, len(a))
	for _, d := range a {
		byID[d.ID] = d.Content
	}
	for _, d := range b {
		content, ok := byID[d.ID]
		if !ok || content != d.Content {
			return false
		}
	}
	return true
}
