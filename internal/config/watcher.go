package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bizpilot/internal/logging"
	"bizpilot/internal/perception"
)

// TaxonomyWatcher reloads the taxonomy override file when it changes on
// disk, so keyword tuning goes live without a restart. Editors save with a
// burst of events, so reloads are debounced.
type TaxonomyWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onReload func([]perception.DomainTaxonomy)
	debounce time.Duration
	pending  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewTaxonomyWatcher creates a watcher for the given override file. onReload
// receives each successfully parsed taxonomy; parse failures keep the
// previous tables and log a warning.
func NewTaxonomyWatcher(path string, onReload func([]perception.DomainTaxonomy)) (*TaxonomyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &TaxonomyWatcher{
		watcher:  watcher,
		path:     path,
		onReload: onReload,
		debounce: 500 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop or ctx cancellation. The parent directory is watched rather
// than the file itself so atomic-rename saves are still seen.
func (w *TaxonomyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Config("watching taxonomy file: %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *TaxonomyWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		logging.ConfigWarn("error closing taxonomy watcher: %v", err)
	}
}

func (w *TaxonomyWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.ConfigWarn("taxonomy watcher error: %v", err)
		case <-ticker.C:
			w.reloadIfSettled()
		}
	}
}

func (w *TaxonomyWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *TaxonomyWatcher) reloadIfSettled() {
	w.mu.Lock()
	due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
	if due {
		w.pending = time.Time{}
	}
	w.mu.Unlock()
	if !due {
		return
	}

	taxonomy, err := LoadTaxonomy(w.path)
	if err != nil {
		logging.ConfigWarn("taxonomy reload failed, keeping previous tables: %v", err)
		return
	}
	logging.Config("taxonomy reloaded: %d domains", len(taxonomy))
	w.onReload(taxonomy)
}
