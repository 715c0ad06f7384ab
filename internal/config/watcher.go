package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadEvent reports that a suite's config file changed on disk. Generation
// counts how many times this particular config name has been (re)loaded,
// starting at 1 for the initial load `Start` does before watching begins —
// `watch.go` doesn't use it today, but it's the hook a future dashboard
// would need to tell "still running the config it started with" apart from
// "already picked up an edit".
type ReloadEvent struct {
	Path       string
	Config     *Config
	Generation int
	Error      error
}

// Watcher monitors a directory for suite config file changes and reloads
// whichever one changed, debounced so a single save doesn't fire twice.
type Watcher struct {
	loader   *Loader
	watchDir string
	watcher  *fsnotify.Watcher
	events   chan ReloadEvent
	debounce time.Duration

	mu         sync.RWMutex
	configs    map[string]*Config
	generation map[string]int
	pending    map[string]*time.Timer
}

// NewWatcher creates a new config file watcher.
func NewWatcher(loader *Loader, watchDir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		loader:     loader,
		watchDir:   watchDir,
		watcher:    fsWatcher,
		events:     make(chan ReloadEvent, 10),
		debounce:   100 * time.Millisecond,
		configs:    make(map[string]*Config),
		generation: make(map[string]int),
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel that receives reload events.
func (w *Watcher) Events() <-chan ReloadEvent {
	return w.events
}

// Start loads every config already in the watch directory, recording each
// as generation 1, then begins watching for changes.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.loadExisting(); err != nil {
		return fmt.Errorf("failed to load existing configs: %w", err)
	}

	if err := w.watcher.Add(w.watchDir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.watchDir, err)
	}

	go w.run(ctx)
	return nil
}

// Stop closes the watcher and cleans up resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	for _, t := range w.pending {
		t.Stop()
	}
	w.mu.Unlock()
	close(w.events)
	return w.watcher.Close()
}

// GetConfig returns a loaded config by suite name.
func (w *Watcher) GetConfig(name string) (*Config, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	cfg, ok := w.configs[name]
	return cfg, ok
}

// GetAllConfigs returns all currently loaded configs.
func (w *Watcher) GetAllConfigs() map[string]*Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make(map[string]*Config, len(w.configs))
	for k, v := range w.configs {
		result[k] = v
	}
	return result
}

func (w *Watcher) loadExisting() error {
	configs, err := w.loader.LoadDirectory(w.watchDir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, cfg := range configs {
		w.configs[cfg.Name] = cfg
		w.generation[cfg.Name] = 1
	}

	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		for _, t := range w.pending {
			t.Stop()
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !isConfigFile(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.scheduleReload(event.Name)
			case event.Op&fsnotify.Remove != 0:
				w.cancelPending(event.Name)
				w.handleRemove(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.events <- ReloadEvent{Error: err}
		}
	}
}

// scheduleReload resets a per-path timer on every event for that path, so a
// burst of writes to the same file (common with editors that write, then
// rename) collapses into a single reload once things settle.
func (w *Watcher) scheduleReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, exists := w.pending[path]; exists {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.handleUpdate(path)
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, exists := w.pending[path]; exists {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) handleUpdate(path string) {
	cfg, err := w.loader.LoadFile(path)
	if err != nil {
		w.events <- ReloadEvent{
			Path:  path,
			Error: fmt.Errorf("failed to load config %s: %w", path, err),
		}
		return
	}

	w.mu.Lock()
	w.generation[cfg.Name]++
	gen := w.generation[cfg.Name]
	w.configs[cfg.Name] = cfg
	w.mu.Unlock()

	w.events <- ReloadEvent{
		Path:       path,
		Config:     cfg,
		Generation: gen,
	}
}

func (w *Watcher) handleRemove(path string) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	w.mu.Lock()
	delete(w.configs, name)
	delete(w.generation, name)
	w.mu.Unlock()

	w.events <- ReloadEvent{
		Path:  path,
		Error: fmt.Errorf("config removed: %s", path),
	}
}
