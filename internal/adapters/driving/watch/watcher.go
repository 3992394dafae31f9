// Package watch drives the ingestion pipeline from filesystem events.
// A watched directory behaves like a drop folder: files created or
// modified under it are resubmitted for ingestion, and because document
// ids derive from filenames the resubmission overwrites rather than
// duplicates.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before it is
// submitted. Editors and copies produce bursts of writes; submitting on
// the first one would ingest a half-written file.
const DefaultDebounce = 2 * time.Second

// Config holds watcher configuration.
type Config struct {
	// Collection is the target collection for submitted files.
	// Empty means the orchestrator's default.
	Collection string

	// Debounce is the quiet period before a changed file is submitted.
	Debounce time.Duration

	// Extensions limits which files are watched (with or without the
	// leading dot). Empty watches nothing, so callers normally pass the
	// extractor registry's supported list.
	Extensions []string

	// Notify, when set, is called after each submission attempt.
	Notify func(path string, jobIDs []string, err error)
}

// Watcher monitors a directory tree and submits changed files.
type Watcher struct {
	fs     *fsnotify.Watcher
	ingest driving.IngestOrchestrator
	cfg    Config
	exts   map[string]struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over the given ingestion orchestrator.
func New(ingest driving.IngestOrchestrator, cfg Config) (*Watcher, error) {
	if ingest == nil {
		return nil, fmt.Errorf("watch: ingest orchestrator is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}

	return &Watcher{
		fs:      fsw,
		ingest:  ingest,
		cfg:     cfg,
		exts:    exts,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Watch registers the directory tree rooted at dir. Registration is
// synchronous: once Watch returns, events under dir are captured even
// if Run has not started draining them yet. Subdirectories created
// later join the watch during Run.
func (w *Watcher) Watch(dir string) error {
	if err := w.addTree(dir); err != nil {
		return err
	}
	logger.Info("Watching %s", dir)
	return nil
}

// Run drains filesystem events until the context is cancelled,
// submitting quiet files to the ingestion pipeline.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// Close stops the watcher and cancels pending submissions.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// handle reacts to one filesystem event.
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// New directories join the watch; their contents arrive as
	// separate create events.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
			return
		}
	}

	if !w.watched(event.Name) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule (re)arms the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.submit(ctx, path)
	})
}

// submit hands one quiet file to the ingestion pipeline.
func (w *Watcher) submit(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	jobIDs, err := w.ingest.SubmitPath(ctx, path, w.cfg.Collection)
	if err != nil {
		logger.Warn("Submitting %s failed: %v", path, err)
	} else {
		logger.Debug("Submitted %s (%d job(s))", path, len(jobIDs))
	}

	if w.cfg.Notify != nil {
		w.cfg.Notify(path, jobIDs, err)
	}
}

// addTree registers dir and every subdirectory with the watcher.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// watched reports whether a path's extension is in scope.
func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := w.exts[ext]
	return ok
}
