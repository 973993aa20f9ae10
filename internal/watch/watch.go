// Package watch runs a handler for every feedback export written into a
// directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cognicore/feedlens/internal/source"
	"github.com/cognicore/feedlens/pkg/feedlens/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Existing makes Run handle files already present in the directory
	// before waiting for events.
	Existing bool
	Logger   *logging.Logger
}

// Watcher monitors one directory for .jsonl and .csv files.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	existing bool
	log      *logging.Logger
}

// New creates a watcher.
func New(opts Options) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{fs: w, debounce: opts.Debounce, existing: opts.Existing, log: opts.Logger}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run watches dir until ctx is done. Files are handled one at a time, after
// their last create or write event is older than the debounce interval.
// Handler errors are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, dir string, handle Handler) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("Watching %s for feedback files", dir)

	if w.existing {
		paths, err := existingFiles(dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			w.handle(ctx, handle, p)
		}
	}

	ready := make(chan string)
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(w.debounce)
			return
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !source.Supported(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				schedule(ev.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error: %v", err)
		case path := <-ready:
			w.handle(ctx, handle, path)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, handle Handler, path string) {
	w.log.Info("Processing %s", path)
	if err := handle(ctx, path); err != nil {
		w.log.Error("Processing %s failed: %v", path, err)
	}
}

// existingFiles lists supported files in dir in name order.
func existingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && source.Supported(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
