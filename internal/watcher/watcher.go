package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zheng/schemagraph/internal/loader"
	"github.com/zheng/schemagraph/pkg/logging"
)

const subsystem = "watcher"

// RunFunc reprocesses the watched tree. changed lists the schema files
// that triggered the run, sorted.
type RunFunc func(ctx context.Context, changed []string) error

// Watcher watches a schema directory and reruns a pipeline on change
type Watcher struct {
	root      string
	run       RunFunc
	fsWatcher *fsnotify.Watcher

	// Debouncing
	debounceDelay time.Duration
	pendingFiles  map[string]struct{}
	pendingMu     sync.Mutex
	debounceTimer *time.Timer

	// Serializes runs
	runMu sync.Mutex

	// Callbacks
	onRunStart func(changed []string)
	onRunDone  func(duration time.Duration)
	onError    func(error)

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// WatcherOption configures the watcher
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnRunStart sets the callback for when a run starts
func WithOnRunStart(fn func(changed []string)) WatcherOption {
	return func(w *Watcher) {
		w.onRunStart = fn
	}
}

// WithOnRunDone sets the callback for when a run completes without error
func WithOnRunDone(fn func(duration time.Duration)) WatcherOption {
	return func(w *Watcher) {
		w.onRunDone = fn
	}
}

// WithOnError sets the callback for errors
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New creates a Watcher over root. run is called after each debounced burst
// of schema file changes.
func New(root string, run RunFunc, opts ...WatcherOption) (*Watcher, error) {
	if run == nil {
		return nil, fmt.Errorf("watcher needs a run function")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:          root,
		run:           run,
		fsWatcher:     fsWatcher,
		debounceDelay: 500 * time.Millisecond,
		pendingFiles:  make(map[string]struct{}),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirs(); err != nil {
		cancel()
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directories to watch: %w", err)
	}

	return w, nil
}

// addDirs recursively adds all directories to the watcher
func (w *Watcher) addDirs() error {
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		logging.Debug(subsystem, "watching %s", path)
		return w.fsWatcher.Add(path)
	})
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.eventLoop()
}

// Stop stops the watcher. A run in progress sees its context cancelled.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.cancel()
		w.pendingMu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
	})
	return err
}

// eventLoop handles file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

// handleEvent processes a single file system event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories are watched too
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(info.Name(), ".") {
				w.fsWatcher.Add(event.Name)
			}
			return
		}
	}

	if !loader.IsSchemaFile(event.Name) {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	w.pendingFiles[event.Name] = struct{}{}

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.trigger)
}

// trigger runs the pipeline after debounce
func (w *Watcher) trigger() {
	w.pendingMu.Lock()
	files := make([]string, 0, len(w.pendingFiles))
	for f := range w.pendingFiles {
		files = append(files, f)
	}
	w.pendingFiles = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(files) == 0 || w.ctx.Err() != nil {
		return
	}
	sort.Strings(files)

	w.runMu.Lock()
	defer w.runMu.Unlock()

	if w.onRunStart != nil {
		w.onRunStart(files)
	}
	logging.Info(subsystem, "%d schema files changed, rerunning", len(files))

	start := time.Now()
	if err := w.run(w.ctx, files); err != nil {
		w.reportError(fmt.Errorf("run failed: %w", err))
		return
	}

	if w.onRunDone != nil {
		w.onRunDone(time.Since(start))
	}
}

func (w *Watcher) reportError(err error) {
	logging.Error(subsystem, err, "watch error")
	if w.onError != nil {
		w.onError(err)
	}
}
