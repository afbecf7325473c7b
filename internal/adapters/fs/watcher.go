package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/pkg/log"
)

// DefaultSettleDelay is how long a file must stay quiet before it is
// reported as stable.
const DefaultSettleDelay = 50 * time.Millisecond

// Watcher turns fsnotify events into file-stable and dir-created events.
//
// fsnotify has no portable close-after-write event, so a file is reported
// once no Create or Write event has been seen for it during the settle delay.
// A file moved into the tree arrives as Create and settles the same way.
type Watcher struct {
	fsw    *fsnotify.Watcher
	settle time.Duration
	logger log.Logger

	events chan domain.FileEvent
	errors chan error
	fired  chan firedTimer
	done   chan struct{}

	mu      sync.Mutex
	pending map[string]pendingTimer
	gen     uint64

	closeOnce sync.Once
	wg        sync.WaitGroup
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

type firedTimer struct {
	path string
	gen  uint64
}

// NewWatcher creates a watcher with no directories registered.
func NewWatcher(settle time.Duration, logger log.Logger) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		settle:  settle,
		logger:  logger,
		events:  make(chan domain.FileEvent, 256),
		errors:  make(chan error, 16),
		fired:   make(chan firedTimer),
		done:    make(chan struct{}),
		pending: make(map[string]pendingTimer),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Events implements ports.EventSource.
func (w *Watcher) Events() <-chan domain.FileEvent { return w.events }

// Errors implements ports.EventSource.
func (w *Watcher) Errors() <-chan error { return w.errors }

// AddRecursive registers dir and all directories below it. Failing to watch
// dir itself is an error; unreadable subdirectories are logged and skipped.
func (w *Watcher) AddRecursive(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("skipping unreadable directory", log.String("path", path), log.Err(err))
			return filepath.SkipDir
		}
		if !d.IsDir() || path == dir {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", log.String("path", path), log.Err(err))
		}
		return nil
	})
}

// Close stops the watcher and closes the Events channel.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)
	defer func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case f := <-w.fired:
			if !w.settled(f) {
				continue
			}
			w.emit(domain.FileEvent{Kind: domain.FileStable, Path: f.path})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", log.Err(err))
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		fi, err := os.Lstat(ev.Name)
		if err != nil {
			return
		}
		if fi.IsDir() {
			w.emit(domain.FileEvent{Kind: domain.DirCreated, Path: ev.Name})
			return
		}
		w.Arm(ev.Name)

	case ev.Has(fsnotify.Write):
		w.Arm(ev.Name)

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.mu.Lock()
		w.disarm(ev.Name)
		w.mu.Unlock()
	}
}

// Arm (re)starts the settle timer for path as if it had just been written.
// A FileStable event follows once path stays quiet for the settle delay.
func (w *Watcher) Arm(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.arm(path)
}

// settled reports whether f is the latest timer for its path and clears it.
func (w *Watcher) settled(f firedTimer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.pending[f.path]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(w.pending, f.path)
	return true
}

// arm and disarm require w.mu.
func (w *Watcher) arm(path string) {
	w.disarm(path)
	w.gen++
	gen := w.gen
	t := time.AfterFunc(w.settle, func() {
		select {
		case w.fired <- firedTimer{path: path, gen: gen}:
		case <-w.done:
		}
	})
	w.pending[path] = pendingTimer{timer: t, gen: gen}
}

func (w *Watcher) disarm(path string) {
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(ev domain.FileEvent) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}
