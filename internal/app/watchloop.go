package app

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
)

const (
	// DefaultDispatchDelay is the pause before a stable file is handed to the dispatcher.
	DefaultDispatchDelay = time.Millisecond
	// DefaultDedupeSize is the number of recently dispatched files remembered.
	DefaultDedupeSize = 4096
)

// DefaultIgnore skips partial files, which appear when a receiver writes
// into the watched tree.
var DefaultIgnore = []string{"*.part"}

// WatchConfig contains configuration for the watch loop.
type WatchConfig struct {
	Root          string
	Ignore        []string
	DispatchDelay time.Duration
	DedupeSize    int
}

// WatchLoop turns watcher events into transfers.
type WatchLoop struct {
	cfg        WatchConfig
	source     ports.EventSource
	dispatcher ports.Dispatcher
	logger     log.Logger
	seen       *lru.Cache
}

// fingerprint identifies one version of a file.
type fingerprint struct {
	size  int64
	mtime int64
}

// NewWatchLoop validates cfg and creates a loop over source.
func NewWatchLoop(cfg WatchConfig, source ports.EventSource, dispatcher ports.Dispatcher, logger log.Logger) (*WatchLoop, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: watch root: %v", domain.ErrInvalidConfig, err)
	}
	cfg.Root = root
	if cfg.Ignore == nil {
		cfg.Ignore = DefaultIgnore
	}
	for _, p := range cfg.Ignore {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("%w: ignore pattern %q: %v", domain.ErrInvalidConfig, p, err)
		}
	}
	if cfg.DispatchDelay < 0 {
		cfg.DispatchDelay = 0
	}
	if cfg.DedupeSize <= 0 {
		cfg.DedupeSize = DefaultDedupeSize
	}
	seen, err := lru.New(cfg.DedupeSize)
	if err != nil {
		return nil, err
	}
	return &WatchLoop{
		cfg:        cfg,
		source:     source,
		dispatcher: dispatcher,
		logger:     logger,
		seen:       seen,
	}, nil
}

// Root returns the absolute watch root.
func (w *WatchLoop) Root() string {
	return w.cfg.Root
}

// Run processes events until ctx is canceled or the source closes.
func (w *WatchLoop) Run(ctx context.Context) error {
	events, errs := w.source.Events(), w.source.Errors()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err := <-errs:
			w.logger.Warn("watcher error", log.Err(err))
		}
	}
}

func (w *WatchLoop) handle(ctx context.Context, ev domain.FileEvent) {
	switch ev.Kind {
	case domain.DirCreated:
		if err := w.source.AddRecursive(ev.Path); err != nil {
			w.logger.Warn("failed to watch new directory", log.String("path", ev.Path), log.Err(err))
		}
		// Files written before the watch was registered produced no events.
		// They may still be growing, so they settle like any other write.
		err := filepath.WalkDir(ev.Path, func(p string, d iofs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.Type().IsRegular() {
				w.source.Arm(p)
			}
			return ctx.Err()
		})
		if err != nil && ctx.Err() == nil {
			w.logger.Warn("failed to scan new directory", log.String("path", ev.Path), log.Err(err))
		}

	case domain.FileStable:
		w.offer(ctx, ev.Path)
	}
}

// offer hands p to the dispatcher unless it is ignored or was already
// dispatched with the same size and modification time.
func (w *WatchLoop) offer(ctx context.Context, p string) {
	fi, err := os.Stat(p)
	if err != nil {
		w.logger.Debug("file vanished before dispatch", log.String("path", p), log.Err(err))
		return
	}
	if !fi.Mode().IsRegular() {
		return
	}

	name, err := domain.NameFor(w.cfg.Root, p)
	if err != nil {
		w.logger.Warn("file outside watch root", log.String("path", p), log.Err(err))
		return
	}
	if w.ignored(name) {
		w.logger.Debug("ignoring file", log.String("name", name))
		return
	}

	fp := fingerprint{size: fi.Size(), mtime: fi.ModTime().UnixNano()}
	if prev, ok := w.seen.Get(p); ok && prev.(fingerprint) == fp {
		w.logger.Debug("file unchanged since last dispatch", log.String("name", name))
		return
	}
	w.seen.Add(p, fp)

	if w.cfg.DispatchDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.DispatchDelay):
		}
	}

	w.logger.Debug("dispatching", log.String("name", name), log.Int64("size", fi.Size()))
	w.dispatcher.Dispatch(domain.Transfer{Path: p, Name: name})
}

func (w *WatchLoop) ignored(name string) bool {
	base := path.Base(name)
	for _, p := range w.cfg.Ignore {
		if ok, _ := path.Match(p, base); ok {
			return true
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
