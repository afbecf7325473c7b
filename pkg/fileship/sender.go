package fileship

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bft-labs/fileship/internal/adapters/fs"
	"github.com/bft-labs/fileship/internal/adapters/tcp"
	"github.com/bft-labs/fileship/internal/app"
	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
)

// SenderConfig configures a Sender.
type SenderConfig struct {
	// WatchDir is the directory tree to replicate. Required.
	WatchDir string
	// Destinations are receiver addresses as host:port. At least one is required.
	Destinations []string

	// ReconnectInterval is the delay between connection attempts.
	ReconnectInterval time.Duration
	// ReconnectMax caps the delay when it grows. Equal to ReconnectInterval
	// by default, which gives a fixed retry interval.
	ReconnectMax time.Duration
	// ReconnectTimeout bounds how long a destination is retried before the
	// pending file is reported as ErrUnreachable. Zero retries forever.
	ReconnectTimeout time.Duration
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration

	// SettleDelay is how long a file must stay unmodified before it is sent.
	SettleDelay time.Duration
	// DispatchDelay is a short pause before a stable file is queued.
	DispatchDelay time.Duration
	// QueueSize is the number of files each destination may have waiting.
	QueueSize int
	// Ignore lists glob patterns of names that are never sent. Nil means
	// the default, which skips "*.part" files.
	Ignore []string
}

// SetDefaults fills zero fields with default values.
func (c *SenderConfig) SetDefaults() {
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = tcp.DefaultReconnectInterval
	}
	if c.ReconnectMax < c.ReconnectInterval {
		c.ReconnectMax = c.ReconnectInterval
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = tcp.DefaultDialTimeout
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = fs.DefaultSettleDelay
	}
	if c.QueueSize <= 0 {
		c.QueueSize = app.DefaultQueueSize
	}
	if c.Ignore == nil {
		c.Ignore = app.DefaultIgnore
	}
}

// Validate checks the configuration and parses the destinations.
func (c *SenderConfig) Validate() ([]domain.Destination, error) {
	if c.WatchDir == "" {
		return nil, fmt.Errorf("%w: watch dir is required", domain.ErrInvalidConfig)
	}
	if len(c.Destinations) == 0 {
		return nil, fmt.Errorf("%w: at least one destination is required", domain.ErrInvalidConfig)
	}
	dests := make([]domain.Destination, 0, len(c.Destinations))
	for _, s := range c.Destinations {
		d, err := domain.ParseDestination(s)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	if c.ReconnectTimeout < 0 || c.DispatchDelay < 0 {
		return nil, fmt.Errorf("%w: negative duration", domain.ErrInvalidConfig)
	}
	return dests, nil
}

// Sender watches a directory and replicates every file that settles in it
// to all destinations.
type Sender struct {
	config    SenderConfig
	dests     []domain.Destination
	opts      options
	emitter   *eventEmitterWrapper
	lifecycle *app.Lifecycle
	logger    log.Logger

	mu         sync.Mutex
	watcher    *fs.Watcher
	dispatcher *app.Dispatcher
}

// NewSender creates a Sender in StateStopped; call Start to begin watching.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func NewSender(cfg SenderConfig, opts ...Option) (*Sender, error) {
	cfg.SetDefaults()
	dests, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Sender{
		config:    cfg,
		dests:     dests,
		opts:      o,
		emitter:   emitter,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		logger:    o.logger,
	}, nil
}

// Start registers the watch on WatchDir and connects to every destination
// in the background. It fails if the directory cannot be watched.
// Files already present in WatchDir are not sent; only files written after
// Start are replicated.
func (s *Sender) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	fail := func(err error) error {
		s.release()
		_ = s.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		return err
	}

	root, err := filepath.Abs(s.config.WatchDir)
	if err != nil {
		return fail(err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return fail(fmt.Errorf("watch dir: %w", err))
	}
	if !fi.IsDir() {
		return fail(fmt.Errorf("watch dir %s is not a directory", root))
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	deliverers := make([]ports.Deliverer, 0, len(s.dests))
	for _, d := range s.dests {
		deliverers = append(deliverers, tcp.NewSender(d, tcp.SenderConfig{
			ReconnectInterval: s.config.ReconnectInterval,
			ReconnectMax:      s.config.ReconnectMax,
			ReconnectTimeout:  s.config.ReconnectTimeout,
			DialTimeout:       s.config.DialTimeout,
		}, s.logger))
	}
	s.dispatcher = app.NewDispatcher(deliverers, app.DispatcherConfig{QueueSize: s.config.QueueSize}, s.logger, s.emitter)

	s.watcher, err = fs.NewWatcher(s.config.SettleDelay, s.logger)
	if err != nil {
		cancel()
		return fail(fmt.Errorf("create watcher: %w", err))
	}
	loop, err := app.NewWatchLoop(app.WatchConfig{
		Root:          root,
		Ignore:        s.config.Ignore,
		DispatchDelay: s.config.DispatchDelay,
	}, s.watcher, s.dispatcher, s.logger)
	if err != nil {
		cancel()
		return fail(err)
	}
	if err := s.watcher.AddRecursive(root); err != nil {
		cancel()
		return fail(fmt.Errorf("watch %s: %w", root, err))
	}

	s.dispatcher.Start(runCtx)
	s.lifecycle.Go("watch", func() error {
		return loop.Run(runCtx)
	})

	s.logger.Info("watching",
		log.String("dir", root),
		log.Int("destinations", len(s.dests)),
	)
	return s.lifecycle.TransitionTo(app.StateRunning, "watch registered")
}

// Stop stops watching, lets each destination finish its current file and
// closes all connections. Files still queued are not sent.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *Sender) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		if s.lifecycle.State() == app.StateCrashed {
			s.release()
		}
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	s.mu.Lock()
	s.release()
	s.mu.Unlock()

	if err != nil {
		_ = s.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// release closes the watcher and dispatcher. Callers hold s.mu.
func (s *Sender) release() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("closing watcher", log.Err(err))
		}
		s.watcher = nil
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Close(); err != nil {
			s.logger.Warn("closing connections", log.Err(err))
		}
		s.dispatcher = nil
	}
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *Sender) Status() State {
	return convertState(s.lifecycle.State())
}
