package fileship

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/bft-labs/fileship/internal/adapters/tcp"
	"github.com/bft-labs/fileship/internal/app"
	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/pkg/log"
)

// DefaultListenAddr is the receiver's default bind address.
const DefaultListenAddr = "0.0.0.0:5001"

// ReceiverConfig configures a Receiver.
type ReceiverConfig struct {
	// Listen is the TCP address to bind. Use port 0 to pick a free port.
	Listen string
	// DestDir is the root that received names are published under. It is
	// created if missing. Required.
	DestDir string
	// ChunkSize is the copy buffer size of each session.
	ChunkSize int
}

// SetDefaults fills zero fields with default values.
func (c *ReceiverConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = tcp.DefaultChunkSize
	}
}

// Validate checks the configuration.
func (c *ReceiverConfig) Validate() error {
	if c.DestDir == "" {
		return fmt.Errorf("%w: dest dir is required", domain.ErrInvalidConfig)
	}
	return nil
}

// Receiver accepts senders and publishes verified files under DestDir.
type Receiver struct {
	config    ReceiverConfig
	opts      options
	emitter   *eventEmitterWrapper
	lifecycle *app.Lifecycle
	logger    log.Logger

	mu     sync.Mutex
	server *tcp.Server
}

// NewReceiver creates a Receiver in StateStopped; call Start to bind.
func NewReceiver(cfg ReceiverConfig, opts ...Option) (*Receiver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	return &Receiver{
		config:    cfg,
		opts:      o,
		emitter:   emitter,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		logger:    o.logger,
	}, nil
}

// Start binds the listen address and serves connections in the background.
// It fails if the address cannot be bound or DestDir cannot be created.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	fail := func(err error) error {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		return err
	}

	if err := os.MkdirAll(r.config.DestDir, 0o755); err != nil {
		return fail(fmt.Errorf("dest dir: %w", err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.lifecycle.SetCancel(cancel)

	server, err := tcp.Listen(runCtx, r.config.Listen, tcp.ServerConfig{
		Root:      r.config.DestDir,
		ChunkSize: r.config.ChunkSize,
	}, r.logger, r.emitter)
	if err != nil {
		cancel()
		return fail(fmt.Errorf("listen %s: %w", r.config.Listen, err))
	}
	r.server = server

	r.lifecycle.Go("listener", server.Serve)
	// A canceled parent context stops the listener like Stop does.
	r.lifecycle.Go("shutdown", func() error {
		<-runCtx.Done()
		if err := server.Close(); err != nil {
			r.logger.Warn("closing listener", log.Err(err))
		}
		return nil
	})

	return r.lifecycle.TransitionTo(app.StateRunning, "listening on "+server.Addr().String())
}

// Addr returns the bound address, or nil when not running.
func (r *Receiver) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.server == nil {
		return nil
	}
	return r.server.Addr()
}

// Stop closes the listener and all live sessions. A file that was being
// received is discarded, never published.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (r *Receiver) Stop() error {
	r.mu.Lock()

	if !r.lifecycle.CanStop() {
		if r.lifecycle.State() == app.StateCrashed && r.server != nil {
			r.lifecycle.Cancel()
			r.server = nil
		}
		r.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}
	r.lifecycle.Cancel()
	r.mu.Unlock()

	err := r.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	r.mu.Lock()
	r.server = nil
	r.mu.Unlock()

	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Receiver) Status() State {
	return convertState(r.lifecycle.State())
}
