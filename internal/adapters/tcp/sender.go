package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bft-labs/fileship/internal/adapters/fs"
	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
	"github.com/bft-labs/fileship/pkg/protocol"
)

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 5 * time.Second

// SenderConfig controls connection establishment for one destination.
type SenderConfig struct {
	// ReconnectInterval is the delay after the first failed connection attempt.
	ReconnectInterval time.Duration
	// ReconnectMax caps the delay between attempts.
	ReconnectMax time.Duration
	// ReconnectTimeout bounds how long Connect keeps trying. Zero retries forever.
	ReconnectTimeout time.Duration
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
}

// Sender keeps one persistent connection to one destination and sends files
// over it, one frame at a time.
type Sender struct {
	dest   domain.Destination
	cfg    SenderConfig
	logger log.Logger
	conn   net.Conn
}

var _ ports.Deliverer = (*Sender)(nil)

// NewSender creates a sender. No connection is made until Connect or Send.
func NewSender(dest domain.Destination, cfg SenderConfig, logger log.Logger) *Sender {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DefaultReconnectMax
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	return &Sender{
		dest:   dest,
		cfg:    cfg,
		logger: logger.With(log.String("dest", dest.Addr())),
	}
}

// Destination implements ports.Deliverer.
func (s *Sender) Destination() domain.Destination {
	return s.dest
}

// Connect dials until a connection is up. It is a no-op when already connected.
func (s *Sender) Connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	var deadline time.Time
	if s.cfg.ReconnectTimeout > 0 {
		deadline = time.Now().Add(s.cfg.ReconnectTimeout)
	}
	b := newBackoff(s.cfg.ReconnectInterval, s.cfg.ReconnectMax)

	for attempt := 1; ; attempt++ {
		conn, err := s.dial(ctx)
		if err == nil {
			s.conn = conn
			s.logger.Info("connected", log.Int("attempts", attempt))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt == 1 {
			s.logger.Warn("connect failed, retrying", log.Err(err), log.Duration("interval", b.Current()))
		} else {
			s.logger.Debug("connect failed", log.Err(err), log.Int("attempt", attempt))
		}

		if !deadline.IsZero() && time.Now().Add(b.Current()).After(deadline) {
			return fmt.Errorf("%w: %s after %d attempts: %v", domain.ErrUnreachable, s.dest, attempt, err)
		}
		if err := b.Wait(ctx); err != nil {
			return err
		}
	}
}

func (s *Sender) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{
		Timeout: s.cfg.DialTimeout,
		Control: noDelayControl,
	}
	conn, err := d.DialContext(ctx, "tcp", s.dest.Addr())
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// Send delivers the file at t.Path under t.Name. A connection failure or a
// NACK is retried once, re-reading the file so the frame reflects its current
// content. Source read errors are returned without retrying.
func (s *Sender) Send(ctx context.Context, t domain.Transfer) (domain.Receipt, error) {
	var (
		receipt domain.Receipt
		lastErr error
	)
	for attempt := 1; attempt <= 2; attempt++ {
		receipt.Attempts = attempt
		if err := s.Connect(ctx); err != nil {
			return receipt, err
		}

		size, err := s.sendOnce(ctx, t)
		receipt.Size = size
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, domain.ErrConnection) && !errors.Is(err, domain.ErrRejected) {
			return receipt, err
		}
		lastErr = err
		if attempt == 1 {
			s.logger.Warn("send failed, retrying once", log.String("name", t.Name), log.Err(err))
		}
	}
	return receipt, lastErr
}

func (s *Sender) sendOnce(ctx context.Context, t domain.Transfer) (uint64, error) {
	if err := protocol.ValidateName(t.Name); err != nil {
		return 0, err
	}

	src, err := fs.ReadSource(t.Path)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	defer src.Close()

	// Shutdown is the only thing that interrupts a frame in flight.
	conn := s.conn
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	var h protocol.Header
	err = src.Use(func(data []byte) error {
		var werr error
		h, werr = protocol.WriteFrame(conn, t.Name, data)
		return werr
	})
	if err != nil {
		// Part of the frame may be on the wire already.
		s.drop()
		if errors.Is(err, fs.ErrSourceChanged) {
			return h.Size, fmt.Errorf("read source: %w", err)
		}
		return h.Size, fmt.Errorf("%w: write frame: %w", domain.ErrConnection, err)
	}

	ok, err := protocol.ReadAck(s.conn)
	if err != nil {
		s.drop()
		return h.Size, fmt.Errorf("%w: read ack: %w", domain.ErrConnection, err)
	}
	if !ok {
		return h.Size, fmt.Errorf("%w: %s", domain.ErrRejected, t.Name)
	}
	return h.Size, nil
}

func (s *Sender) drop() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// Close implements ports.Deliverer.
func (s *Sender) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
