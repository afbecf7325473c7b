package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
)

// Accept failures such as descriptor exhaustion are retried with this backoff.
const (
	acceptRetryMin = 5 * time.Millisecond
	acceptRetryMax = time.Second
)

// ServerConfig configures the receiving side.
type ServerConfig struct {
	// Root is the destination directory files are published under.
	Root string
	// ChunkSize is the payload copy buffer size per session.
	ChunkSize int
}

// Server accepts sender connections and runs one Session per connection.
// Sessions share nothing but the destination directory.
type Server struct {
	cfg      ServerConfig
	ln       net.Listener
	logger   log.Logger
	observer ports.SessionObserver

	// stop is canceled by Close and interrupts accept retries.
	stop   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen binds addr. Binding failures are returned; they are fatal setup errors.
func Listen(ctx context.Context, addr string, cfg ServerConfig, logger log.Logger, observer ports.SessionObserver) (*Server, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return newServer(ln, cfg, logger, observer), nil
}

func newServer(ln net.Listener, cfg ServerConfig, logger log.Logger, observer ports.SessionObserver) *Server {
	stop, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		ln:       ln,
		logger:   logger,
		observer: observer,
		stop:     stop,
		cancel:   cancel,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until Close is called, then returns nil.
// Accept errors never end it: they are logged and retried with backoff.
func (s *Server) Serve() error {
	s.logger.Info("listening", log.String("addr", s.ln.Addr().String()), log.String("root", s.cfg.Root))

	b := newBackoff(acceptRetryMin, acceptRetryMax)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed, retrying", log.Err(err), log.Duration("delay", b.Current()))
			if b.Wait(s.stop) != nil {
				return nil
			}
			continue
		}
		b.Reset()

		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	sess := NewSession(conn, s.cfg.Root, s.cfg.ChunkSize, s.logger, s.observer)
	s.logger.Info("accepted connection", log.String("peer", conn.RemoteAddr().String()), log.String("session", sess.ID()))

	if err := sess.Serve(); err != nil && !s.isClosed() {
		s.logger.Error("session closed with error",
			log.String("session", sess.ID()),
			log.Bool("protocol", IsProtocolError(err)),
			log.Err(err))
	}
}

// Close stops accepting, closes live connections and waits for their sessions.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	err := s.ln.Close()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
