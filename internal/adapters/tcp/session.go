package tcp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/fileship/internal/adapters/fs"
	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/internal/ports"
	"github.com/bft-labs/fileship/pkg/log"
	"github.com/bft-labs/fileship/pkg/protocol"
)

// DefaultChunkSize is the payload copy buffer size.
const DefaultChunkSize = 1 << 20

// Session serves the frames of one accepted connection, strictly in order:
// read header, receive payload into a partial file, verify, publish, answer.
type Session struct {
	id       string
	conn     net.Conn
	root     string
	buf      []byte
	logger   log.Logger
	observer ports.SessionObserver

	state   domain.SessionState
	entered time.Time
}

// NewSession creates a session writing under root. observer may be nil.
func NewSession(conn net.Conn, root string, chunkSize int, logger log.Logger, observer ports.SessionObserver) *Session {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	id := uuid.NewString()
	return &Session{
		id:   id,
		conn: conn,
		root: root,
		buf:  make([]byte, chunkSize),
		logger: logger.With(
			log.String("session", id),
			log.String("peer", conn.RemoteAddr().String()),
		),
		observer: observer,
		state:    domain.AwaitHeader,
		entered:  time.Now(),
	}
}

// ID returns the session identifier used in logs and observer events.
func (s *Session) ID() string {
	return s.id
}

// Serve processes frames until the peer disconnects or the stream breaks.
// A clean disconnect between frames returns nil. Serve does not close conn.
func (s *Session) Serve() error {
	defer s.transition(domain.Closed, "")

	for {
		h, err := protocol.ReadHeader(s.conn)
		if err == io.EOF {
			s.logger.Info("peer closed connection")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		published, err := s.receive(h)
		if err != nil {
			return err
		}
		if err := protocol.WriteAck(s.conn, published); err != nil {
			return fmt.Errorf("write ack: %w", err)
		}
		s.transition(domain.AwaitHeader, "")
	}
}

// receive handles one frame after its header. It returns false with a nil
// error for per-file failures, which are answered with NACK, and an error
// only when the stream itself can no longer be trusted.
func (s *Session) receive(h protocol.Header) (bool, error) {
	s.transition(domain.ReceivePayload, h.Name)
	fields := []log.Field{log.String("name", h.Name), log.Uint64("size", h.Size)}

	if h.Size > math.MaxInt64 {
		return false, fmt.Errorf("frame %s: size %d out of range", h.Name, h.Size)
	}

	final, err := fs.SafeJoin(s.root, h.Name)
	if err != nil {
		s.logger.Warn("rejecting unsafe name", append(fields, log.Err(err))...)
		return false, s.drain(h)
	}

	pending, err := fs.CreatePending(final)
	if err != nil {
		s.logger.Error("cannot create partial file", append(fields, log.Err(err))...)
		return false, s.drain(h)
	}
	s.logger.Debug("receiving", append(fields, log.String("part", pending.Path()))...)

	hasher := protocol.NewHasher()
	sink := &faultWriter{w: pending}
	n, err := io.CopyBuffer(io.MultiWriter(sink, hasher), io.LimitReader(s.conn, int64(h.Size)), s.buf)
	if err == nil && uint64(n) != h.Size {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		pending.Discard()
		return false, fmt.Errorf("%w: payload of %s (%d/%d bytes): %w", protocol.ErrIncompleteFrame, h.Name, n, h.Size, err)
	}
	if sink.err == nil {
		sink.err = pending.Finish()
	}

	s.transition(domain.Verify, h.Name)
	if sink.err != nil {
		s.logger.Error("write failed", append(fields, log.Err(sink.err))...)
		pending.Discard()
		return false, nil
	}
	if got := protocol.DigestOf(hasher); got != h.Checksum {
		s.logger.Warn("checksum mismatch",
			append(fields, log.String("want", fmt.Sprintf("%x", h.Checksum)), log.String("got", fmt.Sprintf("%x", got)))...)
		pending.Discard()
		return false, nil
	}

	s.transition(domain.Publish, h.Name)
	if err := pending.Commit(); err != nil {
		s.logger.Error("publish failed", append(fields, log.Err(err))...)
		pending.Discard()
		return false, nil
	}
	s.logger.Info("published", append(fields, log.String("path", pending.Final()))...)
	return true, nil
}

// drain consumes the payload of a rejected frame so the next header lines up.
func (s *Session) drain(h protocol.Header) error {
	n, err := io.CopyBuffer(io.Discard, io.LimitReader(s.conn, int64(h.Size)), s.buf)
	if err == nil && uint64(n) != h.Size {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return fmt.Errorf("%w: draining %s: %w", protocol.ErrIncompleteFrame, h.Name, err)
	}
	return nil
}

func (s *Session) transition(to domain.SessionState, name string) {
	now := time.Now()
	from, elapsed := s.state, now.Sub(s.entered)
	s.state, s.entered = to, now
	if s.observer != nil {
		s.observer.OnSessionTransition(domain.SessionTransition{
			Session: s.id,
			From:    from,
			To:      to,
			Name:    name,
			Elapsed: elapsed,
		})
	}
}

// faultWriter keeps accepting bytes after the first write error so the
// payload can still be consumed and hashed; the error is reported afterwards.
type faultWriter struct {
	w   io.Writer
	err error
}

func (f *faultWriter) Write(p []byte) (int, error) {
	if f.err == nil {
		if _, err := f.w.Write(p); err != nil {
			f.err = err
		}
	}
	return len(p), nil
}

// IsProtocolError reports whether err means the peer broke the framing.
func IsProtocolError(err error) bool {
	return errors.Is(err, protocol.ErrIncompleteFrame) || errors.Is(err, protocol.ErrInvalidName)
}
