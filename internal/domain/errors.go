package domain

import "errors"

// Lifecycle errors returned by the public API; check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("fileship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("fileship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("fileship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("fileship: invalid configuration")
)

// Delivery errors. A Delivery.Err wraps exactly one of these, or a
// filesystem error when the source file could not be read.
var (
	// ErrConnection means the connection broke during a send.
	ErrConnection = errors.New("fileship: connection error")

	// ErrRejected means the receiver answered NACK.
	ErrRejected = errors.New("fileship: rejected by receiver")

	// ErrUnreachable means the destination could not be reached within the
	// configured reconnect timeout.
	ErrUnreachable = errors.New("fileship: destination unreachable")

	// ErrQueueFull means the destination's queue had no room for the file.
	ErrQueueFull = errors.New("fileship: destination queue full")
)

// ErrUnsafePath is returned when a received name would resolve outside the
// destination root.
var ErrUnsafePath = errors.New("fileship: name escapes destination root")
