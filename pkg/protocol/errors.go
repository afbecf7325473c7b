package protocol

import "errors"

var (
	// ErrNameTooLong is returned when a name does not fit the 16-bit length prefix.
	ErrNameTooLong = errors.New("protocol: name longer than 65535 bytes")

	// ErrInvalidName is returned for empty or non-UTF-8 names. On the read side
	// the stream can no longer be trusted and the connection must be dropped.
	ErrInvalidName = errors.New("protocol: invalid name")

	// ErrIncompleteFrame is returned when the peer closes mid-frame.
	ErrIncompleteFrame = errors.New("protocol: incomplete frame")
)
