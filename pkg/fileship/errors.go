package fileship

import (
	"github.com/bft-labs/fileship/internal/domain"
	"github.com/bft-labs/fileship/pkg/protocol"
)

// Errors returned by Start and Stop or carried by DeliveryEvent.Err.
// Check them with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig

	ErrConnection  = domain.ErrConnection
	ErrRejected    = domain.ErrRejected
	ErrUnreachable = domain.ErrUnreachable
	ErrQueueFull   = domain.ErrQueueFull
	ErrNameTooLong = protocol.ErrNameTooLong
)
