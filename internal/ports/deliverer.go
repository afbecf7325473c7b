package ports

import (
	"context"

	"github.com/bft-labs/fileship/internal/domain"
)

// Deliverer maintains the connection to a single destination.
// A Deliverer is owned by one goroutine and is not safe for concurrent use.
type Deliverer interface {
	// Destination returns the endpoint this deliverer sends to.
	Destination() domain.Destination

	// Connect establishes the connection, retrying with backoff.
	// It returns nil once connected, domain.ErrUnreachable if a reconnect
	// timeout is configured and expires, or the context error.
	Connect(ctx context.Context) error

	// Send transmits one file and waits for the receiver's answer.
	// One failed attempt is retried transparently; the second failure is returned.
	Send(ctx context.Context, t domain.Transfer) (domain.Receipt, error)

	// Close drops the connection.
	Close() error
}

// Dispatcher accepts files detected by the watch loop.
type Dispatcher interface {
	Dispatch(t domain.Transfer)
}
