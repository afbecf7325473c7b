package ports

import "github.com/bft-labs/fileship/internal/domain"

// EventSource yields directory events for a watched tree.
type EventSource interface {
	// Events delivers file-stable and dir-created events. It is closed when
	// the source is closed.
	Events() <-chan domain.FileEvent

	// Errors delivers non-fatal watcher errors.
	Errors() <-chan error

	// AddRecursive watches dir and every directory below it.
	AddRecursive(dir string) error

	// Arm schedules a file-stable event for path once it stops changing.
	Arm(path string)

	Close() error
}
