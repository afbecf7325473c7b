package fileship

import (
	"time"

	"github.com/bft-labs/fileship/internal/app"
	"github.com/bft-labs/fileship/internal/domain"
)

// State is the lifecycle state of a Sender or Receiver.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// SessionState is a state of a receiver session.
type SessionState = domain.SessionState

// Receiver session states, in the order a frame passes through them.
const (
	AwaitHeader    = domain.AwaitHeader
	ReceivePayload = domain.ReceivePayload
	Verify         = domain.Verify
	Publish        = domain.Publish
	Closed         = domain.Closed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// DeliveryEvent records the outcome of sending one file to one destination.
type DeliveryEvent struct {
	// Destination is the receiver address as host:port.
	Destination string
	Name        string
	Size        uint64
	Attempts    int
	Duration    time.Duration
	// Err is nil on success. Check it with errors.Is against ErrConnection,
	// ErrRejected, ErrUnreachable or ErrQueueFull.
	Err error
}

// SessionEvent is emitted on every receiver session state transition.
type SessionEvent struct {
	Session string
	From    SessionState
	To      SessionState
	Name    string
	Elapsed time.Duration
}

// EventHandler receives fileship events. Embed NoopEventHandler to
// implement only the methods you need.
type EventHandler interface {
	OnStateChange(e StateChangeEvent)
	OnDelivery(e DeliveryEvent)
	OnSessionTransition(e SessionEvent)
}

// NoopEventHandler ignores all events.
type NoopEventHandler struct{}

func (NoopEventHandler) OnStateChange(StateChangeEvent)   {}
func (NoopEventHandler) OnDelivery(DeliveryEvent)         {}
func (NoopEventHandler) OnSessionTransition(SessionEvent) {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnDelivery(d domain.Delivery) {
	if e.handler == nil {
		return
	}
	e.handler.OnDelivery(DeliveryEvent{
		Destination: d.Destination.String(),
		Name:        d.Name,
		Size:        d.Size,
		Attempts:    d.Attempts,
		Duration:    d.Duration,
		Err:         d.Err,
	})
}

func (e *eventEmitterWrapper) OnSessionTransition(t domain.SessionTransition) {
	if e.handler == nil {
		return
	}
	e.handler.OnSessionTransition(SessionEvent{
		Session: t.Session,
		From:    t.From,
		To:      t.To,
		Name:    t.Name,
		Elapsed: t.Elapsed,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
