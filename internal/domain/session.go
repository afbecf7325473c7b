package domain

import "time"

// SessionState is a state of the receiver session state machine.
type SessionState int

const (
	AwaitHeader SessionState = iota
	ReceivePayload
	Verify
	Publish
	Closed
)

func (s SessionState) String() string {
	switch s {
	case AwaitHeader:
		return "AwaitHeader"
	case ReceivePayload:
		return "ReceivePayload"
	case Verify:
		return "Verify"
	case Publish:
		return "Publish"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// SessionTransition is reported to observers on every receiver state change.
type SessionTransition struct {
	Session string
	From    SessionState
	To      SessionState
	// Name is the frame being processed, empty while awaiting a header.
	Name string
	// Elapsed is the time spent in From.
	Elapsed time.Duration
}
