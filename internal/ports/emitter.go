package ports

import "github.com/bft-labs/fileship/internal/domain"

// DeliveryEmitter is told about every send outcome, success or failure.
type DeliveryEmitter interface {
	OnDelivery(d domain.Delivery)
}

// SessionObserver is told about every receiver session state transition.
// Calls happen synchronously on the session goroutine.
type SessionObserver interface {
	OnSessionTransition(t domain.SessionTransition)
}
