// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [Deliverer]: owns the connection to one destination and sends files over it
//   - [EventSource]: yields directory events for the watch root
//   - [Dispatcher]: accepts transfers from the watch loop
//   - [DeliveryEmitter], [SessionObserver]: observability hooks
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with TCP sockets and fsnotify,
// which keeps the dispatcher and watch loop testable with in-memory fakes.
package ports
