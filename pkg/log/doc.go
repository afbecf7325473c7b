// Package log provides the logging abstraction used by fileship components.
//
// The sender, receiver and CLI never talk to a logging library directly.
// They log through [Logger], which is satisfied by the zerolog adapter in this
// package and by a no-op logger for tests and embedding.
//
// # Usage
//
//	logger := log.NewZerologAdapter()
//	logger.Info("published", log.String("name", "a/b.bin"), log.Uint64("size", 42))
//
// Scoped loggers carry fields on every line:
//
//	sessionLog := logger.With(log.String("session", id))
//
// # Custom Loggers
//
// Implement [Logger] to route fileship output into an existing logging setup.
package log
