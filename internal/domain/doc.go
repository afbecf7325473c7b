// Package domain contains the core entities shared by the sender and receiver.
//
// It has no dependencies on infrastructure (sockets, fsnotify, logging).
//
// # Entities
//
//   - [Destination]: one receiver endpoint (host:port)
//   - [FileEvent]: a change reported by the directory watcher
//   - [Delivery]: the outcome of sending one file to one destination
package domain
