// Package fileship provides an embeddable file replicator.
//
// A [Sender] watches a directory tree and, whenever a file settles, sends it
// to every configured destination over a persistent TCP connection. A
// [Receiver] accepts those connections, verifies each file against its
// BLAKE3 checksum and publishes it under its destination directory with an
// atomic rename, so readers never observe a partially written file.
//
// # Basic Usage
//
// On the receiving host:
//
//	r, err := fileship.NewReceiver(fileship.ReceiverConfig{
//	    Listen:  "0.0.0.0:5001",
//	    DestDir: "/srv/replica",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := r.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Stop()
//
// On the source host:
//
//	s, err := fileship.NewSender(fileship.SenderConfig{
//	    WatchDir:     "/srv/outbox",
//	    Destinations: []string{"10.0.0.2:5001", "10.0.0.3:5001"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Stop()
//
// # Delivery Semantics
//
// Each destination has its own connection, queue and worker, so a slow or
// unreachable destination never delays the others. A failed send is retried
// once, re-reading the file. Files are not persisted for later retry: a
// file that fails twice is reported through [EventHandler.OnDelivery] and
// dropped.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [NoopEventHandler] for defaults) and
// pass it via [WithEventHandler] to observe lifecycle changes, delivery
// outcomes and receiver session transitions.
//
// # Lifecycle States
//
// Senders and receivers move through [StateStopped], [StateStarting],
// [StateRunning], [StateStopping] and [StateCrashed]. Use Status to query
// the current state.
package fileship
