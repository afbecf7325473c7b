package domain

import "time"

// Delivery records the outcome of sending one file to one destination.
type Delivery struct {
	Destination Destination
	Name        string
	Size        uint64
	Attempts    int
	Duration    time.Duration
	Err         error
}

// OK reports whether the file was published on the destination.
func (d Delivery) OK() bool {
	return d.Err == nil
}

// Receipt describes a completed send as seen by the sender.
type Receipt struct {
	Size     uint64
	Attempts int
}
