package domain

import (
	"fmt"
	"net"
	"strconv"
)

// Destination identifies one receiver endpoint.
type Destination struct {
	Host string
	Port uint16
}

// ParseDestination parses "host:port".
func ParseDestination(s string) (Destination, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Destination{}, fmt.Errorf("%w: destination %q: %v", ErrInvalidConfig, s, err)
	}
	if host == "" {
		return Destination{}, fmt.Errorf("%w: destination %q: missing host", ErrInvalidConfig, s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return Destination{}, fmt.Errorf("%w: destination %q: invalid port", ErrInvalidConfig, s)
	}
	return Destination{Host: host, Port: uint16(port)}, nil
}

// Addr returns the dialable address.
func (d Destination) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(int(d.Port)))
}

func (d Destination) String() string {
	return d.Addr()
}
