//go:build unix

package tcp

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// noDelayControl disables Nagle on the socket before it connects.
func noDelayControl(network, address string, c syscall.RawConn) error {
	return setsockopt(c, unix.IPPROTO_TCP, unix.TCP_NODELAY)
}

// reuseAddrControl lets the receiver rebind its port right after a restart.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return setsockopt(c, unix.SOL_SOCKET, unix.SO_REUSEADDR)
}

func setsockopt(c syscall.RawConn, level, opt int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), level, opt, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
