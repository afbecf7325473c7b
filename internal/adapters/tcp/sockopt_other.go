//go:build !unix

package tcp

import "syscall"

// On non-unix platforms the runtime defaults are used and TCP_NODELAY is
// applied with SetNoDelay after connecting.
var (
	noDelayControl   func(network, address string, c syscall.RawConn) error
	reuseAddrControl func(network, address string, c syscall.RawConn) error
)
