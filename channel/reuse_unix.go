//go:build linux || darwin || freebsd || netbsd || openbsd

package channel

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseControl lets several processes on one host bind the domain port, as every
// participant in a multicast domain shares it.
func reuseControl(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if serr == nil {
			serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		}
	})
	if err != nil {
		return err
	}
	return serr
}
