//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package channel

import "syscall"

func reuseControl(network, address string, c syscall.RawConn) error {
	return nil
}
