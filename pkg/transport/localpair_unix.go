//go:build unix

package transport

import (
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// LocalPair returns the two connected ends of a local duplex channel.
// On Unix this is a socketpair, so either end can be handed to another
// process as a file descriptor.
func LocalPair() (io.ReadWriteCloser, io.ReadWriteCloser, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	a, err := fdConn(fds[0], "rr-local-a")
	if err != nil {
		unix.Close(fds[1])
		return nil, nil, err
	}
	b, err := fdConn(fds[1], "rr-local-b")
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, b, nil
}

func fdConn(fd int, name string) (net.Conn, error) {
	unix.CloseOnExec(fd)
	f := os.NewFile(uintptr(fd), name)
	// FileConn dups the descriptor; the original is closed either way.
	defer f.Close()

	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("wrap %s: %w", name, err)
	}
	return conn, nil
}
