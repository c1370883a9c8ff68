//go:build !unix

package transport

import (
	"io"
	"net"
)

// LocalPair returns the two connected ends of an in-memory duplex channel.
func LocalPair() (io.ReadWriteCloser, io.ReadWriteCloser, error) {
	a, b := net.Pipe()
	return a, b, nil
}
