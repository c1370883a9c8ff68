//go:build linux

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// dialRFCOMM connects a bluetooth RFCOMM stream socket to addr/channel.
// addr is in kernel (little-endian) byte order.
func dialRFCOMM(ctx context.Context, addr [6]byte, channel uint8) (io.ReadWriteCloser, error) {
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: channel}
	f, err := connectSocket(ctx, fd, sa, fmt.Sprintf("rfcomm:%x/%d", addr, channel))
	if err != nil {
		return nil, fmt.Errorf("rfcomm connect channel %d: %w", channel, err)
	}
	return f, nil
}

// socketFile wraps fd in a file registered with the runtime poller, so
// Close unblocks pending reads and writes. A blocking fd would leave a bridge
// pump stuck in Read after the session closes.
func socketFile(fd int, name string) (*os.File, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("set nonblock: %w", err)
	}
	return os.NewFile(uintptr(fd), name), nil
}

// connectSocket connects a stream socket without blocking the thread and
// returns it as a pollable file. Cancelling ctx aborts the wait.
// fd is owned by connectSocket and closed on any error.
func connectSocket(ctx context.Context, fd int, sa unix.Sockaddr, name string) (*os.File, error) {
	f, err := socketFile(fd, name)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	err = unix.Connect(fd, sa)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, unix.EINPROGRESS) {
		f.Close()
		return nil, err
	}

	// Wait for writability, then read the connect outcome.
	stop := context.AfterFunc(ctx, func() { f.SetWriteDeadline(time.Unix(1, 0)) })
	raw, err := f.SyscallConn()
	if err != nil {
		stop()
		f.Close()
		return nil, err
	}

	var connErr error
	werr := raw.Write(func(s uintptr) bool {
		connErr = connectResult(int(s))
		return !errors.Is(connErr, unix.EINPROGRESS)
	})
	if !stop() {
		f.Close()
		return nil, ctx.Err()
	}
	if werr != nil {
		f.Close()
		return nil, werr
	}
	if connErr != nil {
		f.Close()
		return nil, connErr
	}
	return f, nil
}

// connectResult reports the state of a pending connect: nil once connected,
// EINPROGRESS while still connecting, or the failure.
func connectResult(fd int) error {
	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	switch e := unix.Errno(soErr); e {
	case 0:
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return unix.EINPROGRESS
	default:
		return e
	}

	if _, err := unix.Getpeername(fd); err != nil {
		if errors.Is(err, unix.ENOTCONN) {
			return unix.EINPROGRESS
		}
		return err
	}
	return nil
}
