//go:build !linux

package discovery

import (
	"context"
	"fmt"
	"io"
)

func dialRFCOMM(ctx context.Context, addr [6]byte, channel uint8) (io.ReadWriteCloser, error) {
	return nil, fmt.Errorf("%w: rfcomm", ErrUnsupportedNetwork)
}
