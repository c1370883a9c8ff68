package discovery

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// StaticDevice declares a device reachable without discovery.
type StaticDevice struct {
	// Name is the display name (defaults to Address).
	Name string

	// Network is NetworkTCP or NetworkRFCOMM.
	Network string

	// Address is host:port for tcp, or a bluetooth address for rfcomm.
	Address string

	// Channel is the RFCOMM channel (rfcomm only).
	Channel uint8

	// Services lists the service ids the device is known to offer.
	// Empty means DefaultServiceID.
	Services []uuid.UUID
}

// StaticAdapter serves a fixed device list, typically from a config file.
type StaticAdapter struct {
	devices []StaticDevice
	dialer  net.Dialer
}

// NewStaticAdapter validates devices and returns an adapter over them.
func NewStaticAdapter(devices []StaticDevice) (*StaticAdapter, error) {
	for i, d := range devices {
		switch d.Network {
		case NetworkTCP:
			if _, _, err := net.SplitHostPort(d.Address); err != nil {
				return nil, fmt.Errorf("device %d: %w: %v", i, ErrInvalidAddress, err)
			}
		case NetworkRFCOMM:
			if _, err := ParseBluetoothAddress(d.Address); err != nil {
				return nil, fmt.Errorf("device %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("device %d: %w: %q", i, ErrUnsupportedNetwork, d.Network)
		}
	}
	return &StaticAdapter{devices: slices.Clone(devices)}, nil
}

// BondedDevices returns the configured devices.
func (a *StaticAdapter) BondedDevices(ctx context.Context) ([]Device, error) {
	devices := make([]Device, 0, len(a.devices))
	for _, d := range a.devices {
		devices = append(devices, &staticDevice{config: d, adapter: a})
	}
	return devices, nil
}

type staticDevice struct {
	config  StaticDevice
	adapter *StaticAdapter
}

func (d *staticDevice) Address() string {
	return d.config.Address
}

func (d *staticDevice) Name() string {
	if d.config.Name != "" {
		return d.config.Name
	}
	return d.config.Address
}

func (d *staticDevice) ServiceIDs() []uuid.UUID {
	if len(d.config.Services) == 0 {
		return []uuid.UUID{DefaultServiceID}
	}
	return slices.Clone(d.config.Services)
}

// RefreshServices is a no-op: the metadata is configured.
func (d *staticDevice) RefreshServices(ctx context.Context) error {
	return nil
}

func (d *staticDevice) Dial(ctx context.Context, service uuid.UUID) (io.ReadWriteCloser, error) {
	if !slices.Contains(d.ServiceIDs(), service) {
		return nil, fmt.Errorf("%w: %s on %s", ErrServiceNotFound, service, d.Name())
	}

	switch d.config.Network {
	case NetworkTCP:
		conn, err := d.adapter.dialer.DialContext(ctx, "tcp", d.config.Address)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", d.config.Address, err)
		}
		return conn, nil
	case NetworkRFCOMM:
		addr, err := ParseBluetoothAddress(d.config.Address)
		if err != nil {
			return nil, err
		}
		return dialRFCOMM(ctx, addr, d.config.Channel)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, d.config.Network)
	}
}

// ParseBluetoothAddress parses "AA:BB:CC:DD:EE:FF" into the little-endian
// byte order used by the kernel socket address (last octet first).
func ParseBluetoothAddress(s string) ([6]byte, error) {
	var addr [6]byte

	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		addr[5-i] = b[0]
	}
	return addr, nil
}

// Ensure StaticAdapter implements Adapter interface.
var _ Adapter = (*StaticAdapter)(nil)
