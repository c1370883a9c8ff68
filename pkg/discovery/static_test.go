package discovery_test

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbridge/rrbridge-go/pkg/discovery"
)

func TestNewStaticAdapterValidation(t *testing.T) {
	tests := []struct {
		name    string
		device  discovery.StaticDevice
		wantErr error
	}{
		{
			name:   "tcp ok",
			device: discovery.StaticDevice{Network: discovery.NetworkTCP, Address: "127.0.0.1:4000"},
		},
		{
			name:    "tcp missing port",
			device:  discovery.StaticDevice{Network: discovery.NetworkTCP, Address: "127.0.0.1"},
			wantErr: discovery.ErrInvalidAddress,
		},
		{
			name:   "rfcomm ok",
			device: discovery.StaticDevice{Network: discovery.NetworkRFCOMM, Address: "00:1A:7D:DA:71:13", Channel: 1},
		},
		{
			name:    "rfcomm bad address",
			device:  discovery.StaticDevice{Network: discovery.NetworkRFCOMM, Address: "00:1A:7D"},
			wantErr: discovery.ErrInvalidAddress,
		},
		{
			name:    "unknown network",
			device:  discovery.StaticDevice{Network: "udp", Address: "x"},
			wantErr: discovery.ErrUnsupportedNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := discovery.NewStaticAdapter([]discovery.StaticDevice{tt.device})
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStaticAdapterDevices(t *testing.T) {
	custom := uuid.New()
	adapter, err := discovery.NewStaticAdapter([]discovery.StaticDevice{
		{Name: "lab", Network: discovery.NetworkTCP, Address: "127.0.0.1:1"},
		{Network: discovery.NetworkTCP, Address: "127.0.0.1:2", Services: []uuid.UUID{custom}},
	})
	require.NoError(t, err)

	devices, err := adapter.BondedDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "lab", devices[0].Name())
	assert.Equal(t, []uuid.UUID{discovery.DefaultServiceID}, devices[0].ServiceIDs())
	assert.NoError(t, devices[0].RefreshServices(context.Background()))

	assert.Equal(t, "127.0.0.1:2", devices[1].Name())
	assert.Equal(t, []uuid.UUID{custom}, devices[1].ServiceIDs())

	_, err = devices[1].Dial(context.Background(), discovery.DefaultServiceID)
	assert.ErrorIs(t, err, discovery.ErrServiceNotFound)
}

func TestStaticDeviceDialTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		close(accepted)
	}()

	adapter, err := discovery.NewStaticAdapter([]discovery.StaticDevice{
		{Network: discovery.NetworkTCP, Address: ln.Addr().String()},
	})
	require.NoError(t, err)
	devices, err := adapter.BondedDevices(context.Background())
	require.NoError(t, err)

	conn, err := devices[0].Dial(context.Background(), discovery.DefaultServiceID)
	require.NoError(t, err)
	conn.Close()
	<-accepted
}

func TestParseBluetoothAddress(t *testing.T) {
	addr, err := discovery.ParseBluetoothAddress("00:1A:7D:DA:71:13")
	require.NoError(t, err)
	assert.Equal(t, [6]byte{0x13, 0x71, 0xDA, 0x7D, 0x1A, 0x00}, addr)

	for _, bad := range []string{"", "00:1A:7D:DA:71", "00:1A:7D:DA:71:GG", "001:1A:7D:DA:71:13"} {
		_, err := discovery.ParseBluetoothAddress(bad)
		assert.ErrorIs(t, err, discovery.ErrInvalidAddress, bad)
	}
}
