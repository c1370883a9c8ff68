package connector

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/discovery/mocks"
	"github.com/rrbridge/rrbridge-go/pkg/node"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

var (
	robotID   = uuid.MustParse("6f1e2a3b-0c4d-4e5f-8a9b-0c1d2e3f4a5b")
	robot     = wire.NodeIdentity{Name: "create-robot", ID: robotID}
	webcam    = wire.NodeIdentity{Name: "webcam", ID: uuid.MustParse("11111111-2222-4333-8444-555555555555")}
	errRadio  = errors.New("radio busy")
	advertise = []uuid.UUID{discovery.DefaultServiceID}
)

// trackedConn records whether the client end of a dial was closed.
type trackedConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

// fakeDevice is an in-memory device whose node side is a node.Responder.
type fakeDevice struct {
	addr      string
	responder *node.Responder

	mu       sync.Mutex
	services []uuid.UUID
	// late is published to services this long after RefreshServices.
	late      []uuid.UUID
	lateDelay time.Duration

	failDials int32
	dials     atomic.Int32
	conns     []*trackedConn
}

func newFakeDevice(addr string, identity wire.NodeIdentity, services []uuid.UUID) *fakeDevice {
	return &fakeDevice{
		addr:      addr,
		services:  services,
		responder: node.NewResponder(node.Config{Identity: identity, Handler: node.EchoHandler}),
	}
}

func (d *fakeDevice) Address() string { return d.addr }
func (d *fakeDevice) Name() string    { return d.addr }

func (d *fakeDevice) ServiceIDs() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.services
}

func (d *fakeDevice) RefreshServices(ctx context.Context) error {
	d.mu.Lock()
	late, delay := d.late, d.lateDelay
	d.mu.Unlock()
	if late == nil {
		return nil
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	d.mu.Lock()
	d.services = late
	d.mu.Unlock()
	return nil
}

func (d *fakeDevice) Dial(ctx context.Context, service uuid.UUID) (io.ReadWriteCloser, error) {
	if n := d.dials.Add(1); n <= d.failDials {
		return nil, errRadio
	}

	client, server := net.Pipe()
	go d.responder.ServeConn(context.Background(), server)

	tc := &trackedConn{Conn: client}
	d.mu.Lock()
	d.conns = append(d.conns, tc)
	d.mu.Unlock()
	return tc, nil
}

// openConns counts dialed connections still open.
func (d *fakeDevice) openConns() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.conns {
		if !c.closed.Load() {
			n++
		}
	}
	return n
}

func adapterWith(t *testing.T, devices ...*fakeDevice) *mocks.MockAdapter {
	list := make([]discovery.Device, len(devices))
	for i, d := range devices {
		list[i] = d
	}
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().BondedDevices(mock.Anything).Return(list, nil).Maybe()
	return adapter
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 400 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Identity = wire.NodeIdentity{Name: "tester"}
	return cfg
}
