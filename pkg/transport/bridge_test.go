package transport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/pkg/log"
)

const bridgeTimeout = 2 * time.Second

// bridgePair wires device <-> [remote, local] <-> app and returns the app and
// device ends the test drives.
func bridgePair(t *testing.T, opts ...BridgeOption) (s *Session, device, app net.Conn) {
	t.Helper()
	device, remote := net.Pipe()
	local, app := net.Pipe()
	s = Bridge(remote, local, opts...)
	t.Cleanup(func() {
		s.Close()
		device.Close()
		app.Close()
	})
	return s, device, app
}

func readN(t *testing.T, c io.Reader, n int) []byte {
	t.Helper()
	if d, ok := c.(interface{ SetReadDeadline(time.Time) error }); ok {
		d.SetReadDeadline(time.Now().Add(bridgeTimeout))
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return buf
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(bridgeTimeout):
		t.Fatal("session did not end")
	}
}

func TestBridgeForwardsBothWays(t *testing.T) {
	s, device, app := bridgePair(t)

	go device.Write([]byte("from-device"))
	if got := readN(t, app, len("from-device")); string(got) != "from-device" {
		t.Errorf("app got %q", got)
	}

	go app.Write([]byte("from-app"))
	if got := readN(t, device, len("from-app")); string(got) != "from-app" {
		t.Errorf("device got %q", got)
	}

	stats := s.Stats()
	if stats.RemoteToLocal != int64(len("from-device")) {
		t.Errorf("RemoteToLocal = %d", stats.RemoteToLocal)
	}
	if stats.LocalToRemote != int64(len("from-app")) {
		t.Errorf("LocalToRemote = %d", stats.LocalToRemote)
	}
	if s.State() != SessionOpen {
		t.Errorf("state = %s, want OPEN", s.State())
	}
}

func TestBridgeDeviceCloseEndsSession(t *testing.T) {
	s, device, app := bridgePair(t)

	device.Close()
	waitDone(t, s)

	if s.State() != SessionClosed {
		t.Errorf("state = %s, want CLOSED", s.State())
	}
	if err := s.Wait(); err != nil {
		t.Errorf("Wait = %v, want nil for a normal close", err)
	}

	// The local channel was closed too, so the app sees EOF.
	app.SetReadDeadline(time.Now().Add(bridgeTimeout))
	if _, err := app.Read(make([]byte, 1)); err == nil {
		t.Error("expected app read to fail after bridge close")
	}
}

func TestBridgeLocalCloseEndsSession(t *testing.T) {
	s, device, app := bridgePair(t)

	app.Close()
	waitDone(t, s)

	device.SetReadDeadline(time.Now().Add(bridgeTimeout))
	if _, err := device.Read(make([]byte, 1)); err == nil {
		t.Error("expected device read to fail after bridge close")
	}
}

func TestBridgeCloseIsIdempotent(t *testing.T) {
	s, _, _ := bridgePair(t)

	first := s.Close()
	second := s.Close()
	if first != second {
		t.Errorf("Close results differ: %v vs %v", first, second)
	}
	waitDone(t, s)
}

type panicReader struct{ closed chan struct{} }

func (p *panicReader) Read([]byte) (int, error) { panic("boom") }
func (p *panicReader) Write(b []byte) (int, error) {
	<-p.closed
	return 0, io.ErrClosedPipe
}
func (p *panicReader) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

func TestBridgePumpPanicClosesBoth(t *testing.T) {
	remote := &panicReader{closed: make(chan struct{})}
	local, app := net.Pipe()
	defer app.Close()

	s := Bridge(remote, local)
	waitDone(t, s)

	err := s.Wait()
	if err == nil || !bytes.Contains([]byte(err.Error()), []byte("panic")) {
		t.Errorf("Wait = %v, want pump panic", err)
	}
	select {
	case <-remote.closed:
	default:
		t.Error("remote not closed")
	}
}

type zeroReader struct{ io.ReadWriteCloser }

func (zeroReader) Read([]byte) (int, error) { return 0, nil }

func TestBridgeZeroReadIsClose(t *testing.T) {
	device, remote := net.Pipe()
	defer device.Close()
	local, app := net.Pipe()
	defer app.Close()

	s := Bridge(zeroReader{remote}, local)
	waitDone(t, s)
	if err := s.Wait(); err != nil {
		t.Errorf("Wait = %v, want nil", err)
	}
}

func TestBridgeLogsSessionState(t *testing.T) {
	rec := &recordingLogger{}
	id := uuid.New()
	s, device, _ := bridgePair(t, WithSessionID(id), WithProtocolLogger(rec, "AA:BB"), WithChunkSize(16))

	if s.ID() != id {
		t.Errorf("ID = %s, want %s", s.ID(), id)
	}
	device.Close()
	waitDone(t, s)

	events := rec.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Layer != log.LayerBridge || e.DeviceAddr != "AA:BB" || e.ConnectionID != id.String() {
			t.Errorf("unexpected event %+v", e)
		}
	}
	if events[0].StateChange.NewState != "OPEN" || events[1].StateChange.NewState != "CLOSED" {
		t.Errorf("states = %s, %s", events[0].StateChange.NewState, events[1].StateChange.NewState)
	}
}

func TestLocalPair(t *testing.T) {
	a, b, err := LocalPair()
	if err != nil {
		t.Fatalf("LocalPair failed: %v", err)
	}
	defer a.Close()
	defer b.Close()

	go a.Write([]byte("ping"))
	if got := readN(t, b, 4); string(got) != "ping" {
		t.Errorf("b got %q", got)
	}

	go b.Write([]byte("pong"))
	if got := readN(t, a, 4); string(got) != "pong" {
		t.Errorf("a got %q", got)
	}
}
