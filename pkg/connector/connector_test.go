package connector

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rrbridge/rrbridge-go/pkg/connection"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/discovery/mocks"
	"github.com/rrbridge/rrbridge-go/pkg/log"
)

var byName = ConnectionParams{NodeName: "create-robot"}

// echo writes msg to rw and expects it back within a second.
func echo(t *testing.T, rw io.ReadWriter, msg string) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		if _, err := rw.Write([]byte(msg)); err != nil {
			done <- err
			return
		}
		buf := make([]byte, len(msg))
		if _, err := io.ReadFull(rw, buf); err != nil {
			done <- err
			return
		}
		if string(buf) != msg {
			done <- errors.New("echo mismatch: " + string(buf))
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("no echo")
	}
}

func TestConnectNoDevices(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().BondedDevices(mock.Anything).Return(nil, nil).Once()

	c := New(adapter, testConfig())
	start := time.Now()
	_, err := c.Connect(context.Background(), byName)

	assert.ErrorIs(t, err, discovery.ErrNoDevices)
	assert.Less(t, time.Since(start), c.Config().Timeout)
}

func TestConnectAdapterError(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().BondedDevices(mock.Anything).Return(nil, errRadio).Once()

	_, err := New(adapter, testConfig()).Connect(context.Background(), byName)
	assert.ErrorIs(t, err, errRadio)
}

func TestConnectNeverAdvertisingTimesOut(t *testing.T) {
	quiet := newFakeDevice("quiet", robot, nil)
	c := New(adapterWith(t, quiet), testConfig())

	start := time.Now()
	_, err := c.Connect(context.Background(), byName)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.GreaterOrEqual(t, elapsed, c.Config().Timeout)
	assert.Less(t, elapsed, 3*c.Config().Timeout)
	assert.Zero(t, quiet.dials.Load())
}

func TestConnectSingleMatch(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)
	rec := &eventRecorder{}
	cfg := testConfig()
	cfg.ProtocolLogger = rec

	conn, err := New(adapterWith(t, dev), cfg).Connect(context.Background(), byName)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, robot, conn.Node)
	assert.Equal(t, int32(1), dev.dials.Load())
	echo(t, conn, "hello node")

	var connected bool
	for _, e := range rec.snapshot() {
		if e.StateChange != nil && e.StateChange.Entity == log.StateEntityAttempt && e.StateChange.NewState == "CONNECTED" {
			connected = true
		}
	}
	assert.True(t, connected)

	require.NoError(t, conn.Close())
	select {
	case <-conn.Session.Done():
	case <-time.After(time.Second):
		t.Fatal("session still running after Close")
	}
	assert.Eventually(t, func() bool { return dev.openConns() == 0 }, time.Second, 10*time.Millisecond)
}

func TestConnectSkipsNonMatchingNodes(t *testing.T) {
	cam := newFakeDevice("cam", webcam, advertise)
	bot := newFakeDevice("robot", robot, advertise)

	conn, err := New(adapterWith(t, cam, bot), testConfig()).Connect(context.Background(), byName)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, robot, conn.Node)
	assert.Equal(t, 0, cam.openConns())
}

func TestConnectConcurrentMatchesCommitOnce(t *testing.T) {
	devices := []*fakeDevice{
		newFakeDevice("r1", robot, advertise),
		newFakeDevice("r2", robot, advertise),
		newFakeDevice("r3", robot, advertise),
		newFakeDevice("r4", robot, advertise),
	}

	conn, err := New(adapterWith(t, devices...), testConfig()).Connect(context.Background(), byName)
	require.NoError(t, err)
	defer conn.Close()

	// All probes have returned by now; only the winner's connection is open.
	open := 0
	for _, d := range devices {
		open += d.openConns()
	}
	assert.Equal(t, 1, open)
	echo(t, conn, "one winner")
}

func TestConnectLateMetadata(t *testing.T) {
	dev := newFakeDevice("robot", robot, nil)
	dev.late = advertise
	dev.lateDelay = 80 * time.Millisecond

	start := time.Now()
	conn, err := New(adapterWith(t, dev), testConfig()).Connect(context.Background(), byName)
	require.NoError(t, err)
	defer conn.Close()

	assert.GreaterOrEqual(t, time.Since(start), dev.lateDelay)
	assert.Equal(t, int32(1), dev.dials.Load())
}

func TestConnectMetadataAfterTimeout(t *testing.T) {
	dev := newFakeDevice("robot", robot, nil)
	dev.late = advertise
	dev.lateDelay = 2 * time.Second

	_, err := New(adapterWith(t, dev), testConfig()).Connect(context.Background(), byName)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Zero(t, dev.dials.Load())
}

func TestConnectProbeFailureNotRetriedByDefault(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)
	dev.failDials = 100

	_, err := New(adapterWith(t, dev), testConfig()).Connect(context.Background(), byName)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, int32(1), dev.dials.Load())
}

func TestConnectProbeRetries(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)
	dev.failDials = 2

	cfg := testConfig()
	cfg.ProbeRetries = 3
	cfg.RetryBackoff = connection.BackoffConfig{
		Initial:    5 * time.Millisecond,
		Max:        20 * time.Millisecond,
		Multiplier: 2,
	}

	conn, err := New(adapterWith(t, dev), cfg).Connect(context.Background(), byName)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, int32(3), dev.dials.Load())
}

func TestConnectFailedDialRetriesCapped(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)
	dev.failDials = 100

	cfg := testConfig()
	cfg.ProbeRetries = 2
	cfg.RetryBackoff = connection.BackoffConfig{Initial: 5 * time.Millisecond, Max: 5 * time.Millisecond}

	_, err := New(adapterWith(t, dev), cfg).Connect(context.Background(), byName)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, int32(3), dev.dials.Load())
}

func TestConnectMismatchNotRetried(t *testing.T) {
	cam := newFakeDevice("cam", webcam, advertise)
	cfg := testConfig()
	cfg.ProbeRetries = 5

	_, err := New(adapterWith(t, cam), cfg).Connect(context.Background(), byName)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, int32(1), cam.dials.Load())
}

func TestConnectEmptyParamsNeverMatch(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)

	_, err := New(adapterWith(t, dev), testConfig()).Connect(context.Background(), ConnectionParams{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, 0, dev.openConns())
}

func TestConnectCancelled(t *testing.T) {
	quiet := newFakeDevice("quiet", robot, nil)
	cfg := testConfig()
	cfg.Timeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	_, err := New(adapterWith(t, quiet), cfg).Connect(ctx, byName)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConnectTo(t *testing.T) {
	dev := newFakeDevice("robot", robot, advertise)
	app, local := net.Pipe()
	defer app.Close()

	session, err := New(adapterWith(t, dev), testConfig()).ConnectTo(context.Background(), byName, local)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, local, session.Local())
	echo(t, app, "via caller channel")
}

func TestConnectAsyncCallsOneHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		dev := newFakeDevice("robot", robot, advertise)
		var successes, failures atomic.Int32
		got := make(chan io.ReadWriteCloser, 1)

		New(adapterWith(t, dev), testConfig()).ConnectAsync(context.Background(), byName, HandlerFuncs{
			Success: func(local io.ReadWriteCloser) {
				successes.Add(1)
				got <- local
			},
			Error: func(error) { failures.Add(1) },
		})

		select {
		case local := <-got:
			defer local.Close()
			echo(t, local, "async")
		case <-time.After(2 * time.Second):
			t.Fatal("no callback")
		}
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(1), successes.Load())
		assert.Zero(t, failures.Load())
	})

	t.Run("error", func(t *testing.T) {
		adapter := mocks.NewMockAdapter(t)
		adapter.EXPECT().BondedDevices(mock.Anything).Return(nil, nil).Once()

		var successes, failures atomic.Int32
		got := make(chan error, 1)

		New(adapter, testConfig()).ConnectAsync(context.Background(), byName, HandlerFuncs{
			Success: func(io.ReadWriteCloser) { successes.Add(1) },
			Error: func(err error) {
				failures.Add(1)
				got <- err
			},
		})

		select {
		case err := <-got:
			assert.ErrorIs(t, err, discovery.ErrNoDevices)
		case <-time.After(2 * time.Second):
			t.Fatal("no callback")
		}
		time.Sleep(50 * time.Millisecond)
		assert.Zero(t, successes.Load())
		assert.Equal(t, int32(1), failures.Load())
	})
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(mocks.NewMockAdapter(t), Config{})
	cfg := c.Config()

	assert.Equal(t, discovery.DefaultServiceID, cfg.ServiceID)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.NotNil(t, cfg.Codec)
	assert.Zero(t, cfg.ProbeRetries)
}
