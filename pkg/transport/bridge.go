package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rrbridge/rrbridge-go/pkg/log"
)

// DefaultChunkSize is the copy buffer size of each bridge pump.
const DefaultChunkSize = 4096

// SessionState is the lifecycle state of a bridge session.
type SessionState int32

const (
	// SessionOpen indicates both pumps may still be running.
	SessionOpen SessionState = iota

	// SessionClosed indicates both endpoints have been closed.
	SessionClosed
)

// String returns the session state name.
func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "OPEN"
	case SessionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// BridgeStats reports bytes forwarded in each direction.
type BridgeStats struct {
	RemoteToLocal int64
	LocalToRemote int64
}

// Session splices a remote device connection to a local duplex channel.
//
// Two pumps copy bytes in opposite directions. Whichever pump stops first,
// for any reason, closes both endpoints so the other pump unblocks.
type Session struct {
	id        uuid.UUID
	remote    io.ReadWriteCloser
	local     io.ReadWriteCloser
	chunkSize int

	logger         *slog.Logger
	protocolLogger log.Logger
	deviceAddr     string

	state     atomic.Int32
	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
	err       error

	remoteToLocal atomic.Int64
	localToRemote atomic.Int64
}

// BridgeOption configures a Session.
type BridgeOption func(*Session)

// WithChunkSize sets the pump buffer size.
func WithChunkSize(n int) BridgeOption {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithSessionID sets the session id (default: random).
func WithSessionID(id uuid.UUID) BridgeOption {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) BridgeOption {
	return func(s *Session) { s.logger = l }
}

// WithProtocolLogger sets the protocol event logger and the device address
// recorded with each event.
func WithProtocolLogger(l log.Logger, deviceAddr string) BridgeOption {
	return func(s *Session) {
		s.protocolLogger = log.OrNoop(l)
		s.deviceAddr = deviceAddr
	}
}

// Bridge starts forwarding between remote and local and returns immediately.
func Bridge(remote, local io.ReadWriteCloser, opts ...BridgeOption) *Session {
	s := &Session{
		id:             uuid.New(),
		remote:         remote,
		local:          local,
		chunkSize:      DefaultChunkSize,
		done:           make(chan struct{}),
		protocolLogger: log.NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(SessionOpen))
	s.logState("", SessionOpen.String(), "")

	var g errgroup.Group
	g.Go(func() error { return s.pump(local, remote, &s.remoteToLocal, "remote->local") })
	g.Go(func() error { return s.pump(remote, local, &s.localToRemote, "local->remote") })

	go func() {
		s.err = g.Wait()
		reason := "closed"
		if s.err != nil {
			reason = s.err.Error()
		}
		s.logState(SessionOpen.String(), SessionClosed.String(), reason)
		s.debugLog("bridge session ended", "session", s.id, "error", s.err,
			"remote_to_local", s.remoteToLocal.Load(), "local_to_remote", s.localToRemote.Load())
		close(s.done)
	}()

	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Local returns the local endpoint of the splice.
func (s *Session) Local() io.ReadWriteCloser {
	return s.local
}

// Done is closed once both pumps have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until both pumps have exited and returns the first error that
// ended the session, or nil for a normal close.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Stats returns the bytes forwarded so far.
func (s *Session) Stats() BridgeStats {
	return BridgeStats{
		RemoteToLocal: s.remoteToLocal.Load(),
		LocalToRemote: s.localToRemote.Load(),
	}
}

// Close closes both endpoints. Safe to call multiple times and from either pump.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.state.Store(int32(SessionClosed))
		s.closeErr = errors.Join(s.remote.Close(), s.local.Close())
	})
	return s.closeErr
}

// pump copies src to dst until src closes or an error occurs.
func (s *Session) pump(dst io.Writer, src io.Reader, counter *atomic.Int64, dir string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s pump panic: %v", dir, r)
		}
		if s.closing.Load() {
			// Errors after our own close are the expected unblock.
			err = nil
		}
		s.Close()
	}()

	buf := make([]byte, s.chunkSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("%s write: %w", dir, werr)
			}
			counter.Add(int64(n))
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return fmt.Errorf("%s read: %w", dir, rerr)
		}
		if n <= 0 {
			// Zero-length read means the peer closed.
			return nil
		}
	}
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Session) logState(oldState, newState, reason string) {
	s.protocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id.String(),
		Layer:        log.LayerBridge,
		Category:     log.CategoryState,
		DeviceAddr:   s.deviceAddr,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
