package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/transport"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// DefaultHandshakeTimeout bounds the wait for the identity request.
const DefaultHandshakeTimeout = 10 * time.Second

// ErrAlreadyServing is returned when Serve is called twice.
var ErrAlreadyServing = errors.New("responder already serving")

// Config configures a Responder.
type Config struct {
	// Identity is reported to every identity request.
	Identity wire.NodeIdentity

	// Handler takes over the connection after the handshake.
	// Nil closes the connection instead.
	Handler func(conn io.ReadWriteCloser)

	// HandshakeTimeout bounds the wait for the request on connections that
	// support deadlines (zero uses DefaultHandshakeTimeout).
	HandshakeTimeout time.Duration

	// MaxMessageSize bounds the request (zero uses the transport default).
	MaxMessageSize uint32

	// Logger is the operational logger (nil disables).
	Logger *slog.Logger

	// ProtocolLogger receives frame and identity events (nil disables).
	ProtocolLogger log.Logger
}

// Responder is the node side of the identity handshake.
type Responder struct {
	config Config

	mu       sync.Mutex
	listener net.Listener
	conns    map[io.ReadWriteCloser]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewResponder creates a responder.
func NewResponder(config Config) *Responder {
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = transport.DefaultMaxMessageSize
	}
	return &Responder{
		config: config,
		conns:  make(map[io.ReadWriteCloser]struct{}),
	}
}

// Identity returns the identity the responder reports.
func (r *Responder) Identity() wire.NodeIdentity {
	return r.config.Identity
}

// ServeConn answers one identity request on conn and hands conn to the
// handler. conn is closed on any handshake failure.
func (r *Responder) ServeConn(ctx context.Context, conn io.ReadWriteCloser) error {
	connID := uuid.NewString()
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	err := r.handshake(conn, connID)
	if !stop() {
		return ctx.Err()
	}
	if err != nil {
		conn.Close()
		r.debugLog("handshake failed", "conn", connID, "error", err)
		return err
	}

	if r.config.Handler == nil {
		return conn.Close()
	}
	r.config.Handler(conn)
	return nil
}

func (r *Responder) handshake(conn io.ReadWriteCloser, connID string) error {
	if d, ok := conn.(interface{ SetDeadline(time.Time) error }); ok {
		d.SetDeadline(time.Now().Add(r.config.HandshakeTimeout))
		defer d.SetDeadline(time.Time{})
	}

	framer := transport.NewFramerWithMaxSize(conn, r.config.MaxMessageSize)
	if r.config.ProtocolLogger != nil {
		framer.SetLogger(r.config.ProtocolLogger, connID)
	}

	data, err := framer.ReadMessage()
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	req, err := wire.DecodeNodeInfoRequest(data)
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	r.logRequest(connID, req)

	resp, err := wire.EncodeNodeInfoResponse(r.config.Identity, req)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if err := framer.WriteMessage(resp); err != nil {
		return fmt.Errorf("send response: %w", err)
	}
	return nil
}

// Serve accepts connections on ln until ctx ends or Stop is called, serving
// each in its own goroutine.
func (r *Responder) Serve(ctx context.Context, ln net.Listener) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	r.mu.Lock()
	r.listener = ln
	r.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { r.Stop() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if !r.running.Load() {
				r.wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		r.track(conn, true)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer r.track(conn, false)
			_ = r.ServeConn(ctx, conn)
		}()
	}
}

// Stop closes the listener and every open connection.
func (r *Responder) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}

	r.mu.Lock()
	if r.listener != nil {
		r.listener.Close()
	}
	for conn := range r.conns {
		conn.Close()
	}
	r.mu.Unlock()
}

// ConnectionCount returns the number of connections being served.
func (r *Responder) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Responder) track(conn io.ReadWriteCloser, add bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if add {
		r.conns[conn] = struct{}{}
	} else {
		delete(r.conns, conn)
	}
}

func (r *Responder) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}

func (r *Responder) logRequest(connID string, req *wire.Message) {
	if r.config.ProtocolLogger == nil {
		return
	}
	sender, _ := req.Sender()
	r.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleNode,
		Message: &log.MessageEvent{
			Entry:     req.Entry,
			RequestID: req.RequestID,
			NodeName:  sender.Name,
			NodeID:    sender.ID.String(),
		},
	})
}

// EchoHandler writes every byte it reads back to the sender until the
// connection closes.
func EchoHandler(conn io.ReadWriteCloser) {
	defer conn.Close()
	_, _ = io.Copy(conn, conn)
}
