package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/transport"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// ErrNoMatch indicates the probed node is not the target.
var ErrNoMatch = errors.New("node identity does not match")

// Prober asks a candidate device which node it hosts.
type Prober struct {
	// ServiceID selects the node transport when dialing.
	ServiceID uuid.UUID

	// Codec builds the identity request and decodes the reply.
	Codec wire.Codec

	// MaxMessageSize bounds the reply (zero uses the transport default).
	MaxMessageSize uint32

	// Logger is the operational logger (nil disables).
	Logger *slog.Logger

	// ProtocolLogger receives frame and identity events (nil disables).
	ProtocolLogger log.Logger
}

// Probe dials cand, exchanges one identity request/response, and checks the
// reply against params.
//
// On a match the open connection is returned and the caller owns it. On any
// failure, including ErrNoMatch, the connection has been closed. Cancelling
// ctx closes the connection, unblocking a pending read.
func (p *Prober) Probe(ctx context.Context, cand *discovery.Candidate, params ConnectionParams) (io.ReadWriteCloser, wire.NodeIdentity, error) {
	connID := uuid.NewString()
	addr := cand.Address()

	conn, err := cand.Dial(ctx, p.ServiceID)
	if err != nil {
		return nil, wire.NodeIdentity{}, fmt.Errorf("dial: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	remote, err := p.exchange(conn, connID, addr)
	if !stop() {
		return nil, wire.NodeIdentity{}, ctx.Err()
	}
	if err != nil {
		conn.Close()
		return nil, wire.NodeIdentity{}, err
	}

	matched := params.Matches(remote)
	p.logIdentity(connID, addr, remote, matched)
	if !matched {
		conn.Close()
		return nil, remote, fmt.Errorf("%w: %s wanted %s", ErrNoMatch, remote, params)
	}

	p.debugLog("node matched", "device", addr, "node", remote)
	return conn, remote, nil
}

// exchange writes the identity request and reads one complete reply.
func (p *Prober) exchange(conn io.ReadWriter, connID, addr string) (wire.NodeIdentity, error) {
	req, err := p.Codec.EncodeIdentityRequest()
	if err != nil {
		return wire.NodeIdentity{}, fmt.Errorf("encode request: %w", err)
	}

	maxSize := p.MaxMessageSize
	if maxSize == 0 {
		maxSize = transport.DefaultMaxMessageSize
	}
	framer := transport.NewFramerWithMaxSize(conn, maxSize)
	if p.ProtocolLogger != nil {
		framer.SetLogger(p.ProtocolLogger, connID)
	}

	if err := framer.WriteMessage(req); err != nil {
		return wire.NodeIdentity{}, fmt.Errorf("send request: %w", err)
	}
	resp, err := framer.ReadMessage()
	if err != nil {
		return wire.NodeIdentity{}, fmt.Errorf("read response: %w", err)
	}

	remote, err := p.Codec.DecodeIdentityResponse(resp)
	if err != nil {
		p.logError(connID, addr, err)
		return wire.NodeIdentity{}, fmt.Errorf("decode response: %w", err)
	}
	return remote, nil
}

func (p *Prober) debugLog(msg string, args ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, args...)
	}
}

func (p *Prober) logIdentity(connID, addr string, remote wire.NodeIdentity, matched bool) {
	if p.ProtocolLogger == nil {
		return
	}
	p.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleConnector,
		DeviceAddr:   addr,
		NodeName:     remote.Name,
		NodeID:       remote.ID.String(),
		Message: &log.MessageEvent{
			Entry:    wire.EntryGetNodeInfoRet,
			NodeName: remote.Name,
			NodeID:   remote.ID.String(),
			Matched:  &matched,
		},
	})
}

func (p *Prober) logError(connID, addr string, err error) {
	if p.ProtocolLogger == nil {
		return
	}
	p.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    log.RoleConnector,
		DeviceAddr:   addr,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: "decode identity response",
		},
	})
}
