package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/pkg/connection"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/transport"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// Default timing.
const (
	// DefaultTimeout bounds one attempt, measured from the first poll.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultPollInterval is the pause between service filter passes.
	DefaultPollInterval = 100 * time.Millisecond
)

// ErrNodeNotFound indicates no candidate matched before the timeout.
var ErrNodeNotFound = errors.New("node not found")

// Config configures a Connector.
type Config struct {
	// ServiceID is the advertised service that marks a candidate worth probing.
	ServiceID uuid.UUID

	// Timeout bounds the service filter loop.
	Timeout time.Duration

	// PollInterval is the pause between filter passes.
	PollInterval time.Duration

	// ChunkSize is the bridge copy buffer size.
	ChunkSize int

	// MaxMessageSize bounds identity replies.
	MaxMessageSize uint32

	// ProbeRetries is how many times a failed probe of an advertising
	// candidate is retried. Zero probes each candidate at most once.
	ProbeRetries int

	// RetryBackoff paces probe retries. Its MaxRetries is replaced by
	// ProbeRetries.
	RetryBackoff connection.BackoffConfig

	// Identity is how this side introduces itself in identity requests.
	Identity wire.NodeIdentity

	// Codec overrides the identity message codec (default: wire.NewCodec(Identity)).
	Codec wire.Codec

	// Logger is the operational logger (nil disables).
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (nil disables).
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default connector configuration.
func DefaultConfig() Config {
	return Config{
		ServiceID:      discovery.DefaultServiceID,
		Timeout:        DefaultTimeout,
		PollInterval:   DefaultPollInterval,
		ChunkSize:      transport.DefaultChunkSize,
		MaxMessageSize: transport.DefaultMaxMessageSize,
		RetryBackoff:   connection.DefaultBackoffConfig(),
	}
}

// Handler receives the outcome of ConnectAsync. Exactly one method is
// called, exactly once.
type Handler interface {
	OnSuccess(local io.ReadWriteCloser)
	OnError(err error)
}

// HandlerFuncs adapts two functions to a Handler.
type HandlerFuncs struct {
	Success func(local io.ReadWriteCloser)
	Error   func(err error)
}

func (h HandlerFuncs) OnSuccess(local io.ReadWriteCloser) {
	if h.Success != nil {
		h.Success(local)
	}
}

func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

// Connection is the caller's end of a bridged node connection.
type Connection struct {
	io.ReadWriteCloser

	// Node is the identity the node reported.
	Node wire.NodeIdentity

	// Session is the bridge splicing the device to the other end.
	Session *transport.Session
}

// Close closes the caller's end and the bridge.
func (c *Connection) Close() error {
	return errors.Join(c.ReadWriteCloser.Close(), c.Session.Close())
}

// Connector finds a node among an adapter's devices and bridges to it.
type Connector struct {
	adapter discovery.Adapter
	config  Config
	prober  *Prober
}

// New creates a connector over adapter. Zero config fields take defaults.
func New(adapter discovery.Adapter, config Config) *Connector {
	def := DefaultConfig()
	if config.ServiceID == uuid.Nil {
		config.ServiceID = def.ServiceID
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = def.ChunkSize
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	if config.Codec == nil {
		config.Codec = wire.NewCodec(config.Identity)
	}

	return &Connector{
		adapter: adapter,
		config:  config,
		prober: &Prober{
			ServiceID:      config.ServiceID,
			Codec:          config.Codec,
			MaxMessageSize: config.MaxMessageSize,
			Logger:         config.Logger,
			ProtocolLogger: config.ProtocolLogger,
		},
	}
}

// Config returns the effective configuration.
func (c *Connector) Config() Config {
	return c.config
}

// Connect finds the node and returns the caller's end of a local channel
// bridged to it.
func (c *Connector) Connect(ctx context.Context, params ConnectionParams) (*Connection, error) {
	mine, theirs, err := transport.LocalPair()
	if err != nil {
		return nil, fmt.Errorf("local channel: %w", err)
	}

	session, node, err := c.connect(ctx, params, theirs)
	if err != nil {
		mine.Close()
		theirs.Close()
		return nil, err
	}

	return &Connection{ReadWriteCloser: mine, Node: node, Session: session}, nil
}

// ConnectTo finds the node and bridges it to local, which the caller has
// already opened. The session owns local from then on.
func (c *Connector) ConnectTo(ctx context.Context, params ConnectionParams, local io.ReadWriteCloser) (*transport.Session, error) {
	session, _, err := c.connect(ctx, params, local)
	return session, err
}

// ConnectAsync runs Connect in the background and reports to h.
func (c *Connector) ConnectAsync(ctx context.Context, params ConnectionParams, h Handler) {
	go func() {
		conn, err := c.Connect(ctx, params)
		if err != nil {
			h.OnError(err)
			return
		}
		h.OnSuccess(conn)
	}()
}

// connect runs one attempt and bridges the winner to local.
func (c *Connector) connect(ctx context.Context, params ConnectionParams, local io.ReadWriteCloser) (*transport.Session, wire.NodeIdentity, error) {
	at := newAttempt(params)
	c.logAttempt(at, "", "STARTED", params.String())

	win, err := c.run(ctx, at)
	if err != nil {
		c.logAttempt(at, "POLLING", "FAILED", err.Error())
		c.debugLog("connection attempt failed", "attempt", at.id, "target", params, "error", err)
		return nil, wire.NodeIdentity{}, err
	}
	c.logAttempt(at, "POLLING", "CONNECTED", win.Node.String())
	c.debugLog("connected to node", "attempt", at.id, "node", win.Node, "device", win.Device)

	session := transport.Bridge(win.Conn, local,
		transport.WithSessionID(at.id),
		transport.WithChunkSize(c.config.ChunkSize),
		transport.WithLogger(c.config.Logger),
		transport.WithProtocolLogger(c.config.ProtocolLogger, win.Device),
	)
	return session, win.Node, nil
}

// run enumerates candidates and drives the filter loop to an outcome.
// In-flight probes are cancelled and waited for before it returns.
func (c *Connector) run(ctx context.Context, at *attempt) (Match, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	candidates, err := discovery.Enumerate(ctx, c.adapter, c.config.Logger)
	if err != nil {
		return Match{}, err
	}
	c.debugLog("enumerated candidates", "attempt", at.id, "count", len(candidates))

	at.start(ctx)
	err = c.poll(ctx, at, candidates)

	cancel()
	at.wait()

	if err != nil {
		return Match{}, err
	}
	win, _ := at.arbiter.Winner()
	return win, nil
}

func (c *Connector) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

func (c *Connector) logAttempt(at *attempt, oldState, newState, reason string) {
	c.logState(at.id.String(), "", log.StateEntityAttempt, oldState, newState, reason)
}

func (c *Connector) logState(connID, addr string, entity log.StateEntity, oldState, newState, reason string) {
	if c.config.ProtocolLogger == nil {
		return
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerDiscovery,
		Category:     log.CategoryState,
		LocalRole:    log.RoleConnector,
		DeviceAddr:   addr,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
