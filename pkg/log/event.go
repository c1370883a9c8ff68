package log

import (
	"time"

	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the connection attempt or bridge session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is the connecting side or the node.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// DeviceAddr is the candidate device address.
	DeviceAddr string `cbor:"7,keyasint,omitempty"`

	// NodeName is the remote node name, once known.
	NodeName string `cbor:"8,keyasint,omitempty"`

	// NodeID is the remote node id, once known.
	NodeID string `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Attempt/probe/session state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded CBOR).
	LayerWire Layer = 1
	// LayerDiscovery is device enumeration, filtering and probing.
	LayerDiscovery Layer = 2
	// LayerBridge is the byte splice between device and local channel.
	LayerBridge Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerDiscovery:
		return "DISCOVERY"
	case LayerBridge:
		return "BRIDGE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which end of the handshake logged the event.
type Role uint8

const (
	// RoleConnector is the side that discovers and probes nodes.
	RoleConnector Role = 0
	// RoleNode is the side that answers identity requests.
	RoleNode Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleConnector:
		return "CONNECTOR"
	case RoleNode:
		return "NODE"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including the header).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded node-info message at the wire layer.
type MessageEvent struct {
	// Entry is the message entry type.
	Entry wire.EntryType `cbor:"1,keyasint"`

	// RequestID correlates request/response pairs.
	RequestID uint32 `cbor:"2,keyasint,omitempty"`

	// NodeName is the sender node name.
	NodeName string `cbor:"3,keyasint,omitempty"`

	// NodeID is the sender node id.
	NodeID string `cbor:"4,keyasint,omitempty"`

	// Matched reports whether the identity satisfied the target (responses only).
	Matched *bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures attempt, probe and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityAttempt is a top-level connection attempt.
	StateEntityAttempt StateEntity = 0
	// StateEntityProbe is a single candidate probe.
	StateEntityProbe StateEntity = 1
	// StateEntitySession is a bridge session.
	StateEntitySession StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityAttempt:
		return "ATTEMPT"
	case StateEntityProbe:
		return "PROBE"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
