package discovery

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type nodes advertise.
	ServiceType = "_rrbt._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default node port.
	DefaultPort = 48653
)

// DefaultServiceID is the well-known service identifier advertised by devices
// running a node transport.
var DefaultServiceID = uuid.MustParse("25bb0b62-861a-4974-a1b8-18ed5495aa07")

// TXT record key constants.
const (
	TXTKeyServices = "svc"      // Advertised service ids (comma-separated UUIDs)
	TXTKeyNodeName = "nodename" // Node name (informational)
	TXTKeyNodeID   = "nodeid"   // Node id (informational)
)

// Timing constants.
const (
	// DefaultBrowseWindow is how long a browse collects answers.
	DefaultBrowseWindow = 2 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Network names for statically configured devices.
const (
	NetworkTCP    = "tcp"
	NetworkRFCOMM = "rfcomm"
)

// Discovery errors.
var (
	ErrNoDevices           = errors.New("no devices available")
	ErrNotFound            = errors.New("device not found")
	ErrServiceNotFound     = errors.New("service not advertised by device")
	ErrUnsupportedNetwork  = errors.New("unsupported network")
	ErrInvalidAddress      = errors.New("invalid device address")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
)

// Device is a nearby device known to the local adapter.
type Device interface {
	// Address is the opaque device identifier (bluetooth address, mDNS instance).
	Address() string

	// Name is a human readable device name.
	Name() string

	// ServiceIDs returns the advertised service ids, or nil if the service
	// metadata has not arrived yet.
	ServiceIDs() []uuid.UUID

	// RefreshServices requests a refresh of the service metadata.
	// Completion is observed through ServiceIDs.
	RefreshServices(ctx context.Context) error

	// Dial opens a duplex stream to the device using service as selector.
	Dial(ctx context.Context, service uuid.UUID) (io.ReadWriteCloser, error)
}

// Adapter lists devices from the local radio or network stack.
type Adapter interface {
	// BondedDevices returns the devices currently known to the adapter.
	BondedDevices(ctx context.Context) ([]Device, error)
}

// Candidate is a discovered device not yet confirmed as the target node.
type Candidate struct {
	Device
}

// Advertises reports whether the device currently lists service.
// A device without metadata advertises nothing.
func (c *Candidate) Advertises(service uuid.UUID) bool {
	return slices.Contains(c.ServiceIDs(), service)
}

// NodeInfo describes a node for advertisement.
type NodeInfo struct {
	// Instance is the mDNS instance name (defaults to NodeName).
	Instance string

	// NodeName is the advertised node name.
	NodeName string

	// NodeID is the advertised node id.
	NodeID uuid.UUID

	// Services lists the advertised service ids (defaults to DefaultServiceID).
	Services []uuid.UUID

	// Port is the listening port.
	Port uint16
}

// instanceName returns the instance label to register.
func (n *NodeInfo) instanceName() string {
	name := n.Instance
	if name == "" {
		name = n.NodeName
	}
	if name == "" {
		name = "rr-" + n.NodeID.String()[:8]
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}
