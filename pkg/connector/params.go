package connector

import (
	"fmt"

	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// ConnectionParams describes the node a connection attempt is looking for.
type ConnectionParams struct {
	// NodeID is the target node id, or wire.AnyNode to match any id.
	NodeID wire.NodeID

	// NodeName is the target node name, or empty to match any name.
	NodeName string
}

// ParseConnectionParams builds params from text. An empty or "*" id means any.
func ParseConnectionParams(id, name string) (ConnectionParams, error) {
	nodeID, err := wire.ParseNodeID(id)
	if err != nil {
		return ConnectionParams{}, fmt.Errorf("target node id: %w", err)
	}
	return ConnectionParams{NodeID: nodeID, NodeName: name}, nil
}

// Matches reports whether a probed identity is the target.
//
// With both an id and a name set, both must match. With only one set, that
// one must match. With neither set nothing matches.
func (p ConnectionParams) Matches(remote wire.NodeIdentity) bool {
	hasID := !wire.IsAny(p.NodeID)
	hasName := p.NodeName != ""

	switch {
	case hasID && hasName:
		return remote.ID == p.NodeID && remote.Name == p.NodeName
	case hasName:
		return remote.Name == p.NodeName
	case hasID:
		return remote.ID == p.NodeID
	default:
		return false
	}
}

// IsSet reports whether the params can ever match.
func (p ConnectionParams) IsSet() bool {
	return !wire.IsAny(p.NodeID) || p.NodeName != ""
}

// String returns a compact description for logs.
func (p ConnectionParams) String() string {
	id := "*"
	if !wire.IsAny(p.NodeID) {
		id = p.NodeID.String()
	}
	name := p.NodeName
	if name == "" {
		name = "*"
	}
	return name + "/" + id
}
