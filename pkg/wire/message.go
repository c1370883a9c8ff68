package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MessageVersion is the body version written by this package.
const MessageVersion uint16 = 2

// NodeID is the 128-bit unique identifier of a node.
type NodeID = uuid.UUID

// AnyNode is the sentinel NodeID meaning "any node".
var AnyNode = uuid.Nil

// IsAny reports whether id is the AnyNode sentinel.
func IsAny(id NodeID) bool {
	return id == AnyNode
}

// ParseNodeID parses a node id. Empty strings and "*" yield AnyNode.
// Both plain and brace-wrapped UUID forms are accepted.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return AnyNode, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return AnyNode, fmt.Errorf("invalid node id %q: %w", s, err)
	}
	return id, nil
}

// NodeIdentity names a remote node.
type NodeIdentity struct {
	Name string
	ID   NodeID
}

// String returns "name{id}".
func (n NodeIdentity) String() string {
	return fmt.Sprintf("%s{%s}", n.Name, n.ID)
}

// EntryType identifies the kind of message carried in the body.
type EntryType uint16

const (
	// EntryGetNodeInfo asks the remote end to report its node identity.
	EntryGetNodeInfo EntryType = 108

	// EntryGetNodeInfoRet carries the node identity back to the requester.
	EntryGetNodeInfoRet EntryType = 109
)

// String returns the entry type name.
func (e EntryType) String() string {
	switch e {
	case EntryGetNodeInfo:
		return "GET_NODE_INFO"
	case EntryGetNodeInfoRet:
		return "GET_NODE_INFO_RET"
	default:
		return fmt.Sprintf("ENTRY(%d)", uint16(e))
	}
}

// Message errors.
var (
	ErrUnexpectedEntry = errors.New("unexpected message entry")
	ErrRemote          = errors.New("remote error")
)

// Message is the CBOR body of a node-info exchange.
//
// CBOR encoding:
//
//	{
//	  1: version,       // uint16
//	  2: entryType,     // uint16
//	  3: senderName,    // text
//	  4: senderId,      // 16-byte string
//	  5: receiverName,  // text
//	  6: receiverId,    // 16-byte string
//	  7: requestId,     // uint32
//	  8: error          // text, responses only
//	}
type Message struct {
	Version      uint16    `cbor:"1,keyasint"`
	Entry        EntryType `cbor:"2,keyasint"`
	SenderName   string    `cbor:"3,keyasint,omitempty"`
	SenderID     []byte    `cbor:"4,keyasint,omitempty"`
	ReceiverName string    `cbor:"5,keyasint,omitempty"`
	ReceiverID   []byte    `cbor:"6,keyasint,omitempty"`
	RequestID    uint32    `cbor:"7,keyasint"`
	Error        string    `cbor:"8,keyasint,omitempty"`
}

// Sender returns the sender identity carried in the message.
func (m *Message) Sender() (NodeIdentity, error) {
	id, err := nodeIDFromBytes(m.SenderID)
	if err != nil {
		return NodeIdentity{}, err
	}
	return NodeIdentity{Name: m.SenderName, ID: id}, nil
}

func nodeIDFromBytes(b []byte) (NodeID, error) {
	if len(b) == 0 {
		return AnyNode, nil
	}
	id, err := uuid.FromBytes(b)
	if err != nil {
		return AnyNode, fmt.Errorf("invalid sender id: %w", err)
	}
	return id, nil
}

func nodeIDBytes(id NodeID) []byte {
	if IsAny(id) {
		return nil
	}
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}
