package wire

import (
	"fmt"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for message bodies.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for message bodies.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient so newer peers can add keys.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeMessage encodes msg and wraps it in an envelope.
func EncodeMessage(msg *Message) ([]byte, error) {
	body, err := Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return Seal(body), nil
}

// DecodeMessage opens an envelope and decodes its body.
func DecodeMessage(data []byte) (*Message, error) {
	body, err := Open(data)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return &msg, nil
}

// EncodeNodeInfoRequest builds a request asking the remote node for its identity.
func EncodeNodeInfoRequest(sender NodeIdentity, requestID uint32) ([]byte, error) {
	return EncodeMessage(&Message{
		Version:    MessageVersion,
		Entry:      EntryGetNodeInfo,
		SenderName: sender.Name,
		SenderID:   nodeIDBytes(sender.ID),
		RequestID:  requestID,
	})
}

// DecodeNodeInfoRequest decodes a node-info request.
func DecodeNodeInfoRequest(data []byte) (*Message, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	if msg.Entry != EntryGetNodeInfo {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedEntry, msg.Entry)
	}
	return msg, nil
}

// EncodeNodeInfoResponse answers req with the local identity.
func EncodeNodeInfoResponse(local NodeIdentity, req *Message) ([]byte, error) {
	return EncodeMessage(&Message{
		Version:      MessageVersion,
		Entry:        EntryGetNodeInfoRet,
		SenderName:   local.Name,
		SenderID:     nodeIDBytes(local.ID),
		ReceiverName: req.SenderName,
		ReceiverID:   req.SenderID,
		RequestID:    req.RequestID,
	})
}

// DecodeNodeInfoResponse extracts the remote identity from a node-info response.
func DecodeNodeInfoResponse(data []byte) (NodeIdentity, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return NodeIdentity{}, err
	}
	if msg.Entry != EntryGetNodeInfoRet {
		return NodeIdentity{}, fmt.Errorf("%w: %s", ErrUnexpectedEntry, msg.Entry)
	}
	if msg.Error != "" {
		return NodeIdentity{}, fmt.Errorf("%w: %s", ErrRemote, msg.Error)
	}
	return msg.Sender()
}

// Codec is the message codec used while probing a node.
type Codec interface {
	// EncodeIdentityRequest returns a complete request message.
	EncodeIdentityRequest() ([]byte, error)

	// DecodeIdentityResponse decodes a complete response message.
	DecodeIdentityResponse(data []byte) (NodeIdentity, error)
}

// cborCodec is the default Codec.
type cborCodec struct {
	local NodeIdentity
	seq   atomic.Uint32
}

// NewCodec returns a Codec that identifies requests as coming from local.
func NewCodec(local NodeIdentity) Codec {
	return &cborCodec{local: local}
}

func (c *cborCodec) EncodeIdentityRequest() ([]byte, error) {
	return EncodeNodeInfoRequest(c.local, c.seq.Add(1))
}

func (c *cborCodec) DecodeIdentityResponse(data []byte) (NodeIdentity, error) {
	return DecodeNodeInfoResponse(data)
}
