// Package wire defines the node-info message envelope exchanged while probing
// a remote node.
//
// Every message starts with an 8-byte header followed by a CBOR (RFC 8949)
// body with integer keys:
//
//	offset 0: magic "RRAC"
//	offset 4: uint32 total message length, little-endian, header included
//	offset 8: CBOR body
//
// The total length is not known until the header has been read, so readers
// must buffer at least HeaderSize bytes before they can size the rest of the
// message.
//
// # Node Identity
//
// A node is named by a (name, 128-bit id) pair. The nil UUID is the "any"
// sentinel used when a caller does not care about the id.
package wire
