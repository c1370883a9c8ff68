// Package transport moves bytes between a probed device and the local side.
//
// It has two halves:
//   - Framing: MessageReader and MessageWriter exchange whole envelope
//     messages whose total length is declared in an 8-byte header
//     (little-endian uint32 at offset 4). The length is unknown until the
//     header has arrived, so the reader first buffers the header, then the
//     remainder.
//   - Bridging: Bridge splices a device connection to a local duplex channel
//     with two independent pumps. The splice is byte-transparent; either pump
//     stopping closes both endpoints so the other pump never stays blocked.
//
// LocalPair creates the local channel when the caller does not supply one.
package transport
