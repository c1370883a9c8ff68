// Package node implements the remote end of the identity handshake.
//
// A Responder reads one identity request from each new connection, replies
// with its configured identity, then hands the connection to a payload
// handler. cmd/rr-node pairs it with an mDNS advertisement and EchoHandler.
package node
