// Package log provides structured protocol logging for node connections.
//
// This package defines the Logger interface and Event types for capturing
// events while discovering, probing and bridging to a remote node. It is
// separate from operational logging (slog): protocol capture provides a
// complete machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field captures: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/rr/connect.rrlog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw envelope bytes (FrameEvent)
//   - Wire: decoded node-info messages (MessageEvent)
//   - Discovery: attempt and probe state (StateChangeEvent)
//   - Bridge: session state (StateChangeEvent)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .rrlog extension.
// The rr-log command can view and summarize them.
package log
