package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// Framing constants.
const (
	// DefaultMaxMessageSize is the default maximum message size (64 KB).
	DefaultMaxMessageSize = 65536

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrMessageTooLarge indicates the declared length exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrMessageTooSmall indicates a declared length shorter than the header.
	ErrMessageTooSmall = errors.New("message shorter than header")

	// ErrMessageEmpty indicates an attempt to write an empty message.
	ErrMessageEmpty = errors.New("message is empty")

	// ErrFrameTruncated indicates the stream ended mid-message.
	ErrFrameTruncated = errors.New("frame truncated")
)

// MessageWriter writes complete envelope messages to an underlying writer.
type MessageWriter struct {
	w  io.Writer
	mu sync.Mutex

	logger log.Logger
	connID string
}

// NewMessageWriter creates a new message writer.
func NewMessageWriter(w io.Writer) *MessageWriter {
	return &MessageWriter{w: w}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (mw *MessageWriter) SetLogger(logger log.Logger, connID string) {
	mw.logger = logger
	mw.connID = connID
}

// WriteMessage writes the full buffer. The buffer must already carry its header.
// Thread-safe: can be called from multiple goroutines.
func (mw *MessageWriter) WriteMessage(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if _, err := mw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if mw.logger != nil {
		mw.logger.Log(frameEvent(mw.connID, data, log.DirectionOut))
	}
	return nil
}

// MessageReader reads envelope messages whose total length is declared in the
// header (little-endian uint32 at wire.SizeOffset).
type MessageReader struct {
	r              io.Reader
	maxMessageSize uint32
	header         [wire.HeaderSize]byte

	logger log.Logger
	connID string
}

// NewMessageReader creates a new message reader.
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		r:              r,
		maxMessageSize: DefaultMaxMessageSize,
	}
}

// NewMessageReaderWithMaxSize creates a message reader with a custom max size.
func NewMessageReaderWithMaxSize(r io.Reader, maxSize uint32) *MessageReader {
	return &MessageReader{
		r:              r,
		maxMessageSize: maxSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (mr *MessageReader) SetLogger(logger log.Logger, connID string) {
	mr.logger = logger
	mr.connID = connID
}

// SetMaxMessageSize updates the maximum message size.
func (mr *MessageReader) SetMaxMessageSize(size uint32) {
	mr.maxMessageSize = size
}

// ReadMessage reads one complete message, header included.
//
// Reads keep going until the header is buffered, then until the declared
// total has arrived; short reads from the underlying reader are expected.
// Nothing past the declared total is consumed.
func (mr *MessageReader) ReadMessage() ([]byte, error) {
	if _, err := io.ReadFull(mr.r, mr.header[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	length, err := wire.MessageLength(mr.header[:])
	if err != nil {
		return nil, err
	}
	if length < wire.HeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrMessageTooSmall, length)
	}
	if length > mr.maxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, mr.maxMessageSize)
	}

	msg := make([]byte, length)
	copy(msg, mr.header[:])
	if _, err := io.ReadFull(mr.r, msg[wire.HeaderSize:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if mr.logger != nil {
		mr.logger.Log(frameEvent(mr.connID, msg, log.DirectionIn))
	}
	return msg, nil
}

// frameEvent creates a transport log event for a message.
func frameEvent(connID string, data []byte, direction log.Direction) log.Event {
	frameData := data
	truncated := false
	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      len(data),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines message reading and writing.
type Framer struct {
	*MessageReader
	*MessageWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		MessageReader: NewMessageReader(rw),
		MessageWriter: NewMessageWriter(rw),
	}
}

// NewFramerWithMaxSize creates a framer with a custom max message size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	return &Framer{
		MessageReader: NewMessageReaderWithMaxSize(rw, maxSize),
		MessageWriter: NewMessageWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.MessageReader.SetLogger(logger, connID)
	f.MessageWriter.SetLogger(logger, connID)
}
