package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the maximum payload size (2^16 - 1 bytes).
	MaxPayloadSize = 65535

	// MaxMessageSize bounds a reassembled multi-frame payload (16MB).
	MaxMessageSize = 16 * 1024 * 1024
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameHello     FrameType = 0x00 // Server greeting
	FrameMutations FrameType = 0x01 // Server → Client mutation batch
	FrameSnapshot  FrameType = 0x02 // Server → Client full-tree replay
	FrameControl   FrameType = 0x03 // Control messages (ping, resync)
	FrameError     FrameType = 0x05 // Error message
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameMutations:
		return "Mutations"
	case FrameSnapshot:
		return "Snapshot"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagSequenced FrameFlags = 0x02 // Payload starts with a sequence number
	FlagFinal     FrameFlags = 0x04 // Last frame of a message
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrMessageTooLarge  = errors.New("protocol: reassembled message too large")
	ErrInterleavedFrame = errors.New("protocol: frame type changed mid-message")
)

// Frame is one unit on the wire: a 4-byte header (type, flags,
// big-endian uint16 payload length) followed by the payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode returns the header and payload as one buffer.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 0, FrameHeaderSize+len(f.Payload))
	buf = append(buf, byte(f.Type), byte(f.Flags))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Payload)))
	return append(buf, f.Payload...)
}

// parseHeader splits a frame header into its fields.
func parseHeader(h []byte) (FrameType, FrameFlags, int) {
	return FrameType(h[0]), FrameFlags(h[1]), int(binary.BigEndian.Uint16(h[2:4]))
}

// DecodeFrame decodes one frame from data, which must hold the header
// and the whole payload. Extra bytes after the payload are ignored.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft, flags, n := parseHeader(data)
	body := data[FrameHeaderSize:]
	if len(body) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{Type: ft, Flags: flags, Payload: bytes.Clone(body[:n])}, nil
}

// ReadFrame reads one frame from r. It returns io.EOF only when r ends
// cleanly before a header; a frame cut short is io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft, flags, n := parseHeader(header[:])

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}

	_, err := w.Write(f.Encode())
	return err
}

// NewFrame creates a single final frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{
		Type:    ft,
		Flags:   FlagFinal,
		Payload: payload,
	}
}

// Chunk splits payload into frames of at most MaxPayloadSize bytes.
// flags are set on every frame; FlagFinal is added to the last one.
// An empty payload yields a single empty final frame.
func Chunk(ft FrameType, flags FrameFlags, payload []byte) []*Frame {
	flags &^= FlagFinal
	var frames []*Frame
	for len(payload) > MaxPayloadSize {
		frames = append(frames, &Frame{Type: ft, Flags: flags, Payload: payload[:MaxPayloadSize]})
		payload = payload[MaxPayloadSize:]
	}
	return append(frames, &Frame{Type: ft, Flags: flags | FlagFinal, Payload: payload})
}

// Reassembler joins chunked frames back into complete messages.
// The zero value is ready to use.
type Reassembler struct {
	typ     FrameType
	pending []byte
	active  bool
}

// Add consumes f. When f completes a message it returns the message type
// and payload with done set.
func (r *Reassembler) Add(f *Frame) (ft FrameType, payload []byte, done bool, err error) {
	if r.active && f.Type != r.typ {
		r.Reset()
		return 0, nil, false, ErrInterleavedFrame
	}
	if !r.active && f.Flags.Has(FlagFinal) {
		return f.Type, f.Payload, true, nil
	}
	if len(r.pending)+len(f.Payload) > MaxMessageSize {
		r.Reset()
		return 0, nil, false, ErrMessageTooLarge
	}

	r.typ, r.active = f.Type, true
	r.pending = append(r.pending, f.Payload...)
	if !f.Flags.Has(FlagFinal) {
		return 0, nil, false, nil
	}

	ft, payload = r.typ, r.pending
	r.typ, r.pending, r.active = 0, nil, false
	return ft, payload, true, nil
}

// Reset discards any partially assembled message.
func (r *Reassembler) Reset() {
	r.typ, r.pending, r.active = 0, nil, false
}
