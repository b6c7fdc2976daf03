package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"math/bits"
)

// Decoding limits guard against hostile length prefixes.
const (
	// MaxStringSize bounds a single decoded string (4MB).
	MaxStringSize = 4 * 1024 * 1024

	// MaxCollectionCount bounds the record count of one message.
	MaxCollectionCount = 100_000
)

// Decoding errors.
var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrStringTooLarge     = errors.New("protocol: string exceeds size limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after message")
)

// writer appends wire values to a buffer.
type writer struct {
	buf []byte
}

func newWriter(capacity int) *writer {
	return &writer{buf: make([]byte, 0, capacity)}
}

func (w *writer) putByte(b byte) { w.buf = append(w.buf, b) }

func (w *writer) putUvarint(v uint64) { w.buf = binary.AppendUvarint(w.buf, v) }

func (w *writer) putID(id uint32) { w.putUvarint(uint64(id)) }

// putString writes a uvarint length followed by the bytes of s.
func (w *writer) putString(s string) {
	w.putUvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) putUint16(v uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }

func (w *writer) putUint64(v uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }

// reader consumes wire values from a buffer. Every method fails with
// io.ErrUnexpectedEOF when the buffer runs out.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) getByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	r.pos += n
	return v, nil
}

// id reads a node ID, which must fit in 32 bits.
func (r *reader) id() (uint32, error) {
	v, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, ErrVarintOverflow
	}
	return uint32(v), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if n > MaxStringSize {
		return "", ErrStringTooLarge
	}
	if n > uint64(r.remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

func (r *reader) uint16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) uint64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// count reads a record count. Each record takes at least one byte, so
// a count larger than the rest of the buffer is truncated input.
func (r *reader) count() (int, error) {
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(r.remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}

func (r *reader) done() error {
	if r.remaining() > 0 {
		return ErrTrailingBytes
	}
	return nil
}

// uvarintLen is the encoded size of v.
func uvarintLen(v uint64) int {
	return (bits.Len64(v|1) + 6) / 7
}
