package idl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrShortBuffer is returned when the data ends before the layout does.
	ErrShortBuffer = errors.New("idl: insufficient data in buffer")
	// ErrBadEncapsulation is returned when the encapsulation header is not CDR_LE.
	ErrBadEncapsulation = errors.New("idl: unsupported encapsulation header")
	// ErrTrailingBytes is returned when data remains after the layout is consumed.
	ErrTrailingBytes = errors.New("idl: trailing bytes after message")
	// ErrCRCMismatch is returned when a sealed message fails its checksum.
	ErrCRCMismatch = errors.New("idl: crc mismatch")
)

// Reader decodes the aligned little-endian encoding. Errors are sticky: after the
// first failure every read returns zero and Err reports the cause.
type Reader struct {
	body []byte
	off  int
	err  error
}

// NewReader checks the encapsulation header and wraps the body that follows it.
func NewReader(data []byte) *Reader {
	r := &Reader{}
	switch {
	case len(data) < HeaderSize:
		r.err = ErrShortBuffer
	case !bytes.Equal(data[:HeaderSize], encapsulation[:]):
		r.err = ErrBadEncapsulation
	default:
		r.body = data[HeaderSize:]
	}
	return r
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Offset returns the current body read position.
func (r *Reader) Offset() int {
	return r.off
}

// Finish returns the sticky error, or ErrTrailingBytes if unread data remains.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.body) {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, len(r.body)-r.off)
	}
	return nil
}

// need skips alignment padding, checks that n bytes remain and returns their offset.
func (r *Reader) need(n int) (int, bool) {
	if r.err != nil {
		return 0, false
	}
	off := r.off
	if pad := off % n; n > 1 && pad != 0 {
		off += n - pad
	}
	if off+n > len(r.body) {
		r.err = ErrShortBuffer
		return 0, false
	}
	r.off = off + n
	return off, true
}

func (r *Reader) ReadUint8() uint8 {
	off, ok := r.need(1)
	if !ok {
		return 0
	}
	return r.body[off]
}

func (r *Reader) ReadUint16() uint16 {
	off, ok := r.need(2)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint16(r.body[off:])
}

func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

func (r *Reader) ReadUint32() uint32 {
	off, ok := r.need(4)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(r.body[off:])
}

func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadBytes fills p from a fixed-size octet array.
func (r *Reader) ReadBytes(p []byte) {
	if r.err != nil {
		return
	}
	if r.off+len(p) > len(r.body) {
		r.err = ErrShortBuffer
		return
	}
	copy(p, r.body[r.off:])
	r.off += len(p)
}

func (r *Reader) ReadUint16s(vs []uint16) {
	for i := range vs {
		vs[i] = r.ReadUint16()
	}
}

func (r *Reader) ReadInt16s(vs []int16) {
	for i := range vs {
		vs[i] = r.ReadInt16()
	}
}

func (r *Reader) ReadUint32s(vs []uint32) {
	for i := range vs {
		vs[i] = r.ReadUint32()
	}
}

func (r *Reader) ReadFloat32s(vs []float32) {
	for i := range vs {
		vs[i] = r.ReadFloat32()
	}
}

// ReadCRC reads the trailing crc field and verifies it against the body before it.
// The received value is returned even on mismatch.
func (r *Reader) ReadCRC() uint32 {
	if r.err != nil {
		return 0
	}
	start := r.off
	if pad := start % 4; pad != 0 {
		start += 4 - pad
	}
	got := r.ReadUint32()
	if r.err != nil {
		return 0
	}
	if want := CRC32(r.body[:start]); got != want {
		r.err = fmt.Errorf("%w: got %#08x, want %#08x", ErrCRCMismatch, got, want)
	}
	return got
}
