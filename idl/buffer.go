package idl

import (
	"encoding/binary"
	"math"
)

// Buffer is a growable byte buffer for the aligned little-endian encoding.
type Buffer struct {
	data []byte
}

// NewBuffer returns a Buffer holding the encapsulation header, with room for a body
// of bodySize bytes.
func NewBuffer(bodySize int) *Buffer {
	b := &Buffer{data: make([]byte, 0, HeaderSize+bodySize)}
	b.data = append(b.data, encapsulation[:]...)
	return b
}

// Bytes returns the header and the body written so far.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Body returns the body written so far.
func (b *Buffer) Body() []byte {
	return b.data[HeaderSize:]
}

// Len returns the body length written so far.
func (b *Buffer) Len() int {
	return len(b.data) - HeaderSize
}

// align pads the body with zeros up to an n-byte boundary.
func (b *Buffer) align(n int) {
	if pad := b.Len() % n; pad != 0 {
		for i := pad; i < n; i++ {
			b.data = append(b.data, 0)
		}
	}
}

// grow aligns to n, then reserves n bytes, returning the write offset.
func (b *Buffer) grow(n int) int {
	b.align(n)
	off := len(b.data)
	for i := 0; i < n; i++ {
		b.data = append(b.data, 0)
	}
	return off
}

func (b *Buffer) WriteUint8(v uint8) {
	off := b.grow(1)
	b.data[off] = v
}

func (b *Buffer) WriteUint16(v uint16) {
	off := b.grow(2)
	binary.LittleEndian.PutUint16(b.data[off:], v)
}

func (b *Buffer) WriteInt16(v int16) {
	b.WriteUint16(uint16(v))
}

func (b *Buffer) WriteUint32(v uint32) {
	off := b.grow(4)
	binary.LittleEndian.PutUint32(b.data[off:], v)
}

func (b *Buffer) WriteInt32(v int32) {
	b.WriteUint32(uint32(v))
}

func (b *Buffer) WriteFloat32(v float32) {
	b.WriteUint32(math.Float32bits(v))
}

// WriteBytes appends a fixed-size octet array.
func (b *Buffer) WriteBytes(p []byte) {
	b.data = append(b.data, p...)
}

func (b *Buffer) WriteUint16s(vs []uint16) {
	for _, v := range vs {
		b.WriteUint16(v)
	}
}

func (b *Buffer) WriteInt16s(vs []int16) {
	for _, v := range vs {
		b.WriteInt16(v)
	}
}

func (b *Buffer) WriteUint32s(vs []uint32) {
	for _, v := range vs {
		b.WriteUint32(v)
	}
}

func (b *Buffer) WriteFloat32s(vs []float32) {
	for _, v := range vs {
		b.WriteFloat32(v)
	}
}

// SealCRC pads the body to the crc field, appends the CRC32 of everything before it
// and returns the checksum.
func (b *Buffer) SealCRC() uint32 {
	b.align(4)
	sum := CRC32(b.Body())
	b.WriteUint32(sum)
	return sum
}
