package idl

import (
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC32Vectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", nil, 0xFFFFFFFF},
		{"zero_word", []byte{0, 0, 0, 0}, 0xC704DD7B},
		{"two_words", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0xA3141BDA},
		{"partial_word_is_zero_padded", []byte{1, 2, 3}, 0x615EAB4A},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CRC32(tt.data))
		})
	}
	assert.Equal(t, CRC32([]byte{1, 2, 3}), CRC32([]byte{1, 2, 3, 0}))
}

func TestBufferAlignment(t *testing.T) {
	b := NewBuffer(16)
	b.WriteUint8(0xAA)
	b.WriteUint16(0x0102)
	b.WriteUint8(0xBB)
	b.WriteFloat32(1.0)
	b.WriteBytes([]byte{1, 2, 3})
	b.WriteInt16(-2)

	// aa 00 | 02 01 | bb 00 00 00 | 00 00 80 3f | 01 02 03 | 00 | fe ff
	assert.Equal(t, "00010000"+"aa000201bb0000000000803f01020300feff", hex.EncodeToString(b.Bytes()))
	assert.Equal(t, 18, b.Len())

	r := NewReader(b.Bytes())
	assert.Equal(t, uint8(0xAA), r.ReadUint8())
	assert.Equal(t, uint16(0x0102), r.ReadUint16())
	assert.Equal(t, uint8(0xBB), r.ReadUint8())
	assert.Equal(t, float32(1.0), r.ReadFloat32())
	p := make([]byte, 3)
	r.ReadBytes(p)
	assert.Equal(t, []byte{1, 2, 3}, p)
	assert.Equal(t, int16(-2), r.ReadInt16())
	assert.NoError(t, r.Finish())
}

func TestBufferArrays(t *testing.T) {
	b := NewBuffer(0)
	b.WriteUint16s([]uint16{1, math.MaxUint16})
	b.WriteInt16s([]int16{math.MinInt16, math.MaxInt16})
	b.WriteUint32s([]uint32{0, math.MaxUint32})
	b.WriteFloat32s([]float32{float32(math.Inf(-1)), -0.5})

	r := NewReader(b.Bytes())
	u16 := make([]uint16, 2)
	i16 := make([]int16, 2)
	u32 := make([]uint32, 2)
	f32 := make([]float32, 2)
	r.ReadUint16s(u16)
	r.ReadInt16s(i16)
	r.ReadUint32s(u32)
	r.ReadFloat32s(f32)
	require.NoError(t, r.Finish())
	assert.Equal(t, []uint16{1, math.MaxUint16}, u16)
	assert.Equal(t, []int16{math.MinInt16, math.MaxInt16}, i16)
	assert.Equal(t, []uint32{0, math.MaxUint32}, u32)
	assert.Equal(t, []float32{float32(math.Inf(-1)), -0.5}, f32)
}

func TestSealAndVerifyCRC(t *testing.T) {
	b := NewBuffer(12)
	b.WriteUint32(7)
	b.WriteUint8(1)
	sum := b.SealCRC()
	assert.Equal(t, 12, b.Len())

	r := NewReader(b.Bytes())
	assert.Equal(t, uint32(7), r.ReadUint32())
	assert.Equal(t, uint8(1), r.ReadUint8())
	assert.Equal(t, sum, r.ReadCRC())
	assert.NoError(t, r.Finish())

	// Flip one payload bit: the crc no longer matches.
	data := append([]byte(nil), b.Bytes()...)
	data[HeaderSize] ^= 0x01
	r = NewReader(data)
	r.ReadUint32()
	r.ReadUint8()
	r.ReadCRC()
	assert.True(t, errors.Is(r.Finish(), ErrCRCMismatch))
}

func TestReaderErrors(t *testing.T) {
	assert.ErrorIs(t, NewReader([]byte{0, 1}).Err(), ErrShortBuffer)
	assert.ErrorIs(t, NewReader([]byte{0, 0, 0, 0}).Err(), ErrBadEncapsulation)

	r := NewReader([]byte{0, 1, 0, 0, 1, 2})
	assert.Equal(t, uint32(0), r.ReadUint32())
	assert.ErrorIs(t, r.Err(), ErrShortBuffer)
	// Sticky: later reads keep failing.
	assert.Equal(t, uint8(0), r.ReadUint8())
	assert.ErrorIs(t, r.Finish(), ErrShortBuffer)

	r = NewReader([]byte{0, 1, 0, 0, 1, 2})
	r.ReadUint8()
	assert.ErrorIs(t, r.Finish(), ErrTrailingBytes)
}

type fakeMsg struct{}

func (*fakeMsg) TypeName() string { return "test::Fake_" }

func (*fakeMsg) MarshalBinary() ([]byte, error) { return nil, nil }

func (*fakeMsg) UnmarshalBinary(data []byte) error { return nil }

func TestRegistry(t *testing.T) {
	Register(TypeInfo{Name: "test::Fake_", Size: 0, New: func() Message { return &fakeMsg{} }})

	info, ok := Lookup("test::Fake_")
	require.True(t, ok)
	assert.Equal(t, "test::Fake_", info.New().TypeName())

	_, ok = Lookup("test::Missing_")
	assert.False(t, ok)

	assert.Panics(t, func() {
		Register(TypeInfo{Name: "test::Fake_"})
	})

	names := make([]string, 0)
	for _, ti := range Types() {
		names = append(names, ti.Name)
	}
	assert.Contains(t, names, "test::Fake_")
}
