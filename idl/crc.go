package idl

import "encoding/binary"

const crcPolynomial uint32 = 0x04C11DB7

// CRC32 computes the checksum the robot firmware expects in LowCmd and LowState:
// polynomial 0x04C11DB7, initial value 0xFFFFFFFF, most significant bit first, no
// reflection and no final xor, fed with the data as little-endian 32-bit words.
// A trailing partial word is zero padded.
func CRC32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for i := 0; i < len(data); i += 4 {
		var word uint32
		if i+4 <= len(data) {
			word = binary.LittleEndian.Uint32(data[i:])
		} else {
			var tail [4]byte
			copy(tail[:], data[i:])
			word = binary.LittleEndian.Uint32(tail[:])
		}
		for bit := uint32(1) << 31; bit != 0; bit >>= 1 {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
			if word&bit != 0 {
				crc ^= crcPolynomial
			}
		}
	}
	return crc
}
