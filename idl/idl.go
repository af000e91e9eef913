/*
Package idl defines the fixed binary layout shared with the robot firmware.

Every encoded message is a 4-byte CDR little-endian encapsulation header followed by
the body. Inside the body each primitive is aligned to its own size relative to the
start of the body, fixed-size arrays carry no length prefix and nested structs are
inlined. Types that end in a crc field carry the Unitree CRC32 of the preceding body.

The concrete message catalog lives in idl/go2.
*/
package idl

// Message is implemented by every type that can travel on a topic.
type Message interface {
	// TypeName returns the DDS type name, e.g. "unitree_go::msg::dds_::LowCmd_"
	TypeName() string
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// MessagePtr constrains a type parameter to a pointer to T implementing Message, so
// generic channels can allocate a T and decode into it.
type MessagePtr[T any] interface {
	*T
	Message
}

// Encapsulation header for CDR little-endian (PLAIN_CDR, LE).
var encapsulation = [4]byte{0x00, 0x01, 0x00, 0x00}

// HeaderSize is the size of the encapsulation header preceding every body.
const HeaderSize = len(encapsulation)
