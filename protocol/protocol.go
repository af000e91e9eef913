/*
Package protocol defines the datagram framing shared by every participant on a domain.

Every frame contains, little-endian:
  - Magic 0x5554 ("UT") and a version byte
    - Version can be incremented for future layouts, only 1 is accepted
  - Kind
    - Data: a serialized message for one topic
    - Announce: a participant announcement (CBOR payload)
    - Bye: the participant is leaving
  - Domain id
    - Frames from other domains are ignored by receivers
  - Participant GUID and a per-writer sequence number
    - Receivers use (GUID, Seq) to drop stale and duplicate data
  - Topic name and type name, each a u16 length followed by the bytes
  - Payload, a u32 length followed by the bytes

A frame always fits in one UDP datagram.
*/
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// Magic identifies SDK frames on a shared port
	Magic uint16 = 0x5554
	// Version is the only framing version supported
	Version uint8 = 1
	// MaxDatagram is the largest UDP payload over IPv4
	MaxDatagram = 65507
	// HeaderSize is the fixed part preceding the topic name
	HeaderSize = 2 + 1 + 1 + 4 + 16 + 8
)

// Kind is the frame type
type Kind uint8

const (
	KindData Kind = iota + 1
	KindAnnounce
	KindBye
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAnnounce:
		return "announce"
	case KindBye:
		return "bye"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var (
	// ErrMalformed wraps every decode failure
	ErrMalformed = errors.New("protocol: malformed frame")
	// ErrTooLarge is returned when a frame does not fit in one datagram
	ErrTooLarge = errors.New("protocol: frame too large")
)

// Frame is one datagram on the wire
type Frame struct {
	Kind    Kind
	Domain  uint32
	GUID    uuid.UUID
	Seq     uint64
	Topic   string
	Type    string
	Payload []byte
}

// Size returns the encoded length of the frame
func (f *Frame) Size() int {
	return HeaderSize + 2 + len(f.Topic) + 2 + len(f.Type) + 4 + len(f.Payload)
}

// Encode serializes a frame into a new byte slice
func Encode(f *Frame) ([]byte, error) {
	if len(f.Topic) > 0xFFFF || len(f.Type) > 0xFFFF {
		return nil, fmt.Errorf("%w: name longer than 65535 bytes", ErrTooLarge)
	}
	n := f.Size()
	if n > MaxDatagram {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, n)
	}

	buf := make([]byte, 0, n)
	buf = binary.LittleEndian.AppendUint16(buf, Magic)
	buf = append(buf, Version, byte(f.Kind))
	buf = binary.LittleEndian.AppendUint32(buf, f.Domain)
	buf = append(buf, f.GUID[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, f.Seq)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Topic)))
	buf = append(buf, f.Topic...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Type)))
	buf = append(buf, f.Type...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f.Payload)))
	buf = append(buf, f.Payload...)
	return buf, nil
}

// Decode parses a datagram. The returned frame's Payload aliases data.
func Decode(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformed, len(data))
	}
	if m := binary.LittleEndian.Uint16(data); m != Magic {
		return nil, fmt.Errorf("%w: bad magic %#04x", ErrMalformed, m)
	}
	if v := data[2]; v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, v)
	}

	f := &Frame{
		Kind:   Kind(data[3]),
		Domain: binary.LittleEndian.Uint32(data[4:]),
		Seq:    binary.LittleEndian.Uint64(data[24:]),
	}
	switch f.Kind {
	case KindData, KindAnnounce, KindBye:
	default:
		return nil, fmt.Errorf("%w: unknown %v", ErrMalformed, f.Kind)
	}
	copy(f.GUID[:], data[8:24])

	rest := data[HeaderSize:]
	topic, rest, ok := readString(rest)
	if !ok {
		return nil, fmt.Errorf("%w: truncated topic", ErrMalformed)
	}
	typ, rest, ok := readString(rest)
	if !ok {
		return nil, fmt.Errorf("%w: truncated type name", ErrMalformed)
	}
	if len(rest) < 4 {
		return nil, fmt.Errorf("%w: truncated payload length", ErrMalformed)
	}
	n := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]
	if uint64(n) != uint64(len(rest)) {
		return nil, fmt.Errorf("%w: payload length %d, have %d", ErrMalformed, n, len(rest))
	}
	f.Topic = topic
	f.Type = typ
	f.Payload = rest
	return f, nil
}

func readString(b []byte) (string, []byte, bool) {
	if len(b) < 2 {
		return "", nil, false
	}
	n := int(binary.LittleEndian.Uint16(b))
	b = b[2:]
	if len(b) < n {
		return "", nil, false
	}
	return string(b[:n]), b[n:], true
}

// Announcement is the payload of a KindAnnounce frame
type Announcement struct {
	GUID          uuid.UUID `json:"guid"`
	Name          string    `json:"name"`
	Interface     string    `json:"iface,omitempty"`
	Publications  []string  `json:"pubs,omitempty"`
	Subscriptions []string  `json:"subs,omitempty"`
}

// The transcoder interface serializes/deserializes announcements to byte arrays.
// CBOR is used on the wire, JSON for human-readable tooling output.
type Transcoder interface {
	Encode(a *Announcement) ([]byte, error)
	Decode(data []byte) (*Announcement, error)
}
