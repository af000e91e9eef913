/*
Package msg defines the RPC envelope carried on rt/api/<service>/request and
rt/api/<service>/response topics.

Every message contains:
  - Version: 1
    - Can be incremented for future versions
  - Message ID
    - Unique per request-response pair, chosen by the client
    - Links response messages to requests (same ID)
  - Exactly one of Req or Res

Request:
  - ApiId: the remote operation
  - LeaseId: stamped by clients holding a lease, 0 otherwise
  - NoReply: the server must not answer
  - Parameter: JSON text, "{}" when the operation takes none
  - Binary: optional opaque payload

Response:
  - ApiId: echoed from the request
  - Code: 0 on success, otherwise the service's result code
  - Data: JSON text
  - Binary: optional opaque payload

On the wire the envelope body is preceded by one byte naming its encoding, so
receivers decode CBOR and JSON senders alike.
*/
package msg

import (
	"errors"
	"fmt"

	"github.com/xaxy55/unitree_sdk2_go/idl"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// TypeName is the registered type name of the envelope
const TypeName = "unitree_api::msg::dds_::Envelope_"

// RequestTopic is the topic clients of service publish requests on
func RequestTopic(service string) string { return "rt/api/" + service + "/request" }

// ResponseTopic is the topic service publishes responses on
func ResponseTopic(service string) string { return "rt/api/" + service + "/response" }

// Version type, only version 1 currently supported
type Version int

const MyVersion Version = 1

// Format names the encoding of an envelope body
type Format byte

const (
	FormatCBOR Format = 'C'
	FormatJSON Format = 'J'
)

func (f Format) String() string {
	switch f {
	case FormatCBOR:
		return "cbor"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("format(%#02x)", byte(f))
}

// ErrUnknownFormat is returned when the leading format byte is not recognized
var ErrUnknownFormat = errors.New("msg: unknown envelope format")

// Message is the RPC envelope
type Message struct {
	Version   Version   `json:"ver"`
	MessageId int64     `json:"id"`
	Req       *Request  `json:"req,omitempty"`
	Res       *Response `json:"res,omitempty"`

	// Format selects the encoding used by MarshalBinary; zero means CBOR.
	// UnmarshalBinary records the format it found.
	Format Format `json:"-"`
}

// plainMessage has Message's fields without its methods. Transcoders encode through
// it, since the codecs would otherwise call MarshalBinary back.
type plainMessage Message

// Request is a call from a client to a service
type Request struct {
	ApiId     int32  `json:"api_id"`
	LeaseId   int64  `json:"lease_id,omitempty"`
	NoReply   bool   `json:"noreply,omitempty"`
	Parameter string `json:"parameter"`
	Binary    []byte `json:"binary,omitempty"`
}

// Response is a service's answer to a Request
type Response struct {
	ApiId  int32  `json:"api_id"`
	Code   int32  `json:"code"`
	Data   string `json:"data"`
	Binary []byte `json:"binary,omitempty"`
}

// A Transcoder turns the envelope body into bytes and back. MarshalBinary picks one
// by the message's Format and writes its format byte in front of the body.
type Transcoder interface {
	Format() Format
	Encode(msgin *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)
}

// TranscoderFor returns the transcoder for f, CBOR for the zero value
func TranscoderFor(f Format) (Transcoder, error) {
	switch f {
	case 0, FormatCBOR:
		return &CborTranscoder{}, nil
	case FormatJSON:
		return &JsonTranscoder{}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
}

// NewRequest builds a version 1 request envelope
func NewRequest(id int64, req *Request) *Message {
	return &Message{Version: MyVersion, MessageId: id, Req: req}
}

// NewResponse builds a version 1 response envelope in the same format as the request it answers
func NewResponse(req *Message, res *Response) *Message {
	return &Message{Version: MyVersion, MessageId: req.MessageId, Res: res, Format: req.Format}
}

func (*Message) TypeName() string { return TypeName }

func (m *Message) MarshalBinary() ([]byte, error) {
	tc, err := TranscoderFor(m.Format)
	if err != nil {
		return nil, sdkerr.Serialization(TypeName, err)
	}
	body, err := tc.Encode(m)
	if err != nil {
		return nil, sdkerr.Serialization(TypeName, err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(tc.Format()))
	return append(out, body...), nil
}

func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return sdkerr.Serialization(TypeName, idl.ErrShortBuffer)
	}
	f := Format(data[0])
	tc, err := TranscoderFor(f)
	if err != nil || f == 0 {
		return sdkerr.Serialization(TypeName, fmt.Errorf("%w: %v", ErrUnknownFormat, f))
	}
	out, err := tc.Decode(data[1:])
	if err != nil {
		return sdkerr.Serialization(TypeName, err)
	}
	if out.Version != MyVersion {
		return sdkerr.Serialization(TypeName, fmt.Errorf("unsupported version %d", out.Version))
	}
	if (out.Req == nil) == (out.Res == nil) {
		return sdkerr.Serialization(TypeName, errors.New("exactly one of req and res must be set"))
	}
	out.Format = f
	*m = *out
	return nil
}

func init() {
	idl.Register(idl.TypeInfo{Name: TypeName, Size: -1, New: func() idl.Message { return &Message{} }})
}
