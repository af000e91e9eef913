package msg

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR Implementation of the Transcoder interface
type CborTranscoder struct {
}

func (*CborTranscoder) Format() Format { return FormatCBOR }

func (*CborTranscoder) Encode(msgin *Message) ([]byte, error) {
	return cbor.Marshal((*plainMessage)(msgin))
}

func (*CborTranscoder) Decode(data []byte) (*Message, error) {
	msgout := &plainMessage{}
	if err := cbor.Unmarshal(data, msgout); err != nil {
		return nil, err
	}
	return (*Message)(msgout), nil
}
