package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CborTranscoder encodes announcements as CBOR, the on-wire form
type CborTranscoder struct {
}

func (*CborTranscoder) Encode(a *Announcement) ([]byte, error) {
	return cbor.Marshal(a)
}

func (*CborTranscoder) Decode(data []byte) (*Announcement, error) {
	a := &Announcement{}
	if err := cbor.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%w: announcement: %v", ErrMalformed, err)
	}
	return a, nil
}
