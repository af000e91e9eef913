package protocol

import (
	"encoding/json"
	"fmt"
)

// JsonTranscoder encodes announcements as JSON, for tooling and debugging
type JsonTranscoder struct {
}

func (*JsonTranscoder) Encode(a *Announcement) ([]byte, error) {
	return json.Marshal(a)
}

func (*JsonTranscoder) Decode(data []byte) (*Announcement, error) {
	a := &Announcement{}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%w: announcement: %v", ErrMalformed, err)
	}
	return a, nil
}
