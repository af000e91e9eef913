package msg

import (
	"encoding/json"
)

// JSON Implementation of the Transcoder interface
type JsonTranscoder struct {
}

func (*JsonTranscoder) Format() Format { return FormatJSON }

func (*JsonTranscoder) Encode(msgin *Message) ([]byte, error) {
	return json.Marshal((*plainMessage)(msgin))
}

func (*JsonTranscoder) Decode(data []byte) (*Message, error) {
	msgout := &plainMessage{}
	if err := json.Unmarshal(data, msgout); err != nil {
		return nil, err
	}
	return (*Message)(msgout), nil
}
