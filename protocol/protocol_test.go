package protocol

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGUID = uuid.UUID{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

type frameTestElement struct {
	name      string
	frame     Frame
	hexString string
}

var frameTestVec = []frameTestElement{
	{
		"Data",
		Frame{Kind: KindData, Domain: 1, GUID: testGUID, Seq: 2, Topic: "rt/a", Type: "T", Payload: []byte{0xAA}},
		"5455" + "01" + "01" + "01000000" + "000102030405060708090a0b0c0d0e0f" + "0200000000000000" +
			"0400" + "72742f61" + "0100" + "54" + "01000000" + "aa",
	},
	{
		"Bye",
		Frame{Kind: KindBye, Domain: 0xFFFFFFFF, GUID: testGUID, Seq: 0xFFFFFFFFFFFFFFFF, Payload: []byte{}},
		"5455" + "01" + "03" + "ffffffff" + "000102030405060708090a0b0c0d0e0f" + "ffffffffffffffff" +
			"0000" + "0000" + "00000000",
	},
}

func TestFrameEncoder(t *testing.T) {
	for _, testElem := range frameTestVec {
		t.Run(testElem.name, func(t *testing.T) {
			encoded, err := Encode(&testElem.frame)
			require.NoError(t, err)
			assert.Equal(t, testElem.hexString, hex.EncodeToString(encoded))
			assert.Equal(t, testElem.frame.Size(), len(encoded))

			// Loop it back, and confirm it is the same as before
			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, testElem.frame, *decoded)
		})
	}
}

func TestFrameTooLarge(t *testing.T) {
	_, err := Encode(&Frame{Kind: KindData, Payload: make([]byte, MaxDatagram)})
	assert.ErrorIs(t, err, ErrTooLarge)

	long := make([]byte, 0x10000)
	_, err = Encode(&Frame{Kind: KindData, Topic: string(long)})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFrameDecodeMalformed(t *testing.T) {
	good, err := Encode(&frameTestVec[0].frame)
	require.NoError(t, err)

	corrupt := func(i int, b byte) []byte {
		out := append([]byte(nil), good...)
		out[i] = b
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", good[:HeaderSize-1]},
		{"bad magic", corrupt(0, 0x00)},
		{"bad version", corrupt(2, 9)},
		{"unknown kind", corrupt(3, 0)},
		{"topic overruns", corrupt(HeaderSize, 0xFF)},
		{"truncated payload", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0x00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestAnnouncementTranscoders(t *testing.T) {
	a := &Announcement{
		GUID:          testGUID,
		Name:          "go2sport",
		Interface:     "eth0",
		Publications:  []string{"rt/api/sport/request"},
		Subscriptions: []string{"rt/api/sport/response", "rt/sportmodestate"},
	}
	transcoders := map[string]Transcoder{
		"cbor": &CborTranscoder{},
		"json": &JsonTranscoder{},
	}
	for name, tc := range transcoders {
		t.Run(name, func(t *testing.T) {
			encoded, err := tc.Encode(a)
			require.NoError(t, err)

			decoded, err := tc.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, a, decoded)

			_, err = tc.Decode([]byte{0xFF, 0x00})
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "data", KindData.String())
	assert.Equal(t, "announce", KindAnnounce.String())
	assert.Equal(t, "bye", KindBye.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
