package go2

import (
	"errors"

	"github.com/xaxy55/unitree_sdk2_go/idl"
)

// LowCmd is the low-level joint command published on rt/lowcmd. The firmware drops
// frames whose CRC does not match, so MarshalBinary always writes a fresh checksum.
type LowCmd struct {
	Head           [2]uint8
	LevelFlag      uint8
	FrameReserve   uint8
	SN             [2]uint32
	Version        [2]uint32
	Bandwidth      uint16
	MotorCmd       [NumMotors]MotorCmd
	BmsCmd         BmsCmd
	WirelessRemote [WirelessRemoteSize]uint8
	LED            [12]uint8
	Fan            [2]uint8
	GPIO           uint8
	Reserve        uint32
	CRC            uint32
}

// NewLowCmd returns a LowCmd with the header and level flag the Go2 expects for
// low-level control.
func NewLowCmd() *LowCmd {
	return &LowCmd{
		Head:      [2]uint8{0xFE, 0xEF},
		LevelFlag: 0xFF,
	}
}

func (m *LowCmd) encodeBody(b *idl.Buffer) {
	b.WriteBytes(m.Head[:])
	b.WriteUint8(m.LevelFlag)
	b.WriteUint8(m.FrameReserve)
	b.WriteUint32s(m.SN[:])
	b.WriteUint32s(m.Version[:])
	b.WriteUint16(m.Bandwidth)
	for i := range m.MotorCmd {
		m.MotorCmd[i].encode(b)
	}
	m.BmsCmd.encode(b)
	b.WriteBytes(m.WirelessRemote[:])
	b.WriteBytes(m.LED[:])
	b.WriteBytes(m.Fan[:])
	b.WriteUint8(m.GPIO)
	b.WriteUint32(m.Reserve)
}

func (m *LowCmd) decode(r *idl.Reader) {
	r.ReadBytes(m.Head[:])
	m.LevelFlag = r.ReadUint8()
	m.FrameReserve = r.ReadUint8()
	r.ReadUint32s(m.SN[:])
	r.ReadUint32s(m.Version[:])
	m.Bandwidth = r.ReadUint16()
	for i := range m.MotorCmd {
		m.MotorCmd[i].decode(r)
	}
	m.BmsCmd.decode(r)
	r.ReadBytes(m.WirelessRemote[:])
	r.ReadBytes(m.LED[:])
	r.ReadBytes(m.Fan[:])
	m.GPIO = r.ReadUint8()
	m.Reserve = r.ReadUint32()
	m.CRC = r.ReadCRC()
}

// Checksum computes the CRC of the current contents without storing it.
func (m *LowCmd) Checksum() uint32 {
	b := idl.NewBuffer(SizeLowCmd)
	m.encodeBody(b)
	return b.SealCRC()
}

// SealCRC recomputes and stores the CRC. Call it after mutating a decoded command.
func (m *LowCmd) SealCRC() uint32 {
	m.CRC = m.Checksum()
	return m.CRC
}

func (*LowCmd) TypeName() string { return TypeLowCmd }

func (m *LowCmd) MarshalBinary() ([]byte, error) {
	b := idl.NewBuffer(SizeLowCmd)
	m.encodeBody(b)
	b.SealCRC()
	return b.Bytes(), nil
}

// UnmarshalBinary decodes data. On a CRC mismatch the received CRC is stored and a
// SerializationError is returned; the other fields are left untouched.
func (m *LowCmd) UnmarshalBinary(data []byte) error {
	var v LowCmd
	if err := unmarshal(TypeLowCmd, data, v.decode); err != nil {
		if errors.Is(err, idl.ErrCRCMismatch) {
			m.CRC = v.CRC
		}
		return err
	}
	*m = v
	return nil
}
