package go2

import (
	"errors"

	"github.com/xaxy55/unitree_sdk2_go/idl"
)

// LowState is the low-level robot state published on rt/lowstate.
type LowState struct {
	Head            [2]uint8
	LevelFlag       uint8
	FrameReserve    uint8
	SN              [2]uint32
	Version         [2]uint32
	Bandwidth       uint16
	IMUState        IMUState
	MotorState      [NumMotors]MotorState
	BmsState        BmsState
	WirelessRemote  [WirelessRemoteSize]uint8
	FootForce       [4]int16
	FootForceEst    [4]int16
	Tick            uint32
	WirelessRemote2 [WirelessRemoteSize]uint8
	Reserve         uint8
	CRC             uint32
}

func (m *LowState) encodeBody(b *idl.Buffer) {
	b.WriteBytes(m.Head[:])
	b.WriteUint8(m.LevelFlag)
	b.WriteUint8(m.FrameReserve)
	b.WriteUint32s(m.SN[:])
	b.WriteUint32s(m.Version[:])
	b.WriteUint16(m.Bandwidth)
	m.IMUState.encode(b)
	for i := range m.MotorState {
		m.MotorState[i].encode(b)
	}
	m.BmsState.encode(b)
	b.WriteBytes(m.WirelessRemote[:])
	b.WriteInt16s(m.FootForce[:])
	b.WriteInt16s(m.FootForceEst[:])
	b.WriteUint32(m.Tick)
	b.WriteBytes(m.WirelessRemote2[:])
	b.WriteUint8(m.Reserve)
}

func (m *LowState) decode(r *idl.Reader) {
	r.ReadBytes(m.Head[:])
	m.LevelFlag = r.ReadUint8()
	m.FrameReserve = r.ReadUint8()
	r.ReadUint32s(m.SN[:])
	r.ReadUint32s(m.Version[:])
	m.Bandwidth = r.ReadUint16()
	m.IMUState.decode(r)
	for i := range m.MotorState {
		m.MotorState[i].decode(r)
	}
	m.BmsState.decode(r)
	r.ReadBytes(m.WirelessRemote[:])
	r.ReadInt16s(m.FootForce[:])
	r.ReadInt16s(m.FootForceEst[:])
	m.Tick = r.ReadUint32()
	r.ReadBytes(m.WirelessRemote2[:])
	m.Reserve = r.ReadUint8()
	m.CRC = r.ReadCRC()
}

// Checksum computes the CRC of the current contents without storing it.
func (m *LowState) Checksum() uint32 {
	b := idl.NewBuffer(SizeLowState)
	m.encodeBody(b)
	return b.SealCRC()
}

// SealCRC recomputes and stores the CRC.
func (m *LowState) SealCRC() uint32 {
	m.CRC = m.Checksum()
	return m.CRC
}

func (*LowState) TypeName() string { return TypeLowState }

func (m *LowState) MarshalBinary() ([]byte, error) {
	b := idl.NewBuffer(SizeLowState)
	m.encodeBody(b)
	b.SealCRC()
	return b.Bytes(), nil
}

func (m *LowState) UnmarshalBinary(data []byte) error {
	var v LowState
	if err := unmarshal(TypeLowState, data, v.decode); err != nil {
		if errors.Is(err, idl.ErrCRCMismatch) {
			m.CRC = v.CRC
		}
		return err
	}
	*m = v
	return nil
}
