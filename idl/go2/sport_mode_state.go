package go2

import "github.com/xaxy55/unitree_sdk2_go/idl"

// SportModeState is the high-level locomotion state published on rt/sportmodestate.
// It carries no CRC.
type SportModeState struct {
	Stamp            TimeSpec
	ErrorCode        uint32
	IMUState         IMUState
	Mode             uint8
	Progress         float32
	GaitType         uint8
	FootRaiseHeight  float32
	Position         [3]float32
	BodyHeight       float32
	Velocity         [3]float32
	YawSpeed         float32
	RangeObstacle    [4]float32
	FootForce        [4]int16
	FootPositionBody [12]float32
	FootSpeedBody    [12]float32
	PathPoint        [NumPathPoints]PathPoint
}

func (m *SportModeState) encode(b *idl.Buffer) {
	m.Stamp.encode(b)
	b.WriteUint32(m.ErrorCode)
	m.IMUState.encode(b)
	b.WriteUint8(m.Mode)
	b.WriteFloat32(m.Progress)
	b.WriteUint8(m.GaitType)
	b.WriteFloat32(m.FootRaiseHeight)
	b.WriteFloat32s(m.Position[:])
	b.WriteFloat32(m.BodyHeight)
	b.WriteFloat32s(m.Velocity[:])
	b.WriteFloat32(m.YawSpeed)
	b.WriteFloat32s(m.RangeObstacle[:])
	b.WriteInt16s(m.FootForce[:])
	b.WriteFloat32s(m.FootPositionBody[:])
	b.WriteFloat32s(m.FootSpeedBody[:])
	for i := range m.PathPoint {
		m.PathPoint[i].encode(b)
	}
}

func (m *SportModeState) decode(r *idl.Reader) {
	m.Stamp.decode(r)
	m.ErrorCode = r.ReadUint32()
	m.IMUState.decode(r)
	m.Mode = r.ReadUint8()
	m.Progress = r.ReadFloat32()
	m.GaitType = r.ReadUint8()
	m.FootRaiseHeight = r.ReadFloat32()
	r.ReadFloat32s(m.Position[:])
	m.BodyHeight = r.ReadFloat32()
	r.ReadFloat32s(m.Velocity[:])
	m.YawSpeed = r.ReadFloat32()
	r.ReadFloat32s(m.RangeObstacle[:])
	r.ReadInt16s(m.FootForce[:])
	r.ReadFloat32s(m.FootPositionBody[:])
	r.ReadFloat32s(m.FootSpeedBody[:])
	for i := range m.PathPoint {
		m.PathPoint[i].decode(r)
	}
}

func (*SportModeState) TypeName() string { return TypeSportModeState }

func (m *SportModeState) MarshalBinary() ([]byte, error) {
	return marshal(SizeSportModeState, m.encode), nil
}

func (m *SportModeState) UnmarshalBinary(data []byte) error {
	var v SportModeState
	if err := unmarshal(TypeSportModeState, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}
