package go2

import "github.com/xaxy55/unitree_sdk2_go/idl"

// MotorCmd is the command for one joint motor.
type MotorCmd struct {
	Mode    uint8
	Q       float32
	DQ      float32
	Tau     float32
	KP      float32
	KD      float32
	Reserve [3]uint32
}

func (m *MotorCmd) encode(b *idl.Buffer) {
	b.WriteUint8(m.Mode)
	b.WriteFloat32(m.Q)
	b.WriteFloat32(m.DQ)
	b.WriteFloat32(m.Tau)
	b.WriteFloat32(m.KP)
	b.WriteFloat32(m.KD)
	b.WriteUint32s(m.Reserve[:])
}

func (m *MotorCmd) decode(r *idl.Reader) {
	m.Mode = r.ReadUint8()
	m.Q = r.ReadFloat32()
	m.DQ = r.ReadFloat32()
	m.Tau = r.ReadFloat32()
	m.KP = r.ReadFloat32()
	m.KD = r.ReadFloat32()
	r.ReadUint32s(m.Reserve[:])
}

func (*MotorCmd) TypeName() string { return TypeMotorCmd }

func (m *MotorCmd) MarshalBinary() ([]byte, error) {
	return marshal(SizeMotorCmd, m.encode), nil
}

func (m *MotorCmd) UnmarshalBinary(data []byte) error {
	var v MotorCmd
	if err := unmarshal(TypeMotorCmd, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}

// MotorState is the feedback of one joint motor.
type MotorState struct {
	Mode        uint8
	Q           float32
	DQ          float32
	DDQ         float32
	TauEst      float32
	QRaw        float32
	DQRaw       float32
	DDQRaw      float32
	Temperature uint8
	Lost        uint32
	Reserve     [2]uint32
}

func (m *MotorState) encode(b *idl.Buffer) {
	b.WriteUint8(m.Mode)
	b.WriteFloat32(m.Q)
	b.WriteFloat32(m.DQ)
	b.WriteFloat32(m.DDQ)
	b.WriteFloat32(m.TauEst)
	b.WriteFloat32(m.QRaw)
	b.WriteFloat32(m.DQRaw)
	b.WriteFloat32(m.DDQRaw)
	b.WriteUint8(m.Temperature)
	b.WriteUint32(m.Lost)
	b.WriteUint32s(m.Reserve[:])
}

func (m *MotorState) decode(r *idl.Reader) {
	m.Mode = r.ReadUint8()
	m.Q = r.ReadFloat32()
	m.DQ = r.ReadFloat32()
	m.DDQ = r.ReadFloat32()
	m.TauEst = r.ReadFloat32()
	m.QRaw = r.ReadFloat32()
	m.DQRaw = r.ReadFloat32()
	m.DDQRaw = r.ReadFloat32()
	m.Temperature = r.ReadUint8()
	m.Lost = r.ReadUint32()
	r.ReadUint32s(m.Reserve[:])
}

func (*MotorState) TypeName() string { return TypeMotorState }

func (m *MotorState) MarshalBinary() ([]byte, error) {
	return marshal(SizeMotorState, m.encode), nil
}

func (m *MotorState) UnmarshalBinary(data []byte) error {
	var v MotorState
	if err := unmarshal(TypeMotorState, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}
