package go2

import "github.com/xaxy55/unitree_sdk2_go/idl"

// TimeSpec is a seconds/nanoseconds timestamp.
type TimeSpec struct {
	Sec     int32
	Nanosec uint32
}

func (m *TimeSpec) encode(b *idl.Buffer) {
	b.WriteInt32(m.Sec)
	b.WriteUint32(m.Nanosec)
}

func (m *TimeSpec) decode(r *idl.Reader) {
	m.Sec = r.ReadInt32()
	m.Nanosec = r.ReadUint32()
}

func (*TimeSpec) TypeName() string { return TypeTimeSpec }

func (m *TimeSpec) MarshalBinary() ([]byte, error) {
	return marshal(SizeTimeSpec, m.encode), nil
}

func (m *TimeSpec) UnmarshalBinary(data []byte) error {
	var v TimeSpec
	if err := unmarshal(TypeTimeSpec, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}

// PathPoint is one waypoint of a planned trajectory.
type PathPoint struct {
	TFromStart float32
	X          float32
	Y          float32
	Yaw        float32
	VX         float32
	VY         float32
	VYaw       float32
}

func (m *PathPoint) encode(b *idl.Buffer) {
	b.WriteFloat32(m.TFromStart)
	b.WriteFloat32(m.X)
	b.WriteFloat32(m.Y)
	b.WriteFloat32(m.Yaw)
	b.WriteFloat32(m.VX)
	b.WriteFloat32(m.VY)
	b.WriteFloat32(m.VYaw)
}

func (m *PathPoint) decode(r *idl.Reader) {
	m.TFromStart = r.ReadFloat32()
	m.X = r.ReadFloat32()
	m.Y = r.ReadFloat32()
	m.Yaw = r.ReadFloat32()
	m.VX = r.ReadFloat32()
	m.VY = r.ReadFloat32()
	m.VYaw = r.ReadFloat32()
}

func (*PathPoint) TypeName() string { return TypePathPoint }

func (m *PathPoint) MarshalBinary() ([]byte, error) {
	return marshal(SizePathPoint, m.encode), nil
}

func (m *PathPoint) UnmarshalBinary(data []byte) error {
	var v PathPoint
	if err := unmarshal(TypePathPoint, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}

// WirelessController is the decoded state of the handheld remote.
type WirelessController struct {
	LX   float32
	LY   float32
	RX   float32
	RY   float32
	Keys uint16
}

func (m *WirelessController) encode(b *idl.Buffer) {
	b.WriteFloat32(m.LX)
	b.WriteFloat32(m.LY)
	b.WriteFloat32(m.RX)
	b.WriteFloat32(m.RY)
	b.WriteUint16(m.Keys)
}

func (m *WirelessController) decode(r *idl.Reader) {
	m.LX = r.ReadFloat32()
	m.LY = r.ReadFloat32()
	m.RX = r.ReadFloat32()
	m.RY = r.ReadFloat32()
	m.Keys = r.ReadUint16()
}

func (*WirelessController) TypeName() string { return TypeWirelessController }

func (m *WirelessController) MarshalBinary() ([]byte, error) {
	return marshal(SizeWirelessController, m.encode), nil
}

func (m *WirelessController) UnmarshalBinary(data []byte) error {
	var v WirelessController
	if err := unmarshal(TypeWirelessController, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}

// IMUState is the body IMU reading.
type IMUState struct {
	Quaternion    [4]float32
	Gyroscope     [3]float32
	Accelerometer [3]float32
	RPY           [3]float32
	Temperature   uint8
}

func (m *IMUState) encode(b *idl.Buffer) {
	b.WriteFloat32s(m.Quaternion[:])
	b.WriteFloat32s(m.Gyroscope[:])
	b.WriteFloat32s(m.Accelerometer[:])
	b.WriteFloat32s(m.RPY[:])
	b.WriteUint8(m.Temperature)
}

func (m *IMUState) decode(r *idl.Reader) {
	r.ReadFloat32s(m.Quaternion[:])
	r.ReadFloat32s(m.Gyroscope[:])
	r.ReadFloat32s(m.Accelerometer[:])
	r.ReadFloat32s(m.RPY[:])
	m.Temperature = r.ReadUint8()
}

func (*IMUState) TypeName() string { return TypeIMUState }

func (m *IMUState) MarshalBinary() ([]byte, error) {
	return marshal(SizeIMUState, m.encode), nil
}

func (m *IMUState) UnmarshalBinary(data []byte) error {
	var v IMUState
	if err := unmarshal(TypeIMUState, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}
