package go2

import "github.com/xaxy55/unitree_sdk2_go/idl"

// BmsCmd controls the battery management system.
type BmsCmd struct {
	Off     uint8
	Reserve [3]uint8
}

func (m *BmsCmd) encode(b *idl.Buffer) {
	b.WriteUint8(m.Off)
	b.WriteBytes(m.Reserve[:])
}

func (m *BmsCmd) decode(r *idl.Reader) {
	m.Off = r.ReadUint8()
	r.ReadBytes(m.Reserve[:])
}

func (*BmsCmd) TypeName() string { return TypeBmsCmd }

func (m *BmsCmd) MarshalBinary() ([]byte, error) {
	return marshal(SizeBmsCmd, m.encode), nil
}

func (m *BmsCmd) UnmarshalBinary(data []byte) error {
	var v BmsCmd
	if err := unmarshal(TypeBmsCmd, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}

// BmsState is the battery management system report. Current is signed: negative
// while discharging.
type BmsState struct {
	VersionHigh uint8
	VersionLow  uint8
	Status      uint8
	SOC         uint8
	Current     int32
	Cycle       uint16
	BqNTC       [2]uint8
	McuNTC      [2]uint8
	CellVol     [NumCellVoltages]uint16
}

func (m *BmsState) encode(b *idl.Buffer) {
	b.WriteUint8(m.VersionHigh)
	b.WriteUint8(m.VersionLow)
	b.WriteUint8(m.Status)
	b.WriteUint8(m.SOC)
	b.WriteInt32(m.Current)
	b.WriteUint16(m.Cycle)
	b.WriteBytes(m.BqNTC[:])
	b.WriteBytes(m.McuNTC[:])
	b.WriteUint16s(m.CellVol[:])
}

func (m *BmsState) decode(r *idl.Reader) {
	m.VersionHigh = r.ReadUint8()
	m.VersionLow = r.ReadUint8()
	m.Status = r.ReadUint8()
	m.SOC = r.ReadUint8()
	m.Current = r.ReadInt32()
	m.Cycle = r.ReadUint16()
	r.ReadBytes(m.BqNTC[:])
	r.ReadBytes(m.McuNTC[:])
	r.ReadUint16s(m.CellVol[:])
}

func (*BmsState) TypeName() string { return TypeBmsState }

func (m *BmsState) MarshalBinary() ([]byte, error) {
	return marshal(SizeBmsState, m.encode), nil
}

func (m *BmsState) UnmarshalBinary(data []byte) error {
	var v BmsState
	if err := unmarshal(TypeBmsState, data, v.decode); err != nil {
		return err
	}
	*m = v
	return nil
}
