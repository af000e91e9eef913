// Package go2 is the Go2 message catalog: the fixed layouts exchanged with the robot
// firmware on rt/* topics. Field order and array lengths are part of the wire contract
// and must not change.
package go2

import (
	"github.com/xaxy55/unitree_sdk2_go/idl"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// DDS type names.
const (
	TypeTimeSpec           = "unitree_go::msg::dds_::TimeSpec_"
	TypePathPoint          = "unitree_go::msg::dds_::PathPoint_"
	TypeWirelessController = "unitree_go::msg::dds_::WirelessController_"
	TypeBmsCmd             = "unitree_go::msg::dds_::BmsCmd_"
	TypeBmsState           = "unitree_go::msg::dds_::BmsState_"
	TypeIMUState           = "unitree_go::msg::dds_::IMUState_"
	TypeMotorCmd           = "unitree_go::msg::dds_::MotorCmd_"
	TypeMotorState         = "unitree_go::msg::dds_::MotorState_"
	TypeLowCmd             = "unitree_go::msg::dds_::LowCmd_"
	TypeLowState           = "unitree_go::msg::dds_::LowState_"
	TypeSportModeState     = "unitree_go::msg::dds_::SportModeState_"
)

// Encoded body sizes.
const (
	SizeTimeSpec           = 8
	SizePathPoint          = 28
	SizeWirelessController = 18
	SizeBmsCmd             = 4
	SizeBmsState           = 44
	SizeIMUState           = 53
	SizeMotorCmd           = 36
	SizeMotorState         = 48
	SizeLowCmd             = 808
	SizeLowState           = 1188
	SizeSportModeState     = 512
)

// Array lengths.
const (
	NumMotors          = 20
	WirelessRemoteSize = 40
	NumCellVoltages    = 15
	NumPathPoints      = 10
)

// Default topics.
const (
	TopicLowCmd             = "rt/lowcmd"
	TopicLowState           = "rt/lowstate"
	TopicSportModeState     = "rt/sportmodestate"
	TopicWirelessController = "rt/wirelesscontroller"
)

func marshal(size int, encode func(*idl.Buffer)) []byte {
	b := idl.NewBuffer(size)
	encode(b)
	return b.Bytes()
}

func unmarshal(name string, data []byte, decode func(*idl.Reader)) error {
	r := idl.NewReader(data)
	decode(r)
	if err := r.Finish(); err != nil {
		return sdkerr.Serialization(name, err)
	}
	return nil
}

func init() {
	register := func(name string, size int, newFn func() idl.Message) {
		idl.Register(idl.TypeInfo{Name: name, Size: size, New: newFn})
	}
	register(TypeTimeSpec, SizeTimeSpec, func() idl.Message { return new(TimeSpec) })
	register(TypePathPoint, SizePathPoint, func() idl.Message { return new(PathPoint) })
	register(TypeWirelessController, SizeWirelessController, func() idl.Message { return new(WirelessController) })
	register(TypeBmsCmd, SizeBmsCmd, func() idl.Message { return new(BmsCmd) })
	register(TypeBmsState, SizeBmsState, func() idl.Message { return new(BmsState) })
	register(TypeIMUState, SizeIMUState, func() idl.Message { return new(IMUState) })
	register(TypeMotorCmd, SizeMotorCmd, func() idl.Message { return new(MotorCmd) })
	register(TypeMotorState, SizeMotorState, func() idl.Message { return new(MotorState) })
	register(TypeLowCmd, SizeLowCmd, func() idl.Message { return new(LowCmd) })
	register(TypeLowState, SizeLowState, func() idl.Message { return new(LowState) })
	register(TypeSportModeState, SizeSportModeState, func() idl.Message { return new(SportModeState) })
}
