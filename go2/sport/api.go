package sport

import "github.com/xaxy55/unitree_sdk2_go/client"

const (
	ServiceName = "sport"
	APIVersion  = "1.0.0.1"
)

// Basic locomotion
const (
	ApiIdDamp          int32 = 1001
	ApiIdBalanceStand  int32 = 1002
	ApiIdStopMove      int32 = 1003
	ApiIdStandUp       int32 = 1004
	ApiIdStandDown     int32 = 1005
	ApiIdRecoveryStand int32 = 1006
	ApiIdEuler         int32 = 1007
	ApiIdMove          int32 = 1008
	ApiIdSit           int32 = 1009
	ApiIdRiseSit       int32 = 1010
)

// Speed, gestures and tricks
const (
	ApiIdSpeedLevel     int32 = 1015
	ApiIdHello          int32 = 1016
	ApiIdStretch        int32 = 1017
	ApiIdContent        int32 = 1020
	ApiIdDance1         int32 = 1022
	ApiIdDance2         int32 = 1023
	ApiIdSwitchJoystick int32 = 1027
	ApiIdPose           int32 = 1028
	ApiIdScrape         int32 = 1029
	ApiIdFrontFlip      int32 = 1030
	ApiIdFrontJump      int32 = 1031
	ApiIdFrontPounce    int32 = 1032
	ApiIdHeart          int32 = 1036
)

// Gaits
const (
	ApiIdStaticWalk   int32 = 1061
	ApiIdTrotRun      int32 = 1062
	ApiIdEconomicGait int32 = 1063
)

// Advanced modes
const (
	ApiIdLeftFlip        int32 = 2041
	ApiIdBackFlip        int32 = 2043
	ApiIdHandStand       int32 = 2044
	ApiIdFreeWalk        int32 = 2045
	ApiIdFreeBound       int32 = 2046
	ApiIdFreeJump        int32 = 2047
	ApiIdFreeAvoid       int32 = 2048
	ApiIdClassicWalk     int32 = 2049
	ApiIdWalkUpright     int32 = 2050
	ApiIdCrossStep       int32 = 2051
	ApiIdAutoRecoverySet int32 = 2054
	ApiIdAutoRecoveryGet int32 = 2055
	ApiIdSwitchAvoidMode int32 = 2058
)

// Param names the parameter shape an API takes.
type Param int

const (
	// ParamNone is sent as {}
	ParamNone Param = iota
	// ParamVector is a Vector
	ParamVector
	// ParamValue is a Value
	ParamValue
)

// API describes one sport operation.
type API struct {
	ID          int32
	Name        string
	Param       Param
	Idempotence client.Idempotence
}

// APIs lists every sport operation. Gestures and tricks are not idempotent: sending
// one twice performs it twice.
var APIs = []API{
	{ApiIdDamp, "damp", ParamNone, client.Idempotent},
	{ApiIdBalanceStand, "balance_stand", ParamNone, client.Idempotent},
	{ApiIdStopMove, "stop_move", ParamNone, client.Idempotent},
	{ApiIdStandUp, "stand_up", ParamNone, client.Idempotent},
	{ApiIdStandDown, "stand_down", ParamNone, client.Idempotent},
	{ApiIdRecoveryStand, "recovery_stand", ParamNone, client.Idempotent},
	{ApiIdEuler, "euler", ParamVector, client.Idempotent},
	{ApiIdMove, "move", ParamVector, client.Idempotent},
	{ApiIdSit, "sit", ParamNone, client.Idempotent},
	{ApiIdRiseSit, "rise_sit", ParamNone, client.Idempotent},
	{ApiIdSpeedLevel, "speed_level", ParamValue, client.Idempotent},
	{ApiIdHello, "hello", ParamNone, client.NotIdempotent},
	{ApiIdStretch, "stretch", ParamNone, client.NotIdempotent},
	{ApiIdContent, "content", ParamNone, client.NotIdempotent},
	{ApiIdDance1, "dance1", ParamNone, client.NotIdempotent},
	{ApiIdDance2, "dance2", ParamNone, client.NotIdempotent},
	{ApiIdSwitchJoystick, "switch_joystick", ParamValue, client.Idempotent},
	{ApiIdPose, "pose", ParamValue, client.Idempotent},
	{ApiIdScrape, "scrape", ParamNone, client.NotIdempotent},
	{ApiIdFrontFlip, "front_flip", ParamNone, client.NotIdempotent},
	{ApiIdFrontJump, "front_jump", ParamNone, client.NotIdempotent},
	{ApiIdFrontPounce, "front_pounce", ParamNone, client.NotIdempotent},
	{ApiIdHeart, "heart", ParamNone, client.NotIdempotent},
	{ApiIdStaticWalk, "static_walk", ParamNone, client.Idempotent},
	{ApiIdTrotRun, "trot_run", ParamNone, client.Idempotent},
	{ApiIdEconomicGait, "economic_gait", ParamNone, client.Idempotent},
	{ApiIdLeftFlip, "left_flip", ParamNone, client.NotIdempotent},
	{ApiIdBackFlip, "back_flip", ParamNone, client.NotIdempotent},
	{ApiIdHandStand, "hand_stand", ParamValue, client.Idempotent},
	{ApiIdFreeWalk, "free_walk", ParamNone, client.Idempotent},
	{ApiIdFreeBound, "free_bound", ParamValue, client.Idempotent},
	{ApiIdFreeJump, "free_jump", ParamValue, client.Idempotent},
	{ApiIdFreeAvoid, "free_avoid", ParamValue, client.Idempotent},
	{ApiIdClassicWalk, "classic_walk", ParamValue, client.Idempotent},
	{ApiIdWalkUpright, "walk_upright", ParamValue, client.Idempotent},
	{ApiIdCrossStep, "cross_step", ParamValue, client.Idempotent},
	{ApiIdAutoRecoverySet, "auto_recover_set", ParamValue, client.Idempotent},
	{ApiIdAutoRecoveryGet, "auto_recover_get", ParamNone, client.Idempotent},
	// Toggles the current mode
	{ApiIdSwitchAvoidMode, "switch_avoid_mode", ParamNone, client.NotIdempotent},
}

// Lookup finds an API by name.
func Lookup(name string) (API, bool) {
	for _, a := range APIs {
		if a.Name == name {
			return a, true
		}
	}
	return API{}, false
}
