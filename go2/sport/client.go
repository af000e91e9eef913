/*
Package sport commands the Go2 locomotion service.

Every command is one RPC call on the "sport" service with a fixed API ID and a JSON
parameter. A nil error means the robot answered with code 0; sdkerr.Code(err) yields
the result code otherwise. Commands are never retried.
*/
package sport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

// Caller is the RPC surface the sport client needs. *client.Client implements it.
type Caller interface {
	RegisterAPI(apiID int32, idem client.Idempotence)
	Call(ctx context.Context, apiID int32, parameter string) (string, error)
}

// Vector is the parameter of Euler (roll, pitch, yaw in rad) and Move (vx, vy in
// m/s, vyaw in rad/s).
type Vector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Value is the parameter of SpeedLevel and the mode switches, and the result of
// AutoRecoverGet.
type Value struct {
	Value int `json:"value"`
}

func flag(on bool) Value {
	if on {
		return Value{1}
	}
	return Value{0}
}

// Client sends sport commands.
type Client struct {
	caller Caller
	rpc    *client.Client
}

// New creates a sport client on session. opts configure the underlying RPC client,
// e.g. client.WithLease.
func New(session *channel.Session, opts ...client.Option) *Client {
	rpc := client.New(session, ServiceName, opts...)
	c := NewWithCaller(rpc)
	c.rpc = rpc
	return c
}

// NewWithCaller creates a sport client on top of an existing caller and registers
// every sport API with it.
func NewWithCaller(caller Caller) *Client {
	for _, a := range APIs {
		caller.RegisterAPI(a.ID, a.Idempotence)
	}
	return &Client{caller: caller}
}

// Init initializes the RPC client created by New.
func (c *Client) Init(ctx context.Context) error {
	if c.rpc == nil {
		return nil
	}
	return c.rpc.Init(ctx)
}

// SetTimeout sets the per-command budget of the RPC client created by New.
func (c *Client) SetTimeout(d time.Duration) {
	if c.rpc != nil {
		c.rpc.SetTimeout(d)
	}
}

// Close releases the RPC client created by New.
func (c *Client) Close() error {
	if c.rpc == nil {
		return nil
	}
	return c.rpc.Close()
}

func (c *Client) call(ctx context.Context, apiID int32, param any) (string, error) {
	p := "{}"
	if param != nil {
		b, err := json.Marshal(param)
		if err != nil {
			return "", sdkerr.Serialization("sport parameter", err)
		}
		p = string(b)
	}
	return c.caller.Call(ctx, apiID, p)
}

func (c *Client) exec(ctx context.Context, apiID int32, param any) error {
	_, err := c.call(ctx, apiID, param)
	return err
}

// Do runs the API named by a with the given parameter. param is ignored for APIs
// taking none.
func (c *Client) Do(ctx context.Context, a API, param any) (string, error) {
	if a.Param == ParamNone {
		param = nil
	}
	return c.call(ctx, a.ID, param)
}

// Damp relaxes every motor. It is the soft emergency stop.
func (c *Client) Damp(ctx context.Context) error { return c.exec(ctx, ApiIdDamp, nil) }

func (c *Client) BalanceStand(ctx context.Context) error {
	return c.exec(ctx, ApiIdBalanceStand, nil)
}

func (c *Client) StopMove(ctx context.Context) error { return c.exec(ctx, ApiIdStopMove, nil) }

func (c *Client) StandUp(ctx context.Context) error { return c.exec(ctx, ApiIdStandUp, nil) }

func (c *Client) StandDown(ctx context.Context) error { return c.exec(ctx, ApiIdStandDown, nil) }

// RecoveryStand gets up after a fall.
func (c *Client) RecoveryStand(ctx context.Context) error {
	return c.exec(ctx, ApiIdRecoveryStand, nil)
}

// Euler sets the body attitude in balance stand, in radians.
func (c *Client) Euler(ctx context.Context, roll, pitch, yaw float32) error {
	return c.exec(ctx, ApiIdEuler, Vector{roll, pitch, yaw})
}

// Move walks with the given body velocity.
func (c *Client) Move(ctx context.Context, vx, vy, vyaw float32) error {
	return c.exec(ctx, ApiIdMove, Vector{vx, vy, vyaw})
}

func (c *Client) Sit(ctx context.Context) error { return c.exec(ctx, ApiIdSit, nil) }

func (c *Client) RiseSit(ctx context.Context) error { return c.exec(ctx, ApiIdRiseSit, nil) }

// SpeedLevel selects the speed range, -1 slow to 1 fast.
func (c *Client) SpeedLevel(ctx context.Context, level int) error {
	return c.exec(ctx, ApiIdSpeedLevel, Value{level})
}

func (c *Client) Hello(ctx context.Context) error   { return c.exec(ctx, ApiIdHello, nil) }
func (c *Client) Stretch(ctx context.Context) error { return c.exec(ctx, ApiIdStretch, nil) }
func (c *Client) Content(ctx context.Context) error { return c.exec(ctx, ApiIdContent, nil) }
func (c *Client) Heart(ctx context.Context) error   { return c.exec(ctx, ApiIdHeart, nil) }
func (c *Client) Scrape(ctx context.Context) error  { return c.exec(ctx, ApiIdScrape, nil) }
func (c *Client) Dance1(ctx context.Context) error  { return c.exec(ctx, ApiIdDance1, nil) }
func (c *Client) Dance2(ctx context.Context) error  { return c.exec(ctx, ApiIdDance2, nil) }

func (c *Client) SwitchJoystick(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdSwitchJoystick, flag(on))
}

func (c *Client) Pose(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdPose, flag(on))
}

func (c *Client) FrontFlip(ctx context.Context) error { return c.exec(ctx, ApiIdFrontFlip, nil) }
func (c *Client) FrontJump(ctx context.Context) error { return c.exec(ctx, ApiIdFrontJump, nil) }

func (c *Client) FrontPounce(ctx context.Context) error {
	return c.exec(ctx, ApiIdFrontPounce, nil)
}

func (c *Client) LeftFlip(ctx context.Context) error { return c.exec(ctx, ApiIdLeftFlip, nil) }
func (c *Client) BackFlip(ctx context.Context) error { return c.exec(ctx, ApiIdBackFlip, nil) }

func (c *Client) HandStand(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdHandStand, flag(on))
}

func (c *Client) FreeWalk(ctx context.Context) error { return c.exec(ctx, ApiIdFreeWalk, nil) }

func (c *Client) FreeBound(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdFreeBound, flag(on))
}

func (c *Client) FreeJump(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdFreeJump, flag(on))
}

func (c *Client) FreeAvoid(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdFreeAvoid, flag(on))
}

func (c *Client) ClassicWalk(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdClassicWalk, flag(on))
}

func (c *Client) WalkUpright(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdWalkUpright, flag(on))
}

func (c *Client) CrossStep(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdCrossStep, flag(on))
}

func (c *Client) StaticWalk(ctx context.Context) error { return c.exec(ctx, ApiIdStaticWalk, nil) }
func (c *Client) TrotRun(ctx context.Context) error    { return c.exec(ctx, ApiIdTrotRun, nil) }

func (c *Client) EconomicGait(ctx context.Context) error {
	return c.exec(ctx, ApiIdEconomicGait, nil)
}

func (c *Client) SwitchAvoidMode(ctx context.Context) error {
	return c.exec(ctx, ApiIdSwitchAvoidMode, nil)
}

// AutoRecoverSet enables getting up automatically after a fall.
func (c *Client) AutoRecoverSet(ctx context.Context, on bool) error {
	return c.exec(ctx, ApiIdAutoRecoverySet, flag(on))
}

// AutoRecoverGet reports whether automatic recovery is enabled.
func (c *Client) AutoRecoverGet(ctx context.Context) (bool, error) {
	data, err := c.call(ctx, ApiIdAutoRecoveryGet, nil)
	if err != nil {
		return false, err
	}
	var v Value
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return false, sdkerr.Serialization("auto recover state", err)
	}
	return v.Value != 0, nil
}
