// Package robotstate manages the services running on a Go2: listing them,
// switching them on and off and setting the state report frequency.
package robotstate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

const (
	ServiceName = "robot_state"
	APIVersion  = "1.0.0.1"

	ApiIdServiceList   int32 = 1
	ApiIdServiceSwitch int32 = 2
	ApiIdSetReportFreq int32 = 3
)

// ServiceStatus is the run state of a robot service
type ServiceStatus int32

const (
	Stopped ServiceStatus = 0
	Running ServiceStatus = 1
)

func (s ServiceStatus) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// ServiceState describes one robot service
type ServiceState struct {
	Name   string        `json:"name"`
	Status ServiceStatus `json:"status"`
	// Protected services cannot be switched off
	Protect bool `json:"protect"`
}

// UnmarshalJSON accepts protect as a boolean or as 0/1.
func (s *ServiceState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string          `json:"name"`
		Status  ServiceStatus   `json:"status"`
		Protect json.RawMessage `json:"protect"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name, s.Status, s.Protect = raw.Name, raw.Status, false
	switch string(raw.Protect) {
	case "", "null", "0", "false":
	case "1", "true":
		s.Protect = true
	default:
		var n int
		if err := json.Unmarshal(raw.Protect, &n); err != nil {
			return err
		}
		s.Protect = n != 0
	}
	return nil
}

// SwitchParam is the parameter of ServiceSwitch
type SwitchParam struct {
	Name   string `json:"name"`
	Switch int    `json:"switch"`
}

// ReportFreqParam is the parameter of SetReportFreq, both in milliseconds
type ReportFreqParam struct {
	Interval int32 `json:"interval"`
	Duration int32 `json:"duration"`
}

// Caller is the RPC surface the client needs. *client.Client implements it.
type Caller interface {
	RegisterAPI(apiID int32, idem client.Idempotence)
	Call(ctx context.Context, apiID int32, parameter string) (string, error)
}

type Client struct {
	caller Caller
	rpc    *client.Client
}

// New creates a robot state client on session.
func New(session *channel.Session, opts ...client.Option) *Client {
	rpc := client.New(session, ServiceName, opts...)
	c := NewWithCaller(rpc)
	c.rpc = rpc
	return c
}

// NewWithCaller creates a client on top of an existing caller.
func NewWithCaller(caller Caller) *Client {
	caller.RegisterAPI(ApiIdServiceList, client.Idempotent)
	caller.RegisterAPI(ApiIdServiceSwitch, client.Idempotent)
	caller.RegisterAPI(ApiIdSetReportFreq, client.Idempotent)
	return &Client{caller: caller}
}

func (c *Client) Init(ctx context.Context) error {
	if c.rpc == nil {
		return nil
	}
	return c.rpc.Init(ctx)
}

func (c *Client) SetTimeout(d time.Duration) {
	if c.rpc != nil {
		c.rpc.SetTimeout(d)
	}
}

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
			return "", sdkerr.Serialization("robot state parameter", err)
		}
		p = string(b)
	}
	return c.caller.Call(ctx, apiID, p)
}

// ServiceList returns every service known to the robot.
func (c *Client) ServiceList(ctx context.Context) ([]ServiceState, error) {
	data, err := c.call(ctx, ApiIdServiceList, nil)
	if err != nil {
		return nil, err
	}
	var list []ServiceState
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, sdkerr.Serialization("service list", err)
	}
	return list, nil
}

// ServiceSwitch starts or stops the named service and returns its resulting status.
func (c *Client) ServiceSwitch(ctx context.Context, name string, on bool) (ServiceStatus, error) {
	p := SwitchParam{Name: name}
	if on {
		p.Switch = 1
	}
	data, err := c.call(ctx, ApiIdServiceSwitch, p)
	if err != nil {
		return Stopped, err
	}
	var res struct {
		Name   string        `json:"name"`
		Status ServiceStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return Stopped, sdkerr.Serialization("service switch", err)
	}
	return res.Status, nil
}

// SetReportFreq makes the robot report service state every interval ms for
// duration ms.
func (c *Client) SetReportFreq(ctx context.Context, interval, duration int32) error {
	_, err := c.call(ctx, ApiIdSetReportFreq, ReportFreqParam{interval, duration})
	return err
}
