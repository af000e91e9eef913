package sim

import (
	"context"
	"encoding/json"

	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/go2/robotstate"
	"github.com/xaxy55/unitree_sdk2_go/go2/sport"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
	"github.com/xaxy55/unitree_sdk2_go/server"
)

var errBadParameter = sdkerr.API(sdkerr.CodeServerBadParameter)

func decodeParam(req *msg.Request, v any) error {
	if err := json.Unmarshal([]byte(req.Parameter), v); err != nil {
		return errBadParameter
	}
	return nil
}

func encodeData(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Robot) sportServer() *server.Server {
	s := server.New(r.session, sport.ServiceName, server.WithLogger(r.logger))
	for _, a := range sport.APIs {
		a := a
		s.Register(a.ID, func(_ context.Context, req *msg.Request) (string, error) {
			return r.sportCommand(a, req)
		})
	}
	return s
}

func (r *Robot) sportCommand(a sport.API, req *msg.Request) (string, error) {
	var (
		vec sport.Vector
		val sport.Value
	)
	switch a.Param {
	case sport.ParamVector:
		if err := decodeParam(req, &vec); err != nil {
			return "", err
		}
	case sport.ParamValue:
		if err := decodeParam(req, &val); err != nil {
			return "", err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.state

	switch a.ID {
	case sport.ApiIdDamp:
		s.Mode = ModeDamping
		s.Velocity = [3]float32{}
	case sport.ApiIdBalanceStand, sport.ApiIdRiseSit:
		s.Mode = ModeBalanceStand
		s.BodyHeight = standHeight
	case sport.ApiIdStopMove:
		s.Velocity = [3]float32{}
		if s.Mode == ModeLocomotion {
			s.Mode = ModeBalanceStand
		}
	case sport.ApiIdStandUp:
		s.Mode = ModeJointLock
		s.BodyHeight = standHeight
	case sport.ApiIdStandDown:
		s.Mode = ModeLieDown
		s.BodyHeight = lieHeight
		s.Velocity = [3]float32{}
	case sport.ApiIdRecoveryStand:
		s.Mode = ModeRecoveryStand
		s.BodyHeight = standHeight
	case sport.ApiIdEuler:
		s.Euler = [3]float32{vec.X, vec.Y, vec.Z}
	case sport.ApiIdMove:
		s.Mode = ModeLocomotion
		s.Velocity = [3]float32{vec.X, vec.Y, vec.Z}
	case sport.ApiIdSit:
		s.Mode = ModeSit
		s.BodyHeight = sitHeight
	case sport.ApiIdSpeedLevel:
		if val.Value < -1 || val.Value > 1 {
			return "", errBadParameter
		}
		s.SpeedLevel = val.Value
	case sport.ApiIdPose:
		if val.Value != 0 {
			s.Mode = ModePose
		} else {
			s.Mode = ModeBalanceStand
		}
	case sport.ApiIdAutoRecoverySet:
		s.AutoRecover = val.Value != 0
	case sport.ApiIdAutoRecoveryGet:
		v := sport.Value{}
		if s.AutoRecover {
			v.Value = 1
		}
		s.Commands++
		return encodeData(v)
	}
	s.Commands++
	r.logger.Debug("sport command", "api", a.Name, "mode", s.Mode)
	return "", nil
}

func (r *Robot) robotStateServer() *server.Server {
	s := server.New(r.session, robotstate.ServiceName, server.WithLogger(r.logger))
	s.Register(robotstate.ApiIdServiceList, func(context.Context, *msg.Request) (string, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		return encodeData(r.services)
	})
	s.Register(robotstate.ApiIdServiceSwitch, func(_ context.Context, req *msg.Request) (string, error) {
		var p robotstate.SwitchParam
		if err := decodeParam(req, &p); err != nil {
			return "", err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := range r.services {
			svc := &r.services[i]
			if svc.Name != p.Name {
				continue
			}
			if svc.Protect && p.Switch == 0 {
				return "", errBadParameter
			}
			svc.Status = robotstate.Stopped
			if p.Switch != 0 {
				svc.Status = robotstate.Running
			}
			return encodeData(struct {
				Name   string                   `json:"name"`
				Status robotstate.ServiceStatus `json:"status"`
			}{svc.Name, svc.Status})
		}
		return "", errBadParameter
	})
	s.Register(robotstate.ApiIdSetReportFreq, func(_ context.Context, req *msg.Request) (string, error) {
		var p robotstate.ReportFreqParam
		if err := decodeParam(req, &p); err != nil {
			return "", err
		}
		if p.Interval <= 0 || p.Duration < 0 {
			return "", errBadParameter
		}
		r.mu.Lock()
		r.reportFreq = p
		r.mu.Unlock()
		return "", nil
	})
	return s
}

// leaseServer grants a new lease on every application.
func (r *Robot) leaseServer(service string) *server.Server {
	s := server.New(r.session, service+client.LeaseSuffix, server.WithLogger(r.logger))
	s.Register(client.ApiIdLeaseApply, func(_ context.Context, req *msg.Request) (string, error) {
		var p struct {
			Name string `json:"name"`
		}
		if err := decodeParam(req, &p); err != nil {
			return "", err
		}
		r.mu.Lock()
		r.lease++
		id := r.lease
		r.mu.Unlock()
		r.logger.Info("lease granted", "holder", p.Name, "id", id)
		return encodeData(struct {
			ID int64 `json:"id"`
		}{id})
	})
	return s
}
