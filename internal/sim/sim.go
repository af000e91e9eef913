// Package sim is a simulated Go2 for development without hardware. It serves the
// sport, robot_state and lease services and publishes LowState and SportModeState,
// with joint positions following the last LowCmd received.
package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/go2/robotstate"
	"github.com/xaxy55/unitree_sdk2_go/go2/sport"
	"github.com/xaxy55/unitree_sdk2_go/idl/go2"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/server"
)

// DefaultRate is the default state publication rate in Hz
const DefaultRate = 50

// Locomotion modes reported in SportModeState.Mode
const (
	ModeIdle          uint8 = 0
	ModeBalanceStand  uint8 = 1
	ModePose          uint8 = 2
	ModeLocomotion    uint8 = 3
	ModeLieDown       uint8 = 5
	ModeJointLock     uint8 = 6
	ModeDamping       uint8 = 7
	ModeRecoveryStand uint8 = 8
	ModeSit           uint8 = 10
)

const (
	standHeight = 0.32
	lieHeight   = 0.08
	sitHeight   = 0.2
)

// Option configures a Robot
type Option func(*Robot)

// WithRate sets the state publication rate in Hz
func WithRate(hz int) Option {
	return func(r *Robot) {
		if hz > 0 {
			r.period = time.Second / time.Duration(hz)
		}
	}
}

// WithLogger sets the robot logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Robot) { r.logger = l }
}

// State is the simulated robot's locomotion state
type State struct {
	Mode        uint8
	BodyHeight  float32
	Velocity    [3]float32
	Euler       [3]float32
	Position    [3]float32
	SpeedLevel  int
	AutoRecover bool
	Commands    uint64
	Tick        uint32
}

type Robot struct {
	session *channel.Session
	period  time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	state      State
	services   []robotstate.ServiceState
	reportFreq robotstate.ReportFreqParam
	lease      int64
	joints     [go2.NumMotors]float32

	servers    []*server.Server
	lowState   *channel.Publisher[go2.LowState, *go2.LowState]
	sportState *channel.Publisher[go2.SportModeState, *go2.SportModeState]
	lowCmd     *channel.Subscriber[go2.LowCmd, *go2.LowCmd]

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a simulated robot on session. It lies down until told otherwise.
func New(session *channel.Session, opts ...Option) *Robot {
	r := &Robot{
		session: session,
		period:  time.Second / DefaultRate,
		state:   State{Mode: ModeLieDown, BodyHeight: lieHeight},
		services: []robotstate.ServiceState{
			{Name: "sport_mode", Status: robotstate.Running, Protect: true},
			{Name: "obstacles_avoid", Status: robotstate.Stopped},
			{Name: "vui", Status: robotstate.Running},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.With("component", "sim")
	}
	return r
}

// Start serves the robot services and begins publishing state.
func (r *Robot) Start(ctx context.Context) error {
	r.servers = []*server.Server{
		r.sportServer(),
		r.robotStateServer(),
		r.leaseServer(sport.ServiceName),
	}
	for _, s := range r.servers {
		if err := s.Start(ctx); err != nil {
			r.stopServers()
			return err
		}
	}

	r.lowState = channel.NewPublisher[go2.LowState](r.session, r.session.Topic(go2.TopicLowState))
	r.sportState = channel.NewPublisher[go2.SportModeState](r.session, r.session.Topic(go2.TopicSportModeState))
	r.lowCmd = channel.NewSubscriber[go2.LowCmd](r.session, r.session.Topic(go2.TopicLowCmd), channel.WithQueueSize(1))
	if err := r.lowState.Init(); err != nil {
		r.stopServers()
		return err
	}
	if err := r.sportState.Init(); err != nil {
		r.lowState.Close()
		r.stopServers()
		return err
	}
	if err := r.lowCmd.Init(r.onLowCmd); err != nil {
		r.lowState.Close()
		r.sportState.Close()
		r.stopServers()
		return err
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.publishLoop(ctx)
	r.logger.Info("simulated robot started", "period", r.period)
	return nil
}

func (r *Robot) stopServers() {
	for _, s := range r.servers {
		s.Close()
	}
}

// Close stops publishing and serving.
func (r *Robot) Close() error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()
	<-r.done
	<-r.lowCmd.Close()
	r.lowState.Close()
	r.sportState.Close()
	r.stopServers()
	r.cancel = nil
	return nil
}

// Snapshot returns the current locomotion state.
func (r *Robot) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Robot) onLowCmd(cmd *go2.LowCmd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range cmd.MotorCmd {
		r.joints[i] = cmd.MotorCmd[i].Q
	}
}

func (r *Robot) publishLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	dt := float32(r.period.Seconds())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			low, st := r.step(now, dt)
			if _, err := r.lowState.Write(low); err != nil {
				r.logger.Debug("lowstate not published", "error", err)
			}
			if _, err := r.sportState.Write(st); err != nil {
				r.logger.Debug("sportmodestate not published", "error", err)
			}
		}
	}
}

// step advances the simulation by dt seconds and renders both state messages.
func (r *Robot) step(now time.Time, dt float32) (*go2.LowState, *go2.SportModeState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.state
	s.Tick++
	for i := range s.Position {
		s.Position[i] += s.Velocity[i] * dt
	}

	imu := go2.IMUState{
		Quaternion:    [4]float32{1, 0, 0, 0},
		Accelerometer: [3]float32{0, 0, 9.81},
		RPY:           s.Euler,
		Temperature:   40,
	}
	imu.Gyroscope[2] = s.Velocity[2]

	low := &go2.LowState{
		Head:      [2]uint8{0xFE, 0xEF},
		LevelFlag: 0xFF,
		IMUState:  imu,
		Tick:      s.Tick,
		BmsState:  go2.BmsState{SOC: 90, Current: -1500, Status: 1},
	}
	for i := range low.MotorState {
		low.MotorState[i] = go2.MotorState{Mode: 1, Q: r.joints[i], Temperature: 35}
	}
	if s.BodyHeight > lieHeight {
		low.FootForce = [4]int16{40, 40, 40, 40}
	}

	st := &go2.SportModeState{
		Stamp:      go2.TimeSpec{Sec: int32(now.Unix()), Nanosec: uint32(now.Nanosecond())},
		IMUState:   imu,
		Mode:       s.Mode,
		Progress:   1,
		Position:   s.Position,
		BodyHeight: s.BodyHeight,
		Velocity:   [3]float32{s.Velocity[0], s.Velocity[1], 0},
		YawSpeed:   s.Velocity[2],
		FootForce:  low.FootForce,
	}
	return low, st
}
