/*
Low-level Go2 control: joint commands on rt/lowcmd, state on rt/lowstate.

The run action moves the legs from their measured position to the standing pose
and holds it, printing the state it receives. The robot's sport service must be
switched off first, or it will fight the commands.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/idl"
	"github.com/xaxy55/unitree_sdk2_go/idl/go2"
	"github.com/xaxy55/unitree_sdk2_go/internal/cliutil"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/protocol"
)

// Joint order: FR hip/thigh/calf, FL, RR, RL.
var standPose = [12]float32{
	0.00571868, 0.608813, -1.21763,
	-0.00571868, 0.608813, -1.21763,
	0.00571868, 0.608813, -1.21763,
	-0.00571868, 0.608813, -1.21763,
}

// pmsmMode enables a joint motor in servo mode.
const pmsmMode = 0x01

func main() {
	app := &cli.App{
		Name:                   "go2lowlevel",
		Usage:                  "Command Go2 joints directly and watch the low-level state",
		UseShortOptionHandling: true,
		Flags:                  cliutil.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Stand up with joint commands and hold the pose",
				Action: runLowLevel,
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "duration", Usage: "Stop after `DURATION`.", Value: 10 * time.Second},
					&cli.DurationFlag{Name: "ramp", Usage: "Reach the pose over `DURATION`.", Value: 3 * time.Second},
					&cli.IntFlag{Name: "rate", Usage: "Send commands at `HZ`.", Value: 500},
					&cli.Float64Flag{Name: "kp", Usage: "Position `GAIN`.", Value: 60},
					&cli.Float64Flag{Name: "kd", Usage: "Damping `GAIN`.", Value: 5},
					&cli.BoolFlag{Name: "watch", Usage: "Only print the state, send no commands."},
				},
			},
			{
				Name:   "describe",
				Usage:  "List the message catalog",
				Action: describe,
			},
			{
				Name:   "participants",
				Usage:  "Print the participants seen on the domain as JSON",
				Action: participants,
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "wait", Usage: "Listen for `DURATION`.", Value: 3 * time.Second},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("go2lowlevel failed", "error", err)
		os.Exit(1)
	}
}

func describe(*cli.Context) error {
	for _, t := range idl.Types() {
		size := "variable"
		if t.Size >= 0 {
			size = fmt.Sprintf("%d bytes", t.Size)
		}
		fmt.Printf("%-42s %s\n", t.Name, size)
	}
	return nil
}

func participants(c *cli.Context) error {
	sess, _, err := cliutil.Session(c, "go2lowlevel")
	if err != nil {
		return err
	}
	defer sess.Close()

	// Any channel opens the session, which starts discovery.
	sub := channel.NewSubscriber[go2.LowState](sess, sess.Topic(go2.TopicLowState))
	if err := sub.Init(func(*go2.LowState) {}); err != nil {
		return err
	}
	defer func() { <-sub.Close() }()

	ctx, stop := cliutil.SignalContext(c.Context)
	defer stop()
	select {
	case <-ctx.Done():
	case <-time.After(c.Duration("wait")):
	}

	var codec protocol.JsonTranscoder
	for _, p := range sess.Participants() {
		out, err := codec.Encode(&protocol.Announcement{
			GUID:          p.GUID,
			Name:          p.Name,
			Interface:     p.Interface,
			Publications:  p.Publications,
			Subscriptions: p.Subscriptions,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}

// legs tracks the latest measured joint positions.
type legs struct {
	mu      sync.Mutex
	q       [12]float32
	seen    bool
	printed time.Time
}

func (l *legs) update(s *go2.LowState) {
	l.mu.Lock()
	for i := range l.q {
		l.q[i] = s.MotorState[i].Q
	}
	l.seen = true
	show := time.Since(l.printed) >= time.Second
	if show {
		l.printed = time.Now()
	}
	l.mu.Unlock()

	if show {
		fmt.Printf("tick=%d rpy=%.3f soc=%d%% q[FR]=%.3f %.3f %.3f\n",
			s.Tick, s.IMUState.RPY, s.BmsState.SOC,
			s.MotorState[0].Q, s.MotorState[1].Q, s.MotorState[2].Q)
	}
}

func (l *legs) start() ([12]float32, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q, l.seen
}

func runLowLevel(c *cli.Context) error {
	ctx, stop := cliutil.SignalContext(c.Context)
	defer stop()

	sess, _, err := cliutil.Session(c, "go2lowlevel")
	if err != nil {
		return err
	}
	defer sess.Close()

	var l legs
	sub := channel.NewSubscriber[go2.LowState](sess, sess.Topic(go2.TopicLowState), channel.WithQueueSize(1))
	if err := sub.Init(l.update); err != nil {
		return err
	}
	defer func() { <-sub.Close() }()

	ctx, cancel := context.WithTimeout(ctx, c.Duration("duration"))
	defer cancel()

	if c.Bool("watch") {
		<-ctx.Done()
		return nil
	}

	pub := channel.NewPublisher[go2.LowCmd](sess, sess.Topic(go2.TopicLowCmd))
	if err := pub.Init(); err != nil {
		return err
	}
	defer pub.Close()

	// Wait for a first state to start the ramp from.
	var from [12]float32
	for {
		q, ok := l.start()
		if ok {
			from = q
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("no %s received", go2.TopicLowState)
		case <-time.After(10 * time.Millisecond):
		}
	}

	rate := c.Int("rate")
	if rate <= 0 {
		return fmt.Errorf("invalid rate %d", rate)
	}
	ramp := c.Duration("ramp")
	kp, kd := float32(c.Float64("kp")), float32(c.Float64("kd"))
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	begin := time.Now()
	var dropped int
	for {
		select {
		case <-ctx.Done():
			log.Info("low-level control finished", "dropped", dropped)
			return nil
		case now := <-ticker.C:
			phase := float32(1)
			if ramp > 0 && now.Sub(begin) < ramp {
				phase = float32(now.Sub(begin)) / float32(ramp)
			}
			cmd := go2.NewLowCmd()
			for i := range standPose {
				cmd.MotorCmd[i] = go2.MotorCmd{
					Mode: pmsmMode,
					Q:    from[i] + phase*(standPose[i]-from[i]),
					KP:   kp,
					KD:   kd,
				}
			}
			ok, err := pub.Write(cmd)
			if err != nil {
				return err
			}
			if !ok {
				dropped++
			}
		}
	}
}
