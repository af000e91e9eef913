/*
Command line driver for the Go2 sport service.

With no arguments it runs the demonstration sequence: stand up, balance, walk
forward, stop, lie down, damp. Otherwise the first argument names one action, e.g.

	go2sport --iface eth0 move 0.3 0 0
	go2sport speed_level 1
	go2sport shell
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/xaxy55/unitree_sdk2_go/client"
	"github.com/xaxy55/unitree_sdk2_go/go2/sport"
	"github.com/xaxy55/unitree_sdk2_go/internal/cliutil"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/msg"
	"github.com/xaxy55/unitree_sdk2_go/sdkerr"
)

func main() {
	//Using urfave/cli to make sensible CLI argument parsing
	app := &cli.App{
		Name:                   "go2sport",
		Usage:                  "Send locomotion commands to a Go2",
		ArgsUsage:              "[ACTION [ARGS...]]",
		Action:                 runSport,
		UseShortOptionHandling: true,
		Flags: append(cliutil.Flags(),
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "Give up on a command after `DURATION`.",
			},
			&cli.BoolFlag{
				Name:  "lease",
				Usage: "Apply for exclusive control before sending commands.",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Encode requests as JSON instead of CBOR.",
			},
			&cli.DurationFlag{
				Name:  "pause",
				Usage: "Wait `DURATION` between the steps of the demonstration.",
				Value: time.Second,
			},
		),
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the available actions",
				Action: listActions,
			},
			{
				Name:   "shell",
				Usage:  "Read actions from standard input",
				Action: runShell,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("go2sport failed", "error", err, "code", sdkerr.Code(err))
		os.Exit(1)
	}
}

// connect builds an initialized sport client from the command line.
func connect(c *cli.Context) (*sport.Client, func(), error) {
	sess, cfg, err := cliutil.Session(c, "go2sport")
	if err != nil {
		return nil, nil, err
	}
	timeout := cfg.RPCTimeout
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}
	format := msg.FormatCBOR
	if c.Bool("json") {
		format = msg.FormatJSON
	}

	sc := sport.New(sess,
		client.WithTimeout(timeout),
		client.WithLease(c.Bool("lease")),
		client.WithTranscoder(format),
	)
	if err := sc.Init(c.Context); err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sc, func() {
		sc.Close()
		sess.Close()
	}, nil
}

func runSport(c *cli.Context) error {
	ctx, stop := cliutil.SignalContext(c.Context)
	defer stop()

	sc, closeAll, err := connect(c)
	if err != nil {
		return err
	}
	defer closeAll()

	if c.NArg() > 0 {
		return runAction(ctx, sc, c.Args().Slice())
	}
	return demo(ctx, sc, c.Duration("pause"))
}

// demo walks through the basic locomotion commands.
func demo(ctx context.Context, sc *sport.Client, pause time.Duration) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"stand_up", func() error { return sc.StandUp(ctx) }},
		{"balance_stand", func() error { return sc.BalanceStand(ctx) }},
		{"move", func() error { return sc.Move(ctx, 0.5, 0, 0) }},
		{"stop_move", func() error { return sc.StopMove(ctx) }},
		{"stand_down", func() error { return sc.StandDown(ctx) }},
		{"damp", func() error { return sc.Damp(ctx) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		fmt.Printf("%s: ok\n", s.name)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}

	on, err := sc.AutoRecoverGet(ctx)
	if err != nil {
		return fmt.Errorf("auto_recover_get: %w", err)
	}
	fmt.Printf("auto_recover_get: %v\n", on)
	return nil
}

func runAction(ctx context.Context, sc *sport.Client, args []string) error {
	a, ok := sport.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown action %q, see \"go2sport list\"", args[0])
	}
	param, err := parseParam(a, args[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	data, err := sc.Do(ctx, a, param)
	if err != nil {
		return fmt.Errorf("%s: %w", a.Name, err)
	}
	if data == "" {
		data = "ok"
	}
	fmt.Printf("%s: %s\n", a.Name, data)
	return nil
}

func parseParam(a sport.API, args []string) (any, error) {
	switch a.Param {
	case sport.ParamVector:
		if len(args) != 3 {
			return nil, errors.New("expects three numbers: x y z")
		}
		var v [3]float32
		for i, s := range args {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, err
			}
			v[i] = float32(f)
		}
		return sport.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
	case sport.ParamValue:
		if len(args) != 1 {
			return nil, errors.New("expects one value")
		}
		switch strings.ToLower(args[0]) {
		case "on", "true":
			return sport.Value{Value: 1}, nil
		case "off", "false":
			return sport.Value{Value: 0}, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, err
		}
		return sport.Value{Value: n}, nil
	}
	if len(args) != 0 {
		return nil, errors.New("takes no arguments")
	}
	return nil, nil
}

func listActions(*cli.Context) error {
	for _, a := range sport.APIs {
		args := ""
		switch a.Param {
		case sport.ParamVector:
			args = " X Y Z"
		case sport.ParamValue:
			args = " VALUE"
		}
		fmt.Printf("%-18s %d%s\n", a.Name, a.ID, args)
	}
	return nil
}

func runShell(c *cli.Context) error {
	ctx, stop := cliutil.SignalContext(c.Context)
	defer stop()

	sc, closeAll, err := connect(c)
	if err != nil {
		return err
	}
	defer closeAll()

	fmt.Println("Type an action with its arguments, \"list\" or \"quit\".")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "list":
			listActions(c)
		default:
			if err := runAction(ctx, sc, fields); err != nil {
				fmt.Printf("error: %v (code %d)\n", err, sdkerr.Code(err))
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
