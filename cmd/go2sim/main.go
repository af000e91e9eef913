package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/xaxy55/unitree_sdk2_go/internal/cliutil"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
	"github.com/xaxy55/unitree_sdk2_go/internal/sim"
)

func main() {
	//Using urfave/cli to make sensible CLI argument parsing
	app := &cli.App{
		Name:                   "go2sim",
		Usage:                  "A simulated Go2 answering the sport, robot_state and lease services",
		Action:                 runSim,
		UseShortOptionHandling: true,
		Flags: append(cliutil.Flags(),
			&cli.IntFlag{
				Name:    "rate",
				Aliases: []string{"r"},
				Usage:   "Publish lowstate and sportmodestate at `HZ`.",
				Value:   sim.DefaultRate,
			},
		),
	}

	if err := app.Run(os.Args); err != nil {
		log.Error("go2sim failed", "error", err)
		os.Exit(1)
	}
}

func runSim(c *cli.Context) error {
	ctx, stop := cliutil.SignalContext(c.Context)
	defer stop()

	sess, cfg, err := cliutil.Session(c, "go2sim")
	if err != nil {
		return err
	}
	defer sess.Close()

	robot := sim.New(sess, sim.WithRate(c.Int("rate")))
	if err := robot.Start(ctx); err != nil {
		return err
	}
	defer robot.Close()

	log.Info("simulated robot running", "domain", cfg.DomainID, "interface", cfg.Interface)
	log.Info("Use Ctl-C to exit.")

	// Run until ctl-c
	<-ctx.Done()
	return nil
}
