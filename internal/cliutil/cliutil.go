// Package cliutil holds the flags and session setup shared by the commands.
package cliutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/xaxy55/unitree_sdk2_go/channel"
	"github.com/xaxy55/unitree_sdk2_go/config"
	"github.com/xaxy55/unitree_sdk2_go/internal/log"
)

// Flags are the domain flags every command accepts.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Load settings from the YAML file at `PATH`.",
			Value:   config.DefaultPath(),
		},
		&cli.StringFlag{
			Name:    "iface",
			Aliases: []string{"i"},
			Usage:   "Join the multicast group on network interface `NAME`.",
			EnvVars: []string{config.EnvInterface},
		},
		&cli.IntFlag{
			Name:    "domain",
			Aliases: []string{"d"},
			Usage:   "Communicate on domain `ID`.",
			EnvVars: []string{config.EnvDomainID},
		},
		&cli.StringSliceFlag{
			Name:  "peer",
			Usage: "Send to unicast `HOST:PORT` instead of the multicast group. Repeatable.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log at `LEVEL` (debug, info, warn, error).",
			EnvVars: []string{config.EnvLogLevel},
		},
	}
}

// Config loads the configuration file and applies the flags set on the command line.
func Config(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("iface") {
		cfg.Interface = c.String("iface")
	}
	if c.IsSet("domain") {
		cfg.DomainID = c.Int("domain")
	}
	if c.IsSet("peer") {
		cfg.Peers = c.StringSlice("peer")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

// Session sets up logging and builds a session from the command line.
func Session(c *cli.Context, name string) (*channel.Session, config.Config, error) {
	cfg, err := Config(c)
	if err != nil {
		return nil, cfg, err
	}
	log.Init(cfg.LogLevel)
	s, err := channel.NewSessionFromConfig(cfg, channel.WithName(name))
	return s, cfg, err
}

// SignalContext is cancelled on Ctrl-C or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
