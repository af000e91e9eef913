// Package config loads the communication-domain configuration supplied once at
// process startup: domain id, network interface, multicast/unicast addressing and
// client defaults.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultMulticastGroup   = "239.255.0.1"
	DefaultAnnounceInterval = time.Second
	DefaultRPCTimeout       = 10 * time.Second
	DefaultLogLevel         = "info"

	// MaxDomainID keeps 7400+250*domain inside the UDP port range.
	MaxDomainID = 232
)

// Environment overrides, applied after the file.
const (
	EnvDomainID  = "UNITREE_DOMAIN_ID"
	EnvInterface = "UNITREE_NETWORK_INTERFACE"
	EnvLogLevel  = "UNITREE_LOG_LEVEL"
)

// Config holds the process-wide transport configuration.
type Config struct {
	DomainID         int           `yaml:"domain_id" json:"domain_id"`
	Interface        string        `yaml:"interface" json:"interface"`
	MulticastGroup   string        `yaml:"multicast_group" json:"multicast_group"`
	Port             int           `yaml:"port" json:"port"`
	ListenAddr       string        `yaml:"listen_addr" json:"listen_addr"`
	Peers            []string      `yaml:"peers" json:"peers"`
	AnnounceInterval time.Duration `yaml:"announce_interval" json:"announce_interval"`
	RPCTimeout       time.Duration `yaml:"rpc_timeout" json:"rpc_timeout"`
	LogLevel         string        `yaml:"log_level" json:"log_level"`
}

// Default returns a Config for domain 0 on the default interface.
func Default() Config {
	return Config{
		MulticastGroup:   DefaultMulticastGroup,
		AnnounceInterval: DefaultAnnounceInterval,
		RPCTimeout:       DefaultRPCTimeout,
		LogLevel:         DefaultLogLevel,
	}
}

// DefaultPath returns the default config file path: ~/.unitree/sdk.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".unitree", "sdk.yaml")
	}
	return filepath.Join(home, ".unitree", "sdk.yaml")
}

// Load reads the configuration from the given YAML file path and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDomainID); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDomainID, err)
		}
		c.DomainID = id
	}
	if v := os.Getenv(EnvInterface); v != "" {
		c.Interface = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.DomainID < 0 || c.DomainID > MaxDomainID {
		return fmt.Errorf("domain_id %d out of range [0, %d]", c.DomainID, MaxDomainID)
	}
	if c.Port < 0 || c.Port > 0xFFFF {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.MulticastGroup != "" {
		ip := net.ParseIP(c.MulticastGroup)
		if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
			return fmt.Errorf("multicast_group %q is not an IPv4 multicast address", c.MulticastGroup)
		}
	}
	for _, p := range c.Peers {
		if _, _, err := net.SplitHostPort(p); err != nil {
			return fmt.Errorf("peer %q: %w", p, err)
		}
	}
	if c.AnnounceInterval < 0 {
		return fmt.Errorf("announce_interval must not be negative")
	}
	if c.RPCTimeout < 0 {
		return fmt.Errorf("rpc_timeout must not be negative")
	}
	return nil
}

// DataPort returns the UDP port for the configured domain: Port when set,
// otherwise the RTPS formula 7400 + 250*domain.
func (c Config) DataPort() int {
	if c.Port != 0 {
		return c.Port
	}
	return 7400 + 250*c.DomainID
}
