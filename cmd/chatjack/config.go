package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/chatjack/internal/config"
)

// ConfigCmd groups configuration file helpers
type ConfigCmd struct {
	Init  ConfigInitCmd  `cmd:"" help:"Write a default configuration file"`
	Check ConfigCheckCmd `cmd:"" help:"Validate a configuration file and print the effective settings"`
}

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" default:"chatjack.hcl" type:"path" help:"Where to write the file"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run() error {
	if err := config.WriteDefault(c.Path, c.Force); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", c.Path)
	return nil
}

type ConfigCheckCmd struct {
	Path string `arg:"" optional:"" default:"chatjack.hcl" type:"path" help:"File to check"`
}

func (c *ConfigCheckCmd) Run() error {
	cfg, err := config.Load(c.Path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err = os.Stdout.Write(config.Render(cfg))
	return err
}

// overrides are command line values that win over the file. Zero
// values leave the file alone.
type overrides struct {
	Addr         string
	Channel      string
	Seed         int64
	VoteDuration time.Duration
}

func loadConfig(path string, o overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.Addr != "" {
		cfg.Server.Address = o.Addr
	}
	if o.Channel != "" {
		cfg.Twitch.Channel = o.Channel
	}
	if o.Seed != 0 {
		cfg.Game.Seed = o.Seed
	}
	if o.VoteDuration > 0 {
		cfg.Vote.Duration = o.VoteDuration.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
