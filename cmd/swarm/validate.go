package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kadirpekel/swarm/config"
)

// ValidateCmd validates a configuration file
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration, defaults applied and
	// env vars resolved
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadFromFile(c.Config)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.PrintConfig {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	fmt.Printf("%s is valid\n", c.Config)
	fmt.Printf("  coordinator: %s\n", cfg.Swarm.Coordinator)
	fmt.Printf("  providers:   %d\n", len(cfg.Providers))
	fmt.Printf("  agents:      %d\n", len(cfg.Agents))
	return nil
}
