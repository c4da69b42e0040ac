package osc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the transport endpoints for a Dispatcher.
type Config struct {
	// SendHost and SendPort are the initial outbound destination.
	SendHost string `yaml:"send_host"`
	SendPort int    `yaml:"send_port"`

	// ReceivePort is the local UDP port the receiver binds. Port 0 binds
	// an ephemeral port, useful for tests.
	ReceivePort int `yaml:"receive_port"`

	// AutoStart makes NewDispatcher begin listening immediately.
	AutoStart bool `yaml:"auto_start"`
}

// DefaultConfig returns the stock endpoints: send to 127.0.0.1:9000,
// receive on 9001, listening started on construction.
func DefaultConfig() Config {
	return Config{
		SendHost:    "127.0.0.1",
		SendPort:    9000,
		ReceivePort: 9001,
		AutoStart:   true,
	}
}

// LoadConfig reads a YAML config file over the defaults, so a file only
// needs the keys it wants to change.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the endpoint values.
func (c Config) Validate() error {
	if c.SendHost == "" {
		return fmt.Errorf("send_host must not be empty")
	}
	if c.SendPort < 1 || c.SendPort > 65535 {
		return fmt.Errorf("send_port %d out of range 1-65535", c.SendPort)
	}
	if c.ReceivePort < 0 || c.ReceivePort > 65535 {
		return fmt.Errorf("receive_port %d out of range 0-65535", c.ReceivePort)
	}
	return nil
}
