// Package hostcfg loads the host daemon configuration from YAML.
package hostcfg

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Keeper   KeeperConfig   `yaml:"keeper"`
}

// ---- WATCHDOG CHIP ----

type WatchdogConfig struct {
	Addr     uint16 `yaml:"addr"`     // 7-bit I2C address; 0 => chip default
	NoWayOut bool   `yaml:"nowayout"` // forbid disarm once armed
	// Reconcile reads CONTROL at attach so a chip armed by hardware before
	// the host came up is reflected in the armed state.
	Reconcile bool `yaml:"reconcile"`
}

// ---- KEEPER ----

type KeeperConfig struct {
	IntervalS  int  `yaml:"interval_s"` // refresh cadence; 0 => default
	ArmOnStart bool `yaml:"arm_on_start"`
}

// Load reads, normalizes and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
