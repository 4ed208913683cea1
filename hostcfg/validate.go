package hostcfg

import (
	"fmt"

	"watchdogcode-go/drivers/attinywdt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Watchdog.Addr > 0x7F {
		return fmt.Errorf("watchdog: addr 0x%x is not a 7-bit I2C address", cfg.Watchdog.Addr)
	}

	iv := cfg.Keeper.IntervalS
	if iv <= 0 {
		return fmt.Errorf("keeper: interval_s must be positive, got %d", iv)
	}
	// The chip alerts after a fixed window; the cadence must undercut it.
	if iv >= attinywdt.AlertTimeoutSeconds {
		return fmt.Errorf(
			"keeper: interval_s %d must be strictly below the %d s alert window",
			iv, attinywdt.AlertTimeoutSeconds,
		)
	}

	return nil
}
