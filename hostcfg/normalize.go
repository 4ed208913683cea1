package hostcfg

import (
	"watchdogcode-go/drivers/attinywdt"
)

// Normalize fills defaults in place. It runs before Validate.
func Normalize(cfg *Config) {
	if cfg.Watchdog.Addr == 0 {
		cfg.Watchdog.Addr = attinywdt.AddressDefault
	}
	if cfg.Keeper.IntervalS == 0 {
		cfg.Keeper.IntervalS = attinywdt.AlertTimeoutSeconds / 4
	}
}
