package attinywdt

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrLocked             = errors.New("watchdog cannot be stopped once started")
	ErrNotArmed           = errors.New("watchdog is not armed")
	ErrUnsupportedTimeout = errors.New("chip firmware supports a single fixed timeout")
)

// Driver configuration. Set once at construction, immutable thereafter.
type Config struct {
	Address uint16 // optional; default AddressDefault
	// NoWayOut forbids disarming once armed. A safety policy, not a chip
	// limitation: it prevents accidental or malicious watchdog disablement.
	NoWayOut bool
}

// DefaultConfig provides the shipped chip address with disarm allowed.
func DefaultConfig() Config {
	return Config{Address: AddressDefault}
}

// Device represents one ATtiny watchdog chip on an I²C bus.
//
// Arm, Disarm and Refresh are serialized against each other: the armed flag is
// mutated check-then-act and concurrent calls must not interleave at the
// register level. Snapshot reads need no such exclusion; they are eventually
// consistent by nature and rely only on per-transaction bus atomicity.
type Device struct {
	i2c  drivers.I2C
	addr uint16

	mu       sync.Mutex
	armed    bool
	noWayOut bool

	// Fixed write buffer to avoid per-call heap allocations; guarded by mu.
	w [2]byte
}

// New constructs a Device with supplied config. The host-side armed flag
// starts false; it tracks the last successful CONTROL write, not chip ground
// truth (the chip may already be counting down from hardware defaults — use
// NewAuto to reconcile).
func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	return &Device{
		i2c:      i2c,
		addr:     addr,
		noWayOut: cfg.NoWayOut,
	}
}

// NewAuto constructs a Device and reads CONTROL once so that a chip armed by
// hardware or firmware before the host attached is reflected in Armed.
func NewAuto(i2c drivers.I2C, cfg Config) (*Device, error) {
	d := New(i2c, cfg)
	ctl, err := d.readReg(RegControl)
	if err != nil {
		return nil, err
	}
	d.armed = ctl != 0
	return d, nil
}

// Introspection.
func (d *Device) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}
func (d *Device) NoWayOut() bool      { return d.noWayOut }
func (d *Device) TimeoutSeconds() int { return AlertTimeoutSeconds }

// Arm starts the two-stage countdown: alert first as an early warning, then
// power-cycle (stronger than reset) as the terminal action. The TIMER refresh
// is attempted even when the CONTROL write fails; a register error must never
// leave the chip enabled but unrefreshed. Armed flips only when both writes
// succeeded.
func (d *Device) Arm() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cerr := d.writeReg(RegControl, ControlEnablePowerCycle|ControlEnableAlert)
	terr := d.writeReg(RegTimer, RefreshPulse)
	if cerr != nil {
		return cerr
	}
	if terr != nil {
		return terr
	}
	d.armed = true
	return nil
}

// Disarm writes CONTROL = 0. Under NoWayOut it fails with ErrLocked and
// issues no write at all.
func (d *Device) Disarm() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.noWayOut {
		return ErrLocked
	}
	if err := d.writeReg(RegControl, 0); err != nil {
		return err
	}
	d.armed = false
	return nil
}

// Refresh resets both countdown stages back to full duration. The caller owns
// the cadence and must refresh at an interval strictly below
// AlertTimeoutSeconds; the driver schedules nothing. Calling while disarmed is
// a register-level no-op on the chip, so it is rejected here to surface
// misuse early.
func (d *Device) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.armed {
		return ErrNotArmed
	}
	return d.writeReg(RegTimer, RefreshPulse)
}

// SetTimeout validates a requested timeout against the chip-fixed window.
// The firmware does not support a runtime-configurable timeout; only the
// fixed value passes and no register is ever written.
func (d *Device) SetTimeout(seconds int) error {
	if seconds != AlertTimeoutSeconds {
		return ErrUnsupportedTimeout
	}
	return nil
}
