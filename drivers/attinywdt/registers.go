// Package attinywdt provides constants for register addresses and bitfields
// used in the operation of the ATtiny-based two-stage watchdog timer.
package attinywdt

const (
	// 7-bit I2C address the chip firmware ships with.
	AddressDefault = 0x44

	// --- Register addresses (8-bit address, 8-bit value) ---

	RegVersion = 0x00 // R: firmware/hardware identifier
	RegControl = 0x01 // R/W: enable bitmask
	RegTimer   = 0x02 // W: refresh pulse; reads return last raw value
	RegStatus  = 0x03 // R: fault/cause bits, semantics not implemented yet

	// --- CONTROL bits ---

	ControlEnableReset      = 1 << 0
	ControlEnablePowerCycle = 1 << 1
	ControlEnableAlert      = 1 << 2

	// RefreshPulse is the sentinel written to TIMER to reset both countdown
	// stages. It is not a duration; the windows are fixed in chip firmware.
	RefreshPulse = 255

	// The first window raises the alert line. If no refresh occurs before the
	// second window elapses, the chip resets or power-cycles the host.
	AlertTimeoutSeconds  = 64
	RebootTimeoutSeconds = 2 * AlertTimeoutSeconds
)
